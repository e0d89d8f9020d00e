package provider

import (
	"context"
	"encoding/json"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/freedombydesign/connections-service/internal/config"
	"github.com/freedombydesign/connections-service/internal/domain/models"
)

// ExchangeStyle selects how the token endpoint expects the exchange request.
type ExchangeStyle int

const (
	// ExchangeForm sends a form-encoded POST with client credentials in the
	// body (Asana, ClickUp, Monday).
	ExchangeForm ExchangeStyle = iota
	// ExchangeJSONBasic sends a JSON POST authenticated with HTTP Basic
	// (Notion).
	ExchangeJSONBasic
)

// IdentityFunc resolves the authenticated external identity for a provider.
// Providers without a separate identity endpoint read it off the token
// response instead of calling out.
type IdentityFunc func(ctx context.Context, client *http.Client, identityURL string, tok *models.ProviderToken) (*models.ProviderIdentity, error)

// Provider is the static protocol description of one OAuth platform combined
// with its deploy-time credentials.
type Provider struct {
	Name         string
	Enabled      bool
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	AuthURL     string
	TokenURL    string
	IdentityURL string

	Style ExchangeStyle
	// ExtraAuthParams are provider-specific query params for the authorize
	// URL (e.g. Notion's owner=user).
	ExtraAuthParams map[string]string

	Identity IdentityFunc
}

// AuthCodeURL builds the provider authorization URL for the given state.
func (p *Provider) AuthCodeURL(state string) string {
	cfg := &oauth2.Config{
		ClientID:    p.ClientID,
		RedirectURL: p.RedirectURL,
		Scopes:      p.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   p.AuthURL,
			TokenURL:  p.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	opts := make([]oauth2.AuthCodeOption, 0, len(p.ExtraAuthParams))
	for k, v := range p.ExtraAuthParams {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}
	return cfg.AuthCodeURL(state, opts...)
}

// Registry holds the configured providers in a stable order.
type Registry struct {
	providers map[string]*Provider
	order     []string
}

// NewRegistry builds the four platform providers, overlaying deploy-time
// configuration (credentials, enabled flags, scopes) where present.
func NewRegistry(cfgs map[string]config.ProviderConfig) *Registry {
	r := &Registry{providers: make(map[string]*Provider)}
	r.add(newAsana(cfgs[models.PlatformAsana]))
	r.add(newClickUp(cfgs[models.PlatformClickUp]))
	r.add(newMonday(cfgs[models.PlatformMonday]))
	r.add(newNotion(cfgs[models.PlatformNotion]))
	return r
}

func (r *Registry) add(p *Provider) {
	r.providers[p.Name] = p
	r.order = append(r.order, p.Name)
}

// Get returns the provider by name.
func (r *Registry) Get(name string) (*Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Names returns provider names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// stringifyID normalizes a decoded JSON identifier to a string. ClickUp and
// Monday return numeric user ids; the stored key is always a string.
func stringifyID(v interface{}) string {
	switch id := v.(type) {
	case string:
		return id
	case json.Number:
		return id.String()
	case float64:
		return json.Number(jsonFloatString(id)).String()
	default:
		return ""
	}
}

func jsonFloatString(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}

// lookupString walks a decoded JSON object along the given keys and returns
// the string leaf, or "" when any step is missing.
func lookupString(m map[string]interface{}, keys ...string) string {
	cur := m
	for i, k := range keys {
		v, ok := cur[k]
		if !ok {
			return ""
		}
		if i == len(keys)-1 {
			s, _ := v.(string)
			return s
		}
		next, ok := v.(map[string]interface{})
		if !ok {
			return ""
		}
		cur = next
	}
	return ""
}
