package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/freedombydesign/connections-service/internal/config"
	domainErrors "github.com/freedombydesign/connections-service/internal/domain/errors"
	"github.com/freedombydesign/connections-service/internal/domain/models"
)

const (
	mondayAuthURL     = "https://auth.monday.com/oauth2/authorize"
	mondayTokenURL    = "https://auth.monday.com/oauth2/token"
	mondayIdentityURL = "https://api.monday.com/v2"

	mondayMeQuery = "{ me { id name email photo_original } }"
)

func newMonday(cfg config.ProviderConfig) *Provider {
	return &Provider{
		Name:         models.PlatformMonday,
		Enabled:      cfg.Enabled,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       cfg.Scopes,
		AuthURL:      mondayAuthURL,
		TokenURL:     mondayTokenURL,
		IdentityURL:  mondayIdentityURL,
		Style:        ExchangeForm,
		Identity:     fetchMondayIdentity,
	}
}

// fetchMondayIdentity resolves the viewer through Monday's GraphQL API; there
// is no REST "who am I" endpoint.
func fetchMondayIdentity(ctx context.Context, client *http.Client, identityURL string, tok *models.ProviderToken) (*models.ProviderIdentity, error) {
	body, err := json.Marshal(map[string]string{"query": mondayMeQuery})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, identityURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", tok.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("monday identity endpoint: %w: %v", domainErrors.ErrIdentityFetchFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("monday identity endpoint returned %s: %w", resp.Status, domainErrors.ErrIdentityFetchFailed)
	}

	var payload struct {
		Data struct {
			Me struct {
				ID   interface{} `json:"id"`
				Name string      `json:"name"`
			} `json:"me"`
		} `json:"data"`
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode monday identity response: %w", err)
	}
	// me.id arrives as a number on older API versions and a string on newer
	// ones; either way the stored key is a string.
	id := stringifyID(payload.Data.Me.ID)
	if id == "" {
		return nil, fmt.Errorf("monday identity response has no me.id: %w", domainErrors.ErrIdentityFetchFailed)
	}
	return &models.ProviderIdentity{
		PlatformUserID:   id,
		PlatformUsername: payload.Data.Me.Name,
	}, nil
}
