package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	domainErrors "github.com/freedombydesign/connections-service/internal/domain/errors"
	"github.com/freedombydesign/connections-service/internal/domain/models"
)

const maxTokenResponseBytes = 1 << 20

// Exchange turns an authorization code into a parsed token response. It makes
// exactly one attempt; callback invocations are never retried.
//
// A 2xx response without an access_token is reported as
// domain errors.ErrNoAccessToken so the caller can finish the flow without
// persisting anything.
func (p *Provider) Exchange(ctx context.Context, client *http.Client, code string) (*models.ProviderToken, error) {
	req, err := p.exchangeRequest(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("build token request for %s: %w", p.Name, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s token endpoint: %w: %v", p.Name, domainErrors.ErrExchangeFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s token response: %w", p.Name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s token endpoint returned %s: %w", p.Name, resp.Status, domainErrors.ErrExchangeFailed)
	}

	raw := make(map[string]interface{})
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode %s token response: %w", p.Name, err)
	}

	accessToken, _ := raw["access_token"].(string)
	if accessToken == "" {
		return nil, domainErrors.ErrNoAccessToken
	}

	tok := &models.ProviderToken{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		Raw:         raw,
	}
	if rt, ok := raw["refresh_token"].(string); ok && rt != "" {
		tok.RefreshToken = rt
	}
	if tt, ok := raw["token_type"].(string); ok && tt != "" {
		tok.TokenType = tt
	}
	if n, ok := raw["expires_in"].(json.Number); ok {
		if secs, err := n.Int64(); err == nil {
			tok.ExpiresIn = &secs
		}
	}
	return tok, nil
}

func (p *Provider) exchangeRequest(ctx context.Context, code string) (*http.Request, error) {
	switch p.Style {
	case ExchangeJSONBasic:
		payload, err := json.Marshal(map[string]string{
			"grant_type":   "authorization_code",
			"code":         code,
			"redirect_uri": p.RedirectURL,
		})
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.TokenURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(p.ClientID, p.ClientSecret)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return req, nil
	default:
		form := url.Values{
			"grant_type":    {"authorization_code"},
			"code":          {code},
			"client_id":     {p.ClientID},
			"client_secret": {p.ClientSecret},
			"redirect_uri":  {p.RedirectURL},
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.TokenURL, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		return req, nil
	}
}

// FetchIdentity resolves the external identity for the freshly issued token.
func (p *Provider) FetchIdentity(ctx context.Context, client *http.Client, tok *models.ProviderToken) (*models.ProviderIdentity, error) {
	return p.Identity(ctx, client, p.IdentityURL, tok)
}
