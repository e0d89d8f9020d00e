package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/freedombydesign/connections-service/internal/config"
	domainErrors "github.com/freedombydesign/connections-service/internal/domain/errors"
	"github.com/freedombydesign/connections-service/internal/domain/models"
)

const (
	asanaAuthURL     = "https://app.asana.com/-/oauth_authorize"
	asanaTokenURL    = "https://app.asana.com/-/oauth_token"
	asanaIdentityURL = "https://app.asana.com/api/1.0/users/me"
)

func newAsana(cfg config.ProviderConfig) *Provider {
	return &Provider{
		Name:         models.PlatformAsana,
		Enabled:      cfg.Enabled,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       cfg.Scopes,
		AuthURL:      asanaAuthURL,
		TokenURL:     asanaTokenURL,
		IdentityURL:  asanaIdentityURL,
		Style:        ExchangeForm,
		Identity:     fetchAsanaIdentity,
	}
}

func fetchAsanaIdentity(ctx context.Context, client *http.Client, identityURL string, tok *models.ProviderToken) (*models.ProviderIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, identityURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("asana identity endpoint: %w: %v", domainErrors.ErrIdentityFetchFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("asana identity endpoint returned %s: %w", resp.Status, domainErrors.ErrIdentityFetchFailed)
	}

	var payload struct {
		Data struct {
			GID  string `json:"gid"`
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode asana identity response: %w", err)
	}
	if payload.Data.GID == "" {
		return nil, fmt.Errorf("asana identity response has no gid: %w", domainErrors.ErrIdentityFetchFailed)
	}
	return &models.ProviderIdentity{
		PlatformUserID:   payload.Data.GID,
		PlatformUsername: payload.Data.Name,
	}, nil
}
