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
	clickupAuthURL     = "https://app.clickup.com/api"
	clickupTokenURL    = "https://api.clickup.com/api/v2/oauth/token"
	clickupIdentityURL = "https://api.clickup.com/api/v2/user"
)

func newClickUp(cfg config.ProviderConfig) *Provider {
	return &Provider{
		Name:         models.PlatformClickUp,
		Enabled:      cfg.Enabled,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       cfg.Scopes,
		AuthURL:      clickupAuthURL,
		TokenURL:     clickupTokenURL,
		IdentityURL:  clickupIdentityURL,
		Style:        ExchangeForm,
		Identity:     fetchClickUpIdentity,
	}
}

func fetchClickUpIdentity(ctx context.Context, client *http.Client, identityURL string, tok *models.ProviderToken) (*models.ProviderIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, identityURL, nil)
	if err != nil {
		return nil, err
	}
	// ClickUp expects the raw token in the Authorization header, without a
	// Bearer prefix.
	req.Header.Set("Authorization", tok.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("clickup identity endpoint: %w: %v", domainErrors.ErrIdentityFetchFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("clickup identity endpoint returned %s: %w", resp.Status, domainErrors.ErrIdentityFetchFailed)
	}

	var payload struct {
		User struct {
			ID       json.Number `json:"id"`
			Username string      `json:"username"`
		} `json:"user"`
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode clickup identity response: %w", err)
	}
	// user.id is a JSON number; the stored key is its string form.
	id := payload.User.ID.String()
	if id == "" {
		return nil, fmt.Errorf("clickup identity response has no user id: %w", domainErrors.ErrIdentityFetchFailed)
	}
	return &models.ProviderIdentity{
		PlatformUserID:   id,
		PlatformUsername: payload.User.Username,
	}, nil
}
