package provider

import (
	"context"
	"fmt"
	"net/http"

	"github.com/freedombydesign/connections-service/internal/config"
	domainErrors "github.com/freedombydesign/connections-service/internal/domain/errors"
	"github.com/freedombydesign/connections-service/internal/domain/models"
)

const (
	notionAuthURL  = "https://api.notion.com/v1/oauth/authorize"
	notionTokenURL = "https://api.notion.com/v1/oauth/token"

	// notionFallbackUsername is stored when the token response carries
	// neither an owner name nor a workspace name.
	notionFallbackUsername = "Notion User"
)

func newNotion(cfg config.ProviderConfig) *Provider {
	return &Provider{
		Name:            models.PlatformNotion,
		Enabled:         cfg.Enabled,
		ClientID:        cfg.ClientID,
		ClientSecret:    cfg.ClientSecret,
		RedirectURL:     cfg.RedirectURL,
		Scopes:          cfg.Scopes,
		AuthURL:         notionAuthURL,
		TokenURL:        notionTokenURL,
		Style:           ExchangeJSONBasic,
		ExtraAuthParams: map[string]string{"owner": "user"},
		Identity:        extractNotionIdentity,
	}
}

// extractNotionIdentity reads the identity out of the token response itself;
// Notion has no separate "who am I" call in this flow.
func extractNotionIdentity(_ context.Context, _ *http.Client, _ string, tok *models.ProviderToken) (*models.ProviderIdentity, error) {
	id := lookupString(tok.Raw, "owner", "user", "id")
	if id == "" {
		id = lookupString(tok.Raw, "bot_id")
	}
	if id == "" {
		return nil, fmt.Errorf("notion token response has no owner.user.id or bot_id: %w", domainErrors.ErrIdentityFetchFailed)
	}

	name := lookupString(tok.Raw, "owner", "user", "name")
	if name == "" {
		name = lookupString(tok.Raw, "workspace_name")
	}
	if name == "" {
		name = notionFallbackUsername
	}

	return &models.ProviderIdentity{
		PlatformUserID:   id,
		PlatformUsername: name,
	}, nil
}
