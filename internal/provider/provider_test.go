package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freedombydesign/connections-service/internal/config"
	"github.com/freedombydesign/connections-service/internal/domain/models"
)

func TestNewRegistry_AllPlatforms(t *testing.T) {
	reg := NewRegistry(map[string]config.ProviderConfig{
		models.PlatformAsana:  {Enabled: true, ClientID: "a"},
		models.PlatformNotion: {Enabled: false},
	})

	assert.Equal(t, []string{"asana", "clickup", "monday", "notion"}, reg.Names())

	asana, ok := reg.Get("asana")
	require.True(t, ok)
	assert.True(t, asana.Enabled)
	assert.Equal(t, "a", asana.ClientID)
	assert.Equal(t, ExchangeForm, asana.Style)

	notion, ok := reg.Get("notion")
	require.True(t, ok)
	assert.False(t, notion.Enabled)
	assert.Equal(t, ExchangeJSONBasic, notion.Style)

	_, ok = reg.Get("jira")
	assert.False(t, ok)
}

func TestAuthCodeURL_NotionOwnerParam(t *testing.T) {
	reg := NewRegistry(map[string]config.ProviderConfig{
		models.PlatformNotion: {
			Enabled:     true,
			ClientID:    "notion-client",
			RedirectURL: "https://svc.example.com/api/v1/connections/notion/callback",
		},
	})
	notion, ok := reg.Get("notion")
	require.True(t, ok)

	u := notion.AuthCodeURL("state-1")
	assert.Contains(t, u, notionAuthURL)
	assert.Contains(t, u, "client_id=notion-client")
	assert.Contains(t, u, "state=state-1")
	assert.Contains(t, u, "owner=user")
	assert.Contains(t, u, "response_type=code")
}

func TestStringifyID(t *testing.T) {
	assert.Equal(t, "42", stringifyID("42"))
	assert.Equal(t, "42", stringifyID(float64(42)))
	assert.Equal(t, "", stringifyID(nil))
	assert.Equal(t, "", stringifyID(map[string]interface{}{}))
}
