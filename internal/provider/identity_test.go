package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/freedombydesign/connections-service/internal/domain/errors"
	"github.com/freedombydesign/connections-service/internal/domain/models"
)

func bearerToken() *models.ProviderToken {
	return &models.ProviderToken{AccessToken: "tok-abc", TokenType: "Bearer"}
}

func TestFetchAsanaIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-abc", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"gid": "120001", "name": "Jordan Miles"},
		})
	}))
	defer srv.Close()

	id, err := fetchAsanaIdentity(context.Background(), srv.Client(), srv.URL, bearerToken())
	require.NoError(t, err)
	assert.Equal(t, "120001", id.PlatformUserID)
	assert.Equal(t, "Jordan Miles", id.PlatformUsername)
}

func TestFetchClickUpIdentity_RawHeaderAndNumericID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// ClickUp takes the token without a Bearer prefix.
		assert.Equal(t, "tok-abc", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"user": map[string]interface{}{"id": 81936412, "username": "sam.ops"},
		})
	}))
	defer srv.Close()

	id, err := fetchClickUpIdentity(context.Background(), srv.Client(), srv.URL, bearerToken())
	require.NoError(t, err)
	assert.Equal(t, "81936412", id.PlatformUserID)
	assert.Equal(t, "sam.ops", id.PlatformUsername)
}

func TestFetchMondayIdentity_GraphQL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "tok-abc", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body["query"], "me { id name")

		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"me": map[string]interface{}{"id": 4455321, "name": "Dana Reyes"},
			},
		})
	}))
	defer srv.Close()

	id, err := fetchMondayIdentity(context.Background(), srv.Client(), srv.URL, bearerToken())
	require.NoError(t, err)
	assert.Equal(t, "4455321", id.PlatformUserID)
	assert.Equal(t, "Dana Reyes", id.PlatformUsername)
}

func TestFetchMondayIdentity_StringID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"me": map[string]interface{}{"id": "4455321", "name": "Dana Reyes"},
			},
		})
	}))
	defer srv.Close()

	id, err := fetchMondayIdentity(context.Background(), srv.Client(), srv.URL, bearerToken())
	require.NoError(t, err)
	assert.Equal(t, "4455321", id.PlatformUserID)
}

func TestExtractNotionIdentity_FromOwner(t *testing.T) {
	tok := &models.ProviderToken{
		AccessToken: "tok",
		Raw: map[string]interface{}{
			"bot_id":         "bot-9",
			"workspace_name": "Acme",
			"owner": map[string]interface{}{
				"user": map[string]interface{}{"id": "user-7", "name": "Riley Chen"},
			},
		},
	}
	id, err := extractNotionIdentity(context.Background(), nil, "", tok)
	require.NoError(t, err)
	assert.Equal(t, "user-7", id.PlatformUserID)
	assert.Equal(t, "Riley Chen", id.PlatformUsername)
}

func TestExtractNotionIdentity_WorkspaceFallback(t *testing.T) {
	tok := &models.ProviderToken{
		AccessToken: "tok",
		Raw: map[string]interface{}{
			"bot_id":         "bot-9",
			"workspace_name": "Acme",
		},
	}
	id, err := extractNotionIdentity(context.Background(), nil, "", tok)
	require.NoError(t, err)
	assert.Equal(t, "bot-9", id.PlatformUserID)
	assert.Equal(t, "Acme", id.PlatformUsername)
}

func TestExtractNotionIdentity_LiteralFallbackUsername(t *testing.T) {
	tok := &models.ProviderToken{
		AccessToken: "tok",
		Raw:         map[string]interface{}{"bot_id": "bot-9"},
	}
	id, err := extractNotionIdentity(context.Background(), nil, "", tok)
	require.NoError(t, err)
	assert.Equal(t, "Notion User", id.PlatformUsername)
}

func TestExtractNotionIdentity_NoIdentifiers(t *testing.T) {
	tok := &models.ProviderToken{AccessToken: "tok", Raw: map[string]interface{}{}}
	_, err := extractNotionIdentity(context.Background(), nil, "", tok)
	assert.ErrorIs(t, err, domainErrors.ErrIdentityFetchFailed)
}

func TestFetchAsanaIdentity_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := fetchAsanaIdentity(context.Background(), srv.Client(), srv.URL, bearerToken())
	assert.ErrorIs(t, err, domainErrors.ErrIdentityFetchFailed)
}
