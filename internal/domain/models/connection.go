package models

import (
	"time"

	"github.com/google/uuid"
)

// Platform names accepted by the connection flow.
const (
	PlatformAsana   = "asana"
	PlatformClickUp = "clickup"
	PlatformMonday  = "monday"
	PlatformNotion  = "notion"
)

// PlatformConnection is a stored link between the suite and an external
// identity on a SaaS platform. The pair (Platform, PlatformUserID) is unique:
// re-authenticating the same external identity overwrites the stored tokens
// instead of creating a second row.
type PlatformConnection struct {
	ID               uuid.UUID  `json:"id"`
	Platform         string     `json:"platform"`
	AccessToken      string     `json:"-"`
	RefreshToken     *string    `json:"-"`
	TokenType        string     `json:"token_type"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	PlatformUserID   string     `json:"platform_user_id"`
	PlatformUsername string     `json:"platform_username"`
	LastUsedAt       time.Time  `json:"last_used_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ProviderToken is the parsed token-endpoint response of a provider.
// Raw keeps the full decoded body: Notion delivers the authenticated identity
// inside the token response rather than via a separate endpoint.
type ProviderToken struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    *int64
	Raw          map[string]interface{}
}

// ProviderIdentity is the normalized "who am I" result for a platform.
type ProviderIdentity struct {
	PlatformUserID   string
	PlatformUsername string
}
