package repository

import (
	"context"

	"github.com/freedombydesign/connections-service/internal/domain/models"
)

// ConnectionRepository persists platform connections.
type ConnectionRepository interface {
	// Upsert inserts the connection, or overwrites the token columns and
	// last_used_at when a row for (platform, platform_user_id) already exists.
	Upsert(ctx context.Context, conn *models.PlatformConnection) error

	// FindByPlatformAndUserID returns the connection for the natural key,
	// or domain errors.ErrNotFound.
	FindByPlatformAndUserID(ctx context.Context, platform, platformUserID string) (*models.PlatformConnection, error)

	// List returns all stored connections ordered by platform then username.
	List(ctx context.Context) ([]*models.PlatformConnection, error)

	// Delete removes the connection for the natural key. Returns
	// domain errors.ErrNotFound when no row matched.
	Delete(ctx context.Context, platform, platformUserID string) error
}
