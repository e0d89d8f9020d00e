package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/freedombydesign/connections-service/internal/domain/errors"
	"github.com/freedombydesign/connections-service/internal/domain/models"
	"github.com/freedombydesign/connections-service/internal/domain/repository"
)

// ConnectionRepositoryPostgres implements repository.ConnectionRepository for PostgreSQL.
type ConnectionRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewConnectionRepositoryPostgres creates a new instance.
func NewConnectionRepositoryPostgres(pool *pgxpool.Pool) *ConnectionRepositoryPostgres {
	return &ConnectionRepositoryPostgres{pool: pool}
}

// Upsert persists a connection with insert-or-overwrite semantics on the
// (platform, platform_user_id) uniqueness constraint.
func (r *ConnectionRepositoryPostgres) Upsert(ctx context.Context, conn *models.PlatformConnection) error {
	if conn.ID == uuid.Nil {
		conn.ID = uuid.New()
	}
	query := `
		INSERT INTO platform_connections (id, platform, access_token, refresh_token, token_type,
		                                  expires_at, platform_user_id, platform_username, last_used_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (platform, platform_user_id) DO UPDATE SET
			access_token      = EXCLUDED.access_token,
			refresh_token     = EXCLUDED.refresh_token,
			token_type        = EXCLUDED.token_type,
			expires_at        = EXCLUDED.expires_at,
			platform_username = EXCLUDED.platform_username,
			last_used_at      = EXCLUDED.last_used_at,
			updated_at        = now()
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		conn.ID, conn.Platform, conn.AccessToken, conn.RefreshToken, conn.TokenType,
		conn.ExpiresAt, conn.PlatformUserID, conn.PlatformUsername, conn.LastUsedAt,
	).Scan(&conn.ID, &conn.CreatedAt, &conn.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23514" { // check_violation
			return fmt.Errorf("connection row rejected by constraint %s: %w", pgErr.ConstraintName, domainErrors.ErrInternal)
		}
		return fmt.Errorf("failed to upsert platform connection: %w", err)
	}
	return nil
}

// FindByPlatformAndUserID retrieves a connection by its natural key.
func (r *ConnectionRepositoryPostgres) FindByPlatformAndUserID(ctx context.Context, platform, platformUserID string) (*models.PlatformConnection, error) {
	query := `
		SELECT id, platform, access_token, refresh_token, token_type, expires_at,
		       platform_user_id, platform_username, last_used_at, created_at, updated_at
		FROM platform_connections
		WHERE platform = $1 AND platform_user_id = $2
	`
	conn := &models.PlatformConnection{}
	err := r.pool.QueryRow(ctx, query, platform, platformUserID).Scan(
		&conn.ID, &conn.Platform, &conn.AccessToken, &conn.RefreshToken, &conn.TokenType, &conn.ExpiresAt,
		&conn.PlatformUserID, &conn.PlatformUsername, &conn.LastUsedAt, &conn.CreatedAt, &conn.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find platform connection: %w", err)
	}
	return conn, nil
}

// List retrieves all stored connections.
func (r *ConnectionRepositoryPostgres) List(ctx context.Context) ([]*models.PlatformConnection, error) {
	query := `
		SELECT id, platform, access_token, refresh_token, token_type, expires_at,
		       platform_user_id, platform_username, last_used_at, created_at, updated_at
		FROM platform_connections
		ORDER BY platform, platform_username
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list platform connections: %w", err)
	}
	defer rows.Close()

	var conns []*models.PlatformConnection
	for rows.Next() {
		conn := &models.PlatformConnection{}
		errScan := rows.Scan(
			&conn.ID, &conn.Platform, &conn.AccessToken, &conn.RefreshToken, &conn.TokenType, &conn.ExpiresAt,
			&conn.PlatformUserID, &conn.PlatformUsername, &conn.LastUsedAt, &conn.CreatedAt, &conn.UpdatedAt,
		)
		if errScan != nil {
			return nil, fmt.Errorf("failed to scan platform connection row: %w", errScan)
		}
		conns = append(conns, conn)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating platform connection rows: %w", err)
	}
	return conns, nil
}

// Delete removes a connection by its natural key.
func (r *ConnectionRepositoryPostgres) Delete(ctx context.Context, platform, platformUserID string) error {
	query := `DELETE FROM platform_connections WHERE platform = $1 AND platform_user_id = $2`
	result, err := r.pool.Exec(ctx, query, platform, platformUserID)
	if err != nil {
		return fmt.Errorf("failed to delete platform connection: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

var _ repository.ConnectionRepository = (*ConnectionRepositoryPostgres)(nil)
