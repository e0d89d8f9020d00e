package postgres_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	domainErrors "github.com/freedombydesign/connections-service/internal/domain/errors"
	"github.com/freedombydesign/connections-service/internal/domain/models"
	"github.com/freedombydesign/connections-service/internal/domain/repository/postgres"
)

const (
	testPostgresDSNEnv    = "TEST_CONNECTIONS_POSTGRES_DSN"
	defaultMigrationsPath = "file://../../../../migrations"
)

type ConnectionRepositoryTestSuite struct {
	suite.Suite
	pool       *pgxpool.Pool
	repo       *postgres.ConnectionRepositoryPostgres
	migrations *migrate.Migrate
}

func TestConnectionRepositoryTestSuite(t *testing.T) {
	dsn := os.Getenv(testPostgresDSNEnv)
	if dsn == "" {
		t.Skipf("Skipping repository tests: %s not set", testPostgresDSNEnv)
	}

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = defaultMigrationsPath
	}
	if !strings.HasPrefix(migrationsPath, "file://") {
		migrationsPath = "file://" + migrationsPath
	}

	m, err := migrate.New(migrationsPath, dsn)
	if err != nil {
		t.Fatalf("Failed to create migration instance (path: %s): %v", migrationsPath, err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	suite.Run(t, &ConnectionRepositoryTestSuite{pool: pool, migrations: m})
}

func (s *ConnectionRepositoryTestSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.migrations != nil {
		if err := s.migrations.Down(); err != nil && err != migrate.ErrNoChange {
			s.T().Logf("Warning: failed to rollback migrations: %v", err)
		}
	}
}

func (s *ConnectionRepositoryTestSuite) SetupTest() {
	s.repo = postgres.NewConnectionRepositoryPostgres(s.pool)
	_, err := s.pool.Exec(context.Background(), `TRUNCATE TABLE platform_connections`)
	require.NoError(s.T(), err, "Failed to clean table before test")
}

func (s *ConnectionRepositoryTestSuite) helperConnection(platform, userID string) *models.PlatformConnection {
	refresh := "refresh-" + userID
	expires := time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond)
	return &models.PlatformConnection{
		Platform:         platform,
		AccessToken:      "access-" + userID,
		RefreshToken:     &refresh,
		TokenType:        "Bearer",
		ExpiresAt:        &expires,
		PlatformUserID:   userID,
		PlatformUsername: "User " + userID,
		LastUsedAt:       time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *ConnectionRepositoryTestSuite) TestUpsertAndFind() {
	ctx := context.Background()
	conn := s.helperConnection(models.PlatformAsana, "120001")

	err := s.repo.Upsert(ctx, conn)
	require.NoError(s.T(), err)
	assert.NotEqual(s.T(), "00000000-0000-0000-0000-000000000000", conn.ID.String())
	assert.False(s.T(), conn.CreatedAt.IsZero())

	found, err := s.repo.FindByPlatformAndUserID(ctx, models.PlatformAsana, "120001")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), conn.ID, found.ID)
	assert.Equal(s.T(), "access-120001", found.AccessToken)
	require.NotNil(s.T(), found.RefreshToken)
	assert.Equal(s.T(), "refresh-120001", *found.RefreshToken)
	require.NotNil(s.T(), found.ExpiresAt)
	assert.WithinDuration(s.T(), *conn.ExpiresAt, *found.ExpiresAt, time.Second)
	assert.Equal(s.T(), "User 120001", found.PlatformUsername)
}

func (s *ConnectionRepositoryTestSuite) TestUpsertOverwritesOnNaturalKey() {
	ctx := context.Background()

	first := s.helperConnection(models.PlatformClickUp, "81936412")
	require.NoError(s.T(), s.repo.Upsert(ctx, first))

	second := s.helperConnection(models.PlatformClickUp, "81936412")
	second.AccessToken = "rotated-token"
	second.RefreshToken = nil
	second.ExpiresAt = nil
	require.NoError(s.T(), s.repo.Upsert(ctx, second))

	// Same row, new credentials.
	assert.Equal(s.T(), first.ID, second.ID)

	found, err := s.repo.FindByPlatformAndUserID(ctx, models.PlatformClickUp, "81936412")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "rotated-token", found.AccessToken)
	assert.Nil(s.T(), found.RefreshToken)
	assert.Nil(s.T(), found.ExpiresAt)
	assert.True(s.T(), found.UpdatedAt.After(found.CreatedAt) || found.UpdatedAt.Equal(found.CreatedAt))

	all, err := s.repo.List(ctx)
	require.NoError(s.T(), err)
	assert.Len(s.T(), all, 1)
}

func (s *ConnectionRepositoryTestSuite) TestSameUserIDOnDifferentPlatforms() {
	ctx := context.Background()

	require.NoError(s.T(), s.repo.Upsert(ctx, s.helperConnection(models.PlatformAsana, "42")))
	require.NoError(s.T(), s.repo.Upsert(ctx, s.helperConnection(models.PlatformMonday, "42")))

	all, err := s.repo.List(ctx)
	require.NoError(s.T(), err)
	assert.Len(s.T(), all, 2)
}

func (s *ConnectionRepositoryTestSuite) TestFindNotFound() {
	_, err := s.repo.FindByPlatformAndUserID(context.Background(), models.PlatformNotion, "missing")
	assert.ErrorIs(s.T(), err, domainErrors.ErrNotFound)
}

func (s *ConnectionRepositoryTestSuite) TestDelete() {
	ctx := context.Background()
	conn := s.helperConnection(models.PlatformAsana, "120001")
	require.NoError(s.T(), s.repo.Upsert(ctx, conn))

	require.NoError(s.T(), s.repo.Delete(ctx, models.PlatformAsana, "120001"))

	_, err := s.repo.FindByPlatformAndUserID(ctx, models.PlatformAsana, "120001")
	assert.ErrorIs(s.T(), err, domainErrors.ErrNotFound)

	err = s.repo.Delete(ctx, models.PlatformAsana, "120001")
	assert.ErrorIs(s.T(), err, domainErrors.ErrNotFound)
}

func (s *ConnectionRepositoryTestSuite) TestListOrdering() {
	ctx := context.Background()

	monday := s.helperConnection(models.PlatformMonday, "1")
	asana := s.helperConnection(models.PlatformAsana, "2")
	require.NoError(s.T(), s.repo.Upsert(ctx, monday))
	require.NoError(s.T(), s.repo.Upsert(ctx, asana))

	all, err := s.repo.List(ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), all, 2)
	assert.Equal(s.T(), models.PlatformAsana, all[0].Platform)
	assert.Equal(s.T(), models.PlatformMonday, all[1].Platform)
}
