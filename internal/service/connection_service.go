package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	domainErrors "github.com/freedombydesign/connections-service/internal/domain/errors"
	"github.com/freedombydesign/connections-service/internal/domain/models"
	"github.com/freedombydesign/connections-service/internal/domain/repository"
	"github.com/freedombydesign/connections-service/internal/events"
	"github.com/freedombydesign/connections-service/internal/provider"
	"github.com/freedombydesign/connections-service/internal/utils/metrics"
)

// ConnectionService drives the platform connection flow: exchange the
// authorization code, resolve the external identity, upsert the connection
// row, and emit a lifecycle event.
type ConnectionService struct {
	registry   *provider.Registry
	repo       repository.ConnectionRepository
	publisher  events.Publisher
	httpClient *http.Client
	logger     *zap.Logger
}

// NewConnectionService wires the flow. publisher may be nil when events are
// disabled. httpClient should carry a timeout; outbound provider calls are
// otherwise unbounded.
func NewConnectionService(
	registry *provider.Registry,
	repo repository.ConnectionRepository,
	publisher events.Publisher,
	httpClient *http.Client,
	logger *zap.Logger,
) *ConnectionService {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &ConnectionService{
		registry:   registry,
		repo:       repo,
		publisher:  publisher,
		httpClient: httpClient,
		logger:     logger.Named("connection_service"),
	}
}

// Provider looks a platform up in the registry.
func (s *ConnectionService) Provider(name string) (*provider.Provider, bool) {
	return s.registry.Get(name)
}

// AuthorizationURL builds the provider authorization URL for an initiate
// request.
func (s *ConnectionService) AuthorizationURL(providerName, state string) (string, error) {
	p, ok := s.registry.Get(providerName)
	if !ok {
		return "", domainErrors.ErrProviderNotFound
	}
	if !p.Enabled {
		return "", domainErrors.ErrProviderDisabled
	}
	if p.ClientID == "" {
		return "", domainErrors.ErrMissingClientID
	}
	return p.AuthCodeURL(state), nil
}

// Connect exchanges the code, resolves the identity, and upserts the
// connection. It returns domain errors.ErrNoAccessToken, unwrapped, when the
// provider answered without a token; the caller finishes the flow as a
// success without anything persisted.
func (s *ConnectionService) Connect(ctx context.Context, providerName, code string) (*models.PlatformConnection, error) {
	p, ok := s.registry.Get(providerName)
	if !ok {
		return nil, domainErrors.ErrProviderNotFound
	}

	start := time.Now()
	tok, err := p.Exchange(ctx, s.httpClient, code)
	metrics.ExchangeDuration.WithLabelValues(p.Name).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	identity, err := p.FetchIdentity(ctx, s.httpClient, tok)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	conn := &models.PlatformConnection{
		Platform:         p.Name,
		AccessToken:      tok.AccessToken,
		TokenType:        tok.TokenType,
		PlatformUserID:   identity.PlatformUserID,
		PlatformUsername: identity.PlatformUsername,
		LastUsedAt:       now,
	}
	if tok.RefreshToken != "" {
		rt := tok.RefreshToken
		conn.RefreshToken = &rt
	}
	if tok.ExpiresIn != nil {
		expiresAt := now.Add(time.Duration(*tok.ExpiresIn) * time.Second)
		conn.ExpiresAt = &expiresAt
	}

	if err := s.repo.Upsert(ctx, conn); err != nil {
		return nil, fmt.Errorf("persist %s connection: %w", p.Name, err)
	}

	s.publishUpserted(ctx, conn)

	s.logger.Info("Platform connection upserted",
		zap.String("platform", conn.Platform),
		zap.String("platform_user_id", conn.PlatformUserID),
		zap.String("platform_username", conn.PlatformUsername),
	)
	return conn, nil
}

// List returns all stored connections.
func (s *ConnectionService) List(ctx context.Context) ([]*models.PlatformConnection, error) {
	return s.repo.List(ctx)
}

// Disconnect removes a stored connection.
func (s *ConnectionService) Disconnect(ctx context.Context, platform, platformUserID string) error {
	return s.repo.Delete(ctx, platform, platformUserID)
}

// publishUpserted emits the lifecycle event. Failures are logged and never
// affect the flow outcome.
func (s *ConnectionService) publishUpserted(ctx context.Context, conn *models.PlatformConnection) {
	if s.publisher == nil {
		return
	}
	ev := events.ConnectionUpsertedEvent{
		ConnectionID:     conn.ID.String(),
		Platform:         conn.Platform,
		PlatformUserID:   conn.PlatformUserID,
		PlatformUsername: conn.PlatformUsername,
		ConnectedAt:      conn.LastUsedAt,
	}
	if err := s.publisher.PublishConnectionUpserted(ctx, ev); err != nil {
		s.logger.Warn("Failed to publish connection event",
			zap.String("platform", conn.Platform),
			zap.Error(err),
		)
	}
}
