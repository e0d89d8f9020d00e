package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/freedombydesign/connections-service/internal/config"
	domainErrors "github.com/freedombydesign/connections-service/internal/domain/errors"
	"github.com/freedombydesign/connections-service/internal/service"
	"github.com/freedombydesign/connections-service/internal/utils/metrics"
)

const oauthStateCookieName = "oauth_state"

// ConnectionHandler exposes the platform connection flow over HTTP. Every
// callback invocation ends in exactly one redirect back to the application;
// provider and storage errors surface only as machine-readable reason codes
// in the redirect URL, with details kept in the server log.
type ConnectionHandler struct {
	connections *service.ConnectionService
	cfg         *config.Config
	logger      *zap.Logger
}

func NewConnectionHandler(connections *service.ConnectionService, cfg *config.Config, logger *zap.Logger) *ConnectionHandler {
	return &ConnectionHandler{
		connections: connections,
		cfg:         cfg,
		logger:      logger.Named("connection_handler"),
	}
}

// Initiate starts the OAuth flow for a platform.
// GET /api/v1/connections/:provider
func (h *ConnectionHandler) Initiate(c *gin.Context) {
	providerName := c.Param("provider")

	state := uuid.NewString()
	authURL, err := h.connections.AuthorizationURL(providerName, state)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrProviderNotFound):
			RespondWithError(c, http.StatusNotFound, fmt.Sprintf("unknown platform %q", providerName), "provider_not_found", h.logger)
		case errors.Is(err, domainErrors.ErrProviderDisabled):
			h.redirectError(c, providerName, providerName+"_coming_soon", "disabled")
		case errors.Is(err, domainErrors.ErrMissingClientID):
			h.redirectError(c, providerName, "missing_"+providerName+"_client_id", "missing_client_id")
		default:
			RespondWithError(c, http.StatusInternalServerError, "could not initiate OAuth flow", "internal_error", h.logger)
		}
		return
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    h.signState(state),
		Path:     "/",
		Expires:  time.Now().Add(h.cfg.OAuth.StateCookieTTL),
		HttpOnly: true,
		Secure:   c.Request.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// Callback handles the provider redirect carrying `code` or `error`.
// GET /api/v1/connections/:provider/callback
func (h *ConnectionHandler) Callback(c *gin.Context) {
	providerName := c.Param("provider")
	p, ok := h.connections.Provider(providerName)
	if !ok {
		RespondWithError(c, http.StatusNotFound, fmt.Sprintf("unknown platform %q", providerName), "provider_not_found", h.logger)
		return
	}

	// Provider-reported rejection: no outbound calls, straight back to the app.
	if providerErr := c.Query("error"); providerErr != "" {
		h.logger.Warn("Provider reported OAuth error",
			zap.String("platform", providerName),
			zap.String("provider_error", providerErr),
		)
		h.redirectError(c, providerName, providerName+"_oauth_error", "provider_error")
		return
	}

	if !p.Enabled {
		h.redirectError(c, providerName, providerName+"_coming_soon", "disabled")
		return
	}
	if p.ClientID == "" {
		h.redirectError(c, providerName, "missing_"+providerName+"_client_id", "missing_client_id")
		return
	}

	code := c.Query("code")
	if code == "" {
		h.redirectError(c, providerName, providerName+"_no_code", "no_code")
		return
	}

	// State validation is best-effort: flows initiated by the frontend reach
	// this callback without our cookie and are accepted.
	if !h.verifyState(c) {
		h.logger.Warn("OAuth state mismatch", zap.String("platform", providerName))
		h.redirectError(c, providerName, providerName+"_callback_failed", "failed")
		return
	}

	conn, err := h.connections.Connect(c.Request.Context(), providerName, code)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNoAccessToken) {
			// Token endpoint answered without a token: nothing to store, but
			// the user still lands on the success page.
			h.logger.Warn("Token response had no access token, nothing persisted",
				zap.String("platform", providerName),
			)
			h.redirectSuccess(c, providerName, "no_token")
			return
		}
		h.logger.Error("Connection callback failed",
			zap.String("platform", providerName),
			zap.Error(err),
		)
		h.redirectError(c, providerName, providerName+"_callback_failed", "failed")
		return
	}

	h.logger.Info("Platform connected",
		zap.String("platform", conn.Platform),
		zap.String("platform_user_id", conn.PlatformUserID),
	)
	h.redirectSuccess(c, providerName, "success")
}

// List returns all stored connections.
// GET /api/v1/connections
func (h *ConnectionHandler) List(c *gin.Context) {
	conns, err := h.connections.List(c.Request.Context())
	if err != nil {
		RespondWithError(c, http.StatusInternalServerError, "failed to list connections", "internal_error", h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, conns)
}

// Disconnect removes a stored connection.
// DELETE /api/v1/connections/:provider/:platform_user_id
func (h *ConnectionHandler) Disconnect(c *gin.Context) {
	platform := c.Param("provider")
	platformUserID := c.Param("platform_user_id")

	err := h.connections.Disconnect(c.Request.Context(), platform, platformUserID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			RespondWithError(c, http.StatusNotFound, "connection not found", "not_found", h.logger)
			return
		}
		RespondWithError(c, http.StatusInternalServerError, "failed to delete connection", "internal_error", h.logger)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ConnectionHandler) redirectSuccess(c *gin.Context, providerName, outcome string) {
	metrics.CallbacksTotal.WithLabelValues(providerName, outcome).Inc()
	target := fmt.Sprintf("%s?connected=%s&success=true", h.cfg.App.RedirectURL(), url.QueryEscape(providerName))
	c.Redirect(http.StatusTemporaryRedirect, target)
}

func (h *ConnectionHandler) redirectError(c *gin.Context, providerName, reasonCode, outcome string) {
	metrics.CallbacksTotal.WithLabelValues(providerName, outcome).Inc()
	target := fmt.Sprintf("%s?error=%s", h.cfg.App.RedirectURL(), url.QueryEscape(reasonCode))
	c.Redirect(http.StatusTemporaryRedirect, target)
}

// signState produces "<hex hmac>:<state>" for the state cookie.
func (h *ConnectionHandler) signState(state string) string {
	mac := hmac.New(sha256.New, []byte(h.cfg.OAuth.StateSecret))
	mac.Write([]byte(state))
	return hex.EncodeToString(mac.Sum(nil)) + ":" + state
}

// verifyState checks the state query parameter against the signed cookie when
// the cookie is present, and clears the cookie either way. A missing cookie
// passes: the flow may have been initiated outside this service.
func (h *ConnectionHandler) verifyState(c *gin.Context) bool {
	stateCookie, err := c.Request.Cookie(oauthStateCookieName)
	if err != nil {
		return true
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.Request.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	parts := strings.SplitN(stateCookie.Value, ":", 2)
	if len(parts) != 2 {
		return false
	}
	expectedMAC, originalState := parts[0], parts[1]

	mac := hmac.New(sha256.New, []byte(h.cfg.OAuth.StateSecret))
	mac.Write([]byte(originalState))
	if !hmac.Equal([]byte(hex.EncodeToString(mac.Sum(nil))), []byte(expectedMAC)) {
		return false
	}
	return originalState == c.Query("state")
}
