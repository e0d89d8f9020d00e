package errors

import "errors"

var (
	// Generic errors.
	ErrInternal = errors.New("internal server error")
	ErrNotFound = errors.New("resource not found")

	// Provider lookup and configuration errors.
	ErrProviderNotFound = errors.New("oauth provider not found")
	ErrProviderDisabled = errors.New("oauth provider is not enabled")
	ErrMissingClientID  = errors.New("oauth provider client id is not configured")

	// Connection flow errors.
	ErrNoAccessToken       = errors.New("token response contained no access token")
	ErrExchangeFailed      = errors.New("failed to exchange authorization code")
	ErrIdentityFetchFailed = errors.New("failed to fetch identity from provider")
)
