package events

import (
	"context"
	"time"
)

// CloudEvent is the CloudEvents v1.0 envelope used on the wire.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         *string     `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            time.Time   `json:"time"`
	DataContentType *string     `json:"datacontenttype,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}

const (
	CloudEventSpecVersion     = "1.0"
	CloudEventDataContentType = "application/json"

	// TypeConnectionUpserted is emitted after every successful connection
	// upsert, whether the row was created or overwritten.
	TypeConnectionUpserted = "com.freedombydesign.connections.connection.upserted"
)

// ConnectionUpsertedEvent is the data payload for TypeConnectionUpserted.
// Tokens are deliberately absent.
type ConnectionUpsertedEvent struct {
	ConnectionID     string    `json:"connection_id"`
	Platform         string    `json:"platform"`
	PlatformUserID   string    `json:"platform_user_id"`
	PlatformUsername string    `json:"platform_username"`
	ConnectedAt      time.Time `json:"connected_at"`
}

// Publisher emits connection lifecycle events. Implementations must be safe
// to call with a nil receiver check upstream; publishing is always
// best-effort for the callback flow.
type Publisher interface {
	PublishConnectionUpserted(ctx context.Context, ev ConnectionUpsertedEvent) error
	Close() error
}
