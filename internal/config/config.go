package config

import (
	"fmt"
	"time"
)

type Config struct {
	Server    ServerConfig              `mapstructure:"server"`
	Database  DatabaseConfig            `mapstructure:"database"`
	Kafka     KafkaConfig               `mapstructure:"kafka"`
	Logging   LoggingConfig             `mapstructure:"logging"`
	Telemetry TelemetryConfig           `mapstructure:"telemetry"`
	App       AppConfig                 `mapstructure:"app"`
	OAuth     OAuthConfig               `mapstructure:"oauth"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// DSN builds a postgres connection string for pgxpool and golang-migrate.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type TelemetryConfig struct {
	ServiceName string        `mapstructure:"service_name"`
	Metrics     MetricsConfig `mapstructure:"metrics"`
}

// AppConfig describes where callback results are sent back to.
type AppConfig struct {
	// BaseURL is the application origin, e.g. https://suite.freedombydesign.com.
	BaseURL string `mapstructure:"base_url"`
	// RedirectPath is the page that renders connection status.
	RedirectPath string `mapstructure:"redirect_path"`
}

// RedirectURL returns the absolute redirect target for callback outcomes.
func (a AppConfig) RedirectURL() string {
	return a.BaseURL + a.RedirectPath
}

type OAuthConfig struct {
	StateSecret    string        `mapstructure:"state_secret"`
	StateCookieTTL time.Duration `mapstructure:"state_cookie_ttl"`
	// RequestTimeout bounds each outbound call to a provider. A hung token
	// endpoint fails the callback instead of holding the request open.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type ProviderConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	RedirectURL  string   `mapstructure:"redirect_url"`
	Scopes       []string `mapstructure:"scopes"`
}
