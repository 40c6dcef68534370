// Package config loads application configuration from environment
// variables, applies defaults, and validates everything eagerly so
// misconfiguration fails at startup rather than mid-run.
package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Pipeline PipelineConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout bounds request body reads (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout bounds response writes (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	// URL is the Postgres connection string (required)
	URL string `env:"DATABASE_URL" required:"true"`

	// MaxConns is the pool's maximum connection count (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the pool's minimum connection count (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime caps a connection's lifetime (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime closes idle connections (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// PipelineConfig holds scrape-and-ingest settings.
type PipelineConfig struct {
	// RulesPath is the validation rule document (default: config/validation_rules.json)
	RulesPath string `env:"PIPELINE_RULES_PATH" default:"config/validation_rules.json"`

	// ListingURL is the regulatory listing to scrape (required)
	ListingURL string `env:"PIPELINE_LISTING_URL" required:"true"`

	// SiteOrigin absolutizes relative document links
	SiteOrigin string `env:"PIPELINE_SITE_ORIGIN" default:"https://www.ani.gov.co"`

	// Entity is the source discriminator stored with every record
	Entity string `env:"PIPELINE_ENTITY" default:"Agencia Nacional de Infraestructura"`

	// ComponentID is the fixed component every inserted record links to (default: 7)
	ComponentID int64 `env:"PIPELINE_COMPONENT_ID" default:"7"`

	// ClassificationID is stamped on every extracted record (default: 13)
	ClassificationID int64 `env:"PIPELINE_CLASSIFICATION_ID" default:"13"`

	// PagesDefault is the page count when a run does not specify one (default: 1)
	PagesDefault int `env:"PIPELINE_PAGES_DEFAULT" default:"1"`

	// PagesMax caps the page count a run may request (default: 25)
	PagesMax int `env:"PIPELINE_PAGES_MAX" default:"25"`

	// HTTPTimeout bounds each listing page fetch (default: 15s)
	HTTPTimeout time.Duration `env:"PIPELINE_HTTP_TIMEOUT" default:"15s"`

	// RunTimeout bounds one whole pipeline run (default: 10m)
	RunTimeout time.Duration `env:"PIPELINE_RUN_TIMEOUT" default:"10m"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port form.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts a non-negative int to string without strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	return string(b[n:])
}
