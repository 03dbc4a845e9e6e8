package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
)

// MinSigningSecretLength is the minimum length of the shared signing secret.
// The relay refuses to start with a shorter secret - a weak secret would let
// anyone mint bearer tokens and read other recipients' queues.
const MinSigningSecretLength = 32

// Environment variables with defaults
type ServerEnvironment struct {

	// http server settings
	Environment           string        `env:"ENVIRONMENT,default=dev"`
	Host                  string        `env:"HOST,default=0.0.0.0"`
	Port                  int           `env:"PORT,default=8080"`
	LogLevel              string        `env:"LOG_LEVEL,default=info"`
	ReadTimeout           time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout          time.Duration `env:"WRITE_TIMEOUT,default=15s"`
	IdleTimeout           time.Duration `env:"IDLE_TIMEOUT,default=60s"`
	RequestTimeout        time.Duration `env:"REQUEST_TIMEOUT,default=30s"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
	AllowedOrigins        []string      `env:"ALLOWED_ORIGINS,separator=|"`
	RateLimitRPS          int32         `env:"RATE_LIMIT_RPS,default=100"`
	RateLimitBurst        int32         `env:"RATE_LIMIT_BURST,default=200"`

	// MaxRequestBody caps the request body in bytes. The envelope ciphertext
	// plus request overhead must fit inside this limit.
	MaxRequestBody int64 `env:"MAX_REQUEST_BODY,default=262144"`

	// database settings
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS,default=4"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS,default=0"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME,default=60m"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME,default=30m"`
	DBConnectTimeout    time.Duration `env:"DB_CONNECT_TIMEOUT,default=5s"`
	DatabasePingTimeout time.Duration `env:"DATABASE_PING_TIMEOUT,default=10s"`

	// retention settings
	RetentionTTLDays int           `env:"RETENTION_TTL_DAYS,default=30"`
	SweepInterval    time.Duration `env:"SWEEP_INTERVAL,default=1h"`

	// poll settings
	DefaultPollLimit int32 `env:"DEFAULT_POLL_LIMIT,default=100"`
	MaxPollLimit     int32 `env:"MAX_POLL_LIMIT,default=500"`

	// Required configuration - must be set by environment variables
	//
	// RelaySigningSecret is shared with the identity service: the relay
	// accepts any bearer token with a valid HMAC signature over this secret.
	RelaySigningSecret string `env:"RELAY_SIGNING_SECRET,required=true"`
	DatabaseURL        string `env:"DATABASE_URL,required=true"`
}

var validEnvs = map[string]bool{
	"dev":     true,
	"test":    true,
	"prod":    true,
	"staging": true,
}

// RetentionTTL returns the retention window as a duration.
func (cfg *ServerEnvironment) RetentionTTL() time.Duration {
	return time.Duration(cfg.RetentionTTLDays) * 24 * time.Hour
}

// NewServerConfig loads environment variables and returns a ServerEnvironment struct that contains the values
func NewServerConfig() (*ServerEnvironment, error) {
	var cfg ServerEnvironment

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil

}

// validateConfig checks for required env variables
func validateConfig(cfg *ServerEnvironment) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if !validEnvs[cfg.Environment] {
		return fmt.Errorf("invalid ENVIRONMENT: %s", cfg.Environment)
	}

	if len(cfg.RelaySigningSecret) < MinSigningSecretLength {
		return fmt.Errorf("RELAY_SIGNING_SECRET must be at least %d characters", MinSigningSecretLength)
	}

	if cfg.MaxRequestBody < 1 {
		return fmt.Errorf("MAX_REQUEST_BODY must be at least 1 byte")
	}

	if cfg.RetentionTTLDays < 1 {
		return fmt.Errorf("RETENTION_TTL_DAYS must be at least 1")
	}

	if cfg.SweepInterval < time.Minute {
		return fmt.Errorf("SWEEP_INTERVAL must be at least 1m")
	}

	if cfg.DefaultPollLimit < 1 || cfg.MaxPollLimit < cfg.DefaultPollLimit {
		return fmt.Errorf("DEFAULT_POLL_LIMIT (%d) must be at least 1 and no greater than MAX_POLL_LIMIT (%d)",
			cfg.DefaultPollLimit, cfg.MaxPollLimit)
	}

	// Validate database pool configuration
	if cfg.DBMaxConnections < 1 {
		return fmt.Errorf("DB_MAX_CONNECTIONS must be at least 1")
	}
	if cfg.DBMinConnections < 0 {
		return fmt.Errorf("DB_MIN_CONNECTIONS must be 0 or greater")
	}
	if cfg.DBMinConnections > cfg.DBMaxConnections {
		return fmt.Errorf("DB_MIN_CONNECTIONS (%d) cannot be greater than DB_MAX_CONNECTIONS (%d)",
			cfg.DBMinConnections, cfg.DBMaxConnections)
	}

	return nil
}
