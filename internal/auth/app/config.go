package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/chefstream/auth/internal/auth/idp"
	"github.com/chefstream/auth/pkg/jwtx"
	"github.com/spf13/viper"
)

// Supported DATABASE_DRIVER values.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	SecretKey         string        `mapstructure:"AUTH_SECRET_KEY"`          // Required: HS256 key, at least 32 bytes
	Issuer            string        `mapstructure:"AUTH_ISSUER"`              // iss claim (default: chefstream-auth)
	AccessTokenTTL    time.Duration `mapstructure:"AUTH_ACCESS_TOKEN_TTL"`    // default: 30m
	ChallengeTokenTTL time.Duration `mapstructure:"AUTH_CHALLENGE_TOKEN_TTL"` // default: 5m
	TOTPIssuer        string        `mapstructure:"AUTH_TOTP_ISSUER"`         // shown in authenticator apps (default: ChefStream)
	PepperFile        string        `mapstructure:"AUTH_PEPPER_FILE"`         // default: ./pepper

	DatabaseDriver string `mapstructure:"DATABASE_DRIVER"` // sqlite or postgres (default: sqlite)
	DatabaseURL    string `mapstructure:"DATABASE_URL"`    // DSN for the driver (default: file:auth.db)

	// Optional: enables the challenge attempt limiter and, with
	// ChallengeSingleUse, single-use challenge tokens.
	RedisURL           string `mapstructure:"REDIS_URL"`
	ChallengeSingleUse bool   `mapstructure:"AUTH_CHALLENGE_SINGLE_USE"`

	// Optional: Google sign-in is enabled when all three are set.
	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `mapstructure:"GOOGLE_REDIRECT_URL"`
	GoogleIssuer       string `mapstructure:"GOOGLE_ISSUER"`

	FrontendURL  string `mapstructure:"FRONTEND_URL"`
	CookieSecure bool   `mapstructure:"COOKIE_SECURE"`

	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"` // metrics stay in-process when empty

	Env                  string        `mapstructure:"ENV"`        // dev, staging, prod (default: dev)
	LogLevel             string        `mapstructure:"LOG_LEVEL"`  // default: info
	LogFormat            string        `mapstructure:"LOG_FORMAT"` // json or text (default: json)
	Port                 int           `mapstructure:"PORT"`       // default: 8080
	ShutdownGracePeriod  time.Duration `mapstructure:"SHUTDOWN_GRACE_PERIOD"`
	HousekeepingInterval time.Duration `mapstructure:"HOUSEKEEPING_INTERVAL"`
}

// LoadConfig reads an optional .env file, overlays the environment and
// validates the result. Environment variables win over .env.
func LoadConfig() (Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // a missing .env is fine

	v.AutomaticEnv()

	v.SetDefault("AUTH_SECRET_KEY", "")
	v.SetDefault("AUTH_ISSUER", "chefstream-auth")
	v.SetDefault("AUTH_ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL)
	v.SetDefault("AUTH_CHALLENGE_TOKEN_TTL", jwtx.DefaultChallengeTokenTTL)
	v.SetDefault("AUTH_TOTP_ISSUER", "ChefStream")
	v.SetDefault("AUTH_PEPPER_FILE", "pepper")
	v.SetDefault("DATABASE_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_URL", "file:auth.db")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("AUTH_CHALLENGE_SINGLE_USE", true)
	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("GOOGLE_REDIRECT_URL", "")
	v.SetDefault("GOOGLE_ISSUER", idp.DefaultGoogleIssuer)
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("PORT", 8080)
	v.SetDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second)
	v.SetDefault("HOUSEKEEPING_INTERVAL", time.Hour)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	if len(c.SecretKey) < jwtx.MinSecretLength {
		return fmt.Errorf("config: AUTH_SECRET_KEY must be at least %d bytes", jwtx.MinSecretLength)
	}
	if c.AccessTokenTTL <= 0 || c.ChallengeTokenTTL <= 0 {
		return errors.New("config: token TTLs must be positive")
	}
	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("config: unknown DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL must be set")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid PORT %d", c.Port)
	}

	google := []string{c.GoogleClientID, c.GoogleClientSecret, c.GoogleRedirectURL}
	set := 0
	for _, s := range google {
		if s != "" {
			set++
		}
	}
	if set != 0 && set != len(google) {
		return errors.New("config: GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and GOOGLE_REDIRECT_URL must be set together")
	}
	return nil
}

// GoogleEnabled reports whether Google sign-in is configured.
func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != ""
}
