package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds runtime configuration for the service.
type Config struct {
	Port            int           `envconfig:"PORT" default:"5000"`
	BodyLimit       int           `envconfig:"BODY_LIMIT" default:"52428800"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	DBDriver string `envconfig:"DB_DRIVER" default:"sqlite"`
	DBDSN    string `envconfig:"DB_DSN" default:"file:coursehub.db?cache=shared"`

	SecretOrKey  string        `envconfig:"SECRET_OR_KEY" required:"true"`
	TokenTTL     time.Duration `envconfig:"AUTH_TOKEN_TTL" default:"1h"`
	Issuer       string        `envconfig:"AUTH_ISSUER" default:"coursehub"`
	AuthScheme   string        `envconfig:"AUTH_SCHEME" default:"Bearer"`
	ContextKey   string        `envconfig:"AUTH_CONTEXT_KEY" default:"user"`
	TokenLookup  string        `envconfig:"AUTH_TOKEN_LOOKUP" default:"header:Authorization"`
	BcryptCost   int           `envconfig:"AUTH_BCRYPT_COST" default:"10"`
	AllowedRoles []string      `envconfig:"AUTH_ALLOWED_ROLES"`
	UseHashidIDs bool          `envconfig:"AUTH_HASHID_IDS" default:"false"`
	ListRole     string        `envconfig:"AUTH_LIST_ROLE"`
	Debug        bool          `envconfig:"AUTH_DEBUG" default:"false"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	LogFile   string `envconfig:"LOG_FILE"`
}

// Load reads the optional dotenv files, then decodes the environment.
// Variables already set in the environment win over file values.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values envconfig cannot express
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SecretOrKey) == "" {
		return errors.New("SECRET_OR_KEY must be provided")
	}
	if c.TokenTTL <= 0 {
		return errors.New("AUTH_TOKEN_TTL must be positive")
	}
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	return nil
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) GetSigningKey() string {
	return c.SecretOrKey
}

func (c *Config) GetTokenTTL() time.Duration {
	return c.TokenTTL
}

func (c *Config) GetIssuer() string {
	return c.Issuer
}

func (c *Config) GetContextKey() string {
	return c.ContextKey
}

func (c *Config) GetTokenLookup() string {
	return c.TokenLookup
}

func (c *Config) GetAuthScheme() string {
	return c.AuthScheme
}

func (c *Config) GetBcryptCost() int {
	return c.BcryptCost
}

func (c *Config) GetAllowedRoles() []string {
	return c.AllowedRoles
}

func (c *Config) GetUseHashid() bool {
	return c.UseHashidIDs
}
