package account

import (
	"os"
	"strconv"

	goerrors "github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
)

// Environment variable names consumed by NewEnvConfig.
const (
	EnvSigningSecret   = "AUTH_SIGNING_SECRET"
	EnvTokenIssuer     = "AUTH_TOKEN_ISSUER"
	EnvTokenExpiration = "AUTH_TOKEN_EXPIRATION"
	EnvPublicKeyPath   = "AUTH_PUBLIC_KEY_PATH"
	EnvPrivateKeyPath  = "AUTH_PRIVATE_KEY_PATH"
)

// EnvConfig is a Config implementation backed by environment variables.
type EnvConfig struct {
	SigningKey      string
	Issuer          string
	TokenExpiration int
	PublicKeyPath   string
	PrivateKeyPath  string
	ContextKey      string
	TokenLookup     string
	AuthScheme      string
}

var _ Config = (*EnvConfig)(nil)

// NewEnvConfig builds a config from the environment, optionally loading the
// given dotenv files first (missing files are not an error). Construction
// fails when the signing secret is not exactly 32 bytes or the expiration
// is not a positive number of seconds; these are boot failures, not request
// failures.
func NewEnvConfig(dotenvFiles ...string) (*EnvConfig, error) {
	for _, file := range dotenvFiles {
		if _, err := os.Stat(file); err == nil {
			if err := godotenv.Load(file); err != nil {
				return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load dotenv file").
					WithMetadata(map[string]any{"file": file})
			}
		}
	}

	cfg := &EnvConfig{
		SigningKey:      os.Getenv(EnvSigningSecret),
		Issuer:          os.Getenv(EnvTokenIssuer),
		TokenExpiration: 3600,
		PublicKeyPath:   os.Getenv(EnvPublicKeyPath),
		PrivateKeyPath:  os.Getenv(EnvPrivateKeyPath),
		ContextKey:      "user",
		TokenLookup:     "header:Authorization",
		AuthScheme:      "Bearer",
	}

	if raw := os.Getenv(EnvTokenExpiration); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return nil, goerrors.New("token expiration must be a positive number of seconds", goerrors.CategoryInternal).
				WithTextCode("BAD_TOKEN_EXPIRATION").
				WithMetadata(map[string]any{"value": raw})
		}
		cfg.TokenExpiration = seconds
	}

	if len(cfg.SigningKey) != 32 {
		return nil, ErrBadSigningSecret
	}

	return cfg, nil
}

func (c *EnvConfig) GetSigningKey() string     { return c.SigningKey }
func (c *EnvConfig) GetIssuer() string         { return c.Issuer }
func (c *EnvConfig) GetTokenExpiration() int   { return c.TokenExpiration }
func (c *EnvConfig) GetPublicKeyPath() string  { return c.PublicKeyPath }
func (c *EnvConfig) GetPrivateKeyPath() string { return c.PrivateKeyPath }
func (c *EnvConfig) GetContextKey() string     { return c.ContextKey }
func (c *EnvConfig) GetTokenLookup() string    { return c.TokenLookup }
func (c *EnvConfig) GetAuthScheme() string     { return c.AuthScheme }
