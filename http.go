package account

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-account/middleware/jwtware"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// TokenFromAuthorization extracts the bearer token from an Authorization
// header value. The value must be exactly "<scheme> <token>": a case
// sensitive scheme, one space, and a single token segment. Everything
// else fails with ErrTokenInvalid, including a well formed token wrapped
// in extra whitespace.
func TokenFromAuthorization(header, scheme string) (string, error) {
	if scheme == "" {
		scheme = "Bearer"
	}

	prefix := scheme + " "
	if !strings.HasPrefix(header, prefix) {
		return "", ErrTokenInvalid
	}

	token := header[len(prefix):]
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrTokenInvalid
	}

	return token, nil
}

// verifierAdapter bridges the package TokenVerifier to the middleware's
// claims interface without an import cycle.
type verifierAdapter struct {
	verifier TokenVerifier
}

func (a verifierAdapter) Verify(token string) (jwtware.Claims, error) {
	claims, err := a.verifier.Verify(token)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

type RouteAuthenticator struct {
	auth             Authenticator
	verifier         TokenVerifier
	cfg              Config
	cookieDuration   time.Duration
	Logger           Logger
	AuthErrorHandler func(c router.Context, err error) error
	ErrorHandler     func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, verifier TokenVerifier, cfg Config) (*RouteAuthenticator, error) {
	cookieDuration := time.Hour
	if cfg.GetTokenExpiration() > 0 {
		cookieDuration = time.Duration(cfg.GetTokenExpiration()) * time.Second
	}

	a := &RouteAuthenticator{
		cfg:            cfg,
		auth:           auther,
		verifier:       verifier,
		Logger:         defLogger{},
		cookieDuration: cookieDuration,
	}

	a.ErrorHandler = a.defaultErrHandler
	a.AuthErrorHandler = a.defaultAuthErrHandler

	return a, nil
}

func (a RouteAuthenticator) GetCookieDuration() time.Duration {
	return a.cookieDuration
}

// ProtectedRoute guards a route with bearer token verification. Verified
// claims land in the router locals under the configured context key and
// in the request context for downstream handlers.
func (a *RouteAuthenticator) ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return jwtware.New(jwtware.Config{
			ErrorHandler:  errorHandler,
			TokenVerifier: verifierAdapter{verifier: a.verifier},
			AuthScheme:    cfg.GetAuthScheme(),
			ContextKey:    cfg.GetContextKey(),
			TokenLookup:   cfg.GetTokenLookup(),
			ContextEnricher: func(c context.Context, claims jwtware.Claims) context.Context {
				if authClaims, ok := claims.(AuthClaims); ok {
					return WithClaimsContext(c, authClaims)
				}
				return c
			},
		})(hf)
	}
}

// AdminRoute is ProtectedRoute plus a check that the verified claims
// carry the admin flag.
func (a *RouteAuthenticator) AdminRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return jwtware.New(jwtware.Config{
			ErrorHandler:  errorHandler,
			TokenVerifier: verifierAdapter{verifier: a.verifier},
			AuthScheme:    cfg.GetAuthScheme(),
			ContextKey:    cfg.GetContextKey(),
			TokenLookup:   cfg.GetTokenLookup(),
			AdminOnly:     true,
		})(hf)
	}
}

func (a *RouteAuthenticator) Login(ctx router.Context, email, password string) error {
	token, err := a.auth.Login(ctx.Context(), email, password)
	if err != nil {
		a.Logger.Error("Login error: %s", err)
		return err
	}

	a.setCookieToken(ctx, token, a.cookieDuration)
	return nil
}

func (a *RouteAuthenticator) Logout(ctx router.Context) {
	a.cookieDel(ctx, a.cfg.GetContextKey())
}

func (a *RouteAuthenticator) setCookieToken(c router.Context, val string, duration time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     a.cfg.GetContextKey(),
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) defaultAuthErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "An unexpected authentication error").
			WithCode(errors.CodeUnauthorized)
	}

	a.Logger.Info(
		"Authentication error: %s text_code=%s path=%s",
		richErr.Message,
		richErr.TextCode,
		c.OriginalURL(),
	)

	return c.JSON(http.StatusUnauthorized, map[string]string{
		"error": richErr.Message,
	})
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return a.AuthErrorHandler(c, richErr)
	default:
		code := richErr.Code
		if code == 0 {
			code = http.StatusInternalServerError
		}
		return c.JSON(code, map[string]string{
			"error": richErr.Message,
		})
	}
}
