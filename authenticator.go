package account

import (
	"context"

	"github.com/goliatone/go-repository-bun"
)

var _ Authenticator = &Auther{}

// Auther glues the account lifecycle and the token service into the
// Authenticator contract: verify credentials, forge a token, and later
// turn a presented token back into a session and an identity.
type Auther struct {
	accounts *AccountManager
	tokens   TokenService
	logger   Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(accounts *AccountManager, tokens TokenService) *Auther {
	return &Auther{
		accounts: accounts,
		tokens:   tokens,
		logger:   defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokens
}

// Login verifies the credentials and returns a freshly forged token. The
// error for any credential miss is ErrInvalidCredentials; it carries no
// hint of which check failed.
func (s *Auther) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.accounts.Login(ctx, email, password)
	if err != nil {
		s.logger.Error("Login verify credentials error: %v", err)
		return "", err
	}

	token, err := s.tokens.Forge(user.Identity())
	if err != nil {
		s.logger.Error("Login token forge error: %v", err)
		return "", err
	}

	return token, nil
}

// SessionFromToken verifies a presented token and exposes its claims as a
// Session.
func (s *Auther) SessionFromToken(raw string) (Session, error) {
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		s.logger.Debug("SessionFromToken verification failed: %v", err)
		return nil, err
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		s.logger.Error("SessionFromToken failed to create session from claims: %v", err)
		return nil, err
	}

	return session, nil
}

// IdentityFromSession resolves the session's subject against the store.
// A subject that no longer resolves to an active account yields
// ErrAccountNotFound, which callers should treat as an expired session.
func (s *Auther) IdentityFromSession(ctx context.Context, session Session) (Identity, error) {
	id, err := session.GetUserUUID()
	if err != nil {
		s.logger.Error("IdentityFromSession bad subject: %v", err)
		return nil, ErrAccountNotFound
	}

	profileOwner, err := s.accounts.store.GetActiveByID(ctx, id)
	if err != nil {
		s.logger.Error("IdentityFromSession lookup failed: %v", err)
		if repository.IsRecordNotFound(err) || IsNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return profileOwner.Identity(), nil
}
