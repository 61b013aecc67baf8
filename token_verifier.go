package account

// TokenVerifier validates tokens and extracts claims without tying callers
// to a specific token protocol implementation.
type TokenVerifier interface {
	Verify(token string) (AuthClaims, error)
}

// TokenVerifierFunc adapts a function into a TokenVerifier.
type TokenVerifierFunc func(token string) (AuthClaims, error)

// Verify satisfies the TokenVerifier interface.
func (f TokenVerifierFunc) Verify(token string) (AuthClaims, error) {
	if f == nil {
		return nil, ErrTokenInvalid
	}
	return f(token)
}
