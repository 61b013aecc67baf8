package account

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwe"
)

// Token protocol constants. The signature layer and the encryption layer
// are both pinned: a token declaring any other algorithm is rejected before
// key material is applied to it.
const (
	jwsAlg = "HS512"
	jweAlg = jwa.RSA_OAEP_512
	jweEnc = jwa.A256GCM
)

// NestedTokenService implements the TokenService interface with a
// sign-then-encrypt protocol: claims are signed into a compact JWS with the
// symmetric secret, and the signed artifact is encrypted into a compact JWE
// with the recipient public key. The signature covers the claims and the
// ciphertext covers the signature, so holding the private key is a
// precondition for even starting signature verification.
type NestedTokenService struct {
	secret   []byte
	issuer   string
	lifetime time.Duration
	keys     *KeyPairProvider
	logger   Logger
}

// NewTokenService creates a new TokenService instance. The signing secret
// must be exactly 32 bytes; anything else is a configuration failure that
// should abort boot.
func NewTokenService(cfg Config, keys *KeyPairProvider, logger Logger) (*NestedTokenService, error) {
	if len(cfg.GetSigningKey()) != 32 {
		return nil, ErrBadSigningSecret
	}

	lifetime := time.Duration(cfg.GetTokenExpiration()) * time.Second
	if cfg.GetTokenExpiration() == 0 {
		lifetime = time.Hour
	}

	if logger == nil {
		logger = defLogger{}
	}

	return &NestedTokenService{
		secret:   []byte(cfg.GetSigningKey()),
		issuer:   cfg.GetIssuer(),
		lifetime: lifetime,
		keys:     keys,
		logger:   logger,
	}, nil
}

// Forge builds a claim set for the identity and returns the encrypted
// bearer token.
func (ts *NestedTokenService) Forge(identity Identity) (string, error) {
	if identity == nil {
		return "", goerrors.New("identity must not be nil", goerrors.CategoryBadInput)
	}

	now := time.Now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.lifetime)),
		},
		UID:   identity.ID(),
		Admin: identity.IsAdmin(),
	}

	return ts.ForgeClaims(claims)
}

// ForgeClaims signs the given claims and encrypts the signed artifact.
// Most callers want Forge; this entry point exists for claims the caller
// has already stamped.
func (ts *NestedTokenService) ForgeClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", goerrors.New("claims must not be nil", goerrors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(ts.secret)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign claims")
	}

	publicKey, _, err := ts.keys.Keys()
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "key material unavailable")
	}

	encrypted, err := jwe.Encrypt([]byte(signed),
		jwe.WithKey(jweAlg, publicKey),
		jwe.WithContentEncryption(jweEnc),
	)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encrypt signed claims")
	}

	return string(encrypted), nil
}

// Verify decrypts and validates a bearer token, returning its claims.
// Every rejection surfaces as ErrTokenInvalid; the underlying cause is
// logged server side only.
func (ts *NestedTokenService) Verify(token string) (AuthClaims, error) {
	_, privateKey, err := ts.keys.Keys()
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "key material unavailable")
	}

	msg, err := jwe.Parse([]byte(token))
	if err != nil {
		return ts.reject("malformed envelope", err)
	}

	headers := msg.ProtectedHeaders()
	if headers.Algorithm() != jweAlg || headers.ContentEncryption() != jweEnc {
		return ts.reject("unexpected envelope algorithm", nil)
	}

	signed, err := jwe.Decrypt([]byte(token), jwe.WithKey(jweAlg, privateKey))
	if err != nil {
		return ts.reject("decryption failed", err)
	}

	claims := &JWTClaims{}
	parsed, err := jwt.ParseWithClaims(string(signed), claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.secret, nil
	},
		jwt.WithValidMethods([]string{jwsAlg}),
		jwt.WithIssuer(ts.issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return ts.reject("signature validation failed", err)
	}
	if !parsed.Valid {
		return ts.reject("invalid signed claims", nil)
	}

	// enforce max token age from iat, independent of the embedded expiry
	issuedAt := claims.IssuedAt()
	if issuedAt.IsZero() || time.Now().After(issuedAt.Add(ts.lifetime)) {
		return ts.reject("token too old", nil)
	}

	return claims, nil
}

var _ TokenService = (*NestedTokenService)(nil)
var _ TokenVerifier = (*NestedTokenService)(nil)

func (ts *NestedTokenService) reject(reason string, err error) (AuthClaims, error) {
	if err != nil {
		ts.logger.Debug("token rejected: %s: %v", reason, err)
	} else {
		ts.logger.Debug("token rejected: %s", reason)
	}
	return nil, ErrTokenInvalid
}
