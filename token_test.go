package account_test

import (
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	account "github.com/goliatone/go-account"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSigningSecret = "0123456789abcdef0123456789abcdef"

type testIdentity struct {
	id    string
	email string
	admin bool
}

func (i testIdentity) ID() string    { return i.id }
func (i testIdentity) Email() string { return i.email }
func (i testIdentity) IsAdmin() bool { return i.admin }

func newTestTokenService(t *testing.T, issuer string, expiration int) (*account.NestedTokenService, *rsa.PrivateKey) {
	t.Helper()

	pubPath, privPath, key := writeTestKeyPair(t)
	keys := account.NewKeyPairProvider(pubPath, privPath)

	cfg := &account.EnvConfig{
		SigningKey:      testSigningSecret,
		Issuer:          issuer,
		TokenExpiration: expiration,
		PublicKeyPath:   pubPath,
		PrivateKeyPath:  privPath,
	}

	service, err := account.NewTokenService(cfg, keys, nil)
	require.NoError(t, err)

	return service, key
}

func TestNewTokenServiceRejectsBadSecret(t *testing.T) {
	pubPath, privPath, _ := writeTestKeyPair(t)
	keys := account.NewKeyPairProvider(pubPath, privPath)

	tests := []struct {
		name   string
		secret string
	}{
		{"empty secret", ""},
		{"short secret", "too-short"},
		{"long secret", testSigningSecret + "extra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &account.EnvConfig{SigningKey: tt.secret}
			_, err := account.NewTokenService(cfg, keys, nil)
			assert.ErrorIs(t, err, account.ErrBadSigningSecret)
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	service, _ := newTestTokenService(t, "test-issuer", 3600)

	identity := testIdentity{id: "user-123", email: "ada@example.com", admin: true}

	token, err := service.Forge(identity)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, "user-123", claims.Subject())
	assert.Equal(t, "user-123", claims.UserID())
	assert.Equal(t, "test-issuer", claims.Issuer())
	assert.True(t, claims.IsAdmin())
	assert.WithinDuration(t, time.Now(), claims.IssuedAt(), 5*time.Second)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.Expires(), 5*time.Second)
}

func TestTokenIsOpaque(t *testing.T) {
	service, _ := newTestTokenService(t, "test-issuer", 3600)

	token, err := service.Forge(testIdentity{id: "user-123"})
	require.NoError(t, err)

	// the payload is ciphertext; the inner JWS must not appear in the token
	assert.NotContains(t, token, "user-123")
}

func TestForgeRejectsNilIdentity(t *testing.T) {
	service, _ := newTestTokenService(t, "test-issuer", 3600)

	_, err := service.Forge(nil)
	assert.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	service, _ := newTestTokenService(t, "test-issuer", 3600)

	for _, token := range []string{"", "garbage", "a.b.c", "a.b.c.d.e"} {
		_, err := service.Verify(token)
		assert.ErrorIs(t, err, account.ErrTokenInvalid)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	service, _ := newTestTokenService(t, "test-issuer", 3600)

	token, err := service.Forge(testIdentity{id: "user-123"})
	require.NoError(t, err)

	// flip one character somewhere in the middle of the compact form
	mid := len(token) / 2
	tampered := token[:mid] + flipChar(token[mid:mid+1]) + token[mid+1:]

	_, err = service.Verify(tampered)
	assert.ErrorIs(t, err, account.ErrTokenInvalid)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	pubPath, privPath, _ := writeTestKeyPair(t)
	keys := account.NewKeyPairProvider(pubPath, privPath)

	forger, err := account.NewTokenService(&account.EnvConfig{
		SigningKey: testSigningSecret,
		Issuer:     "issuer-a",
	}, keys, nil)
	require.NoError(t, err)

	verifier, err := account.NewTokenService(&account.EnvConfig{
		SigningKey: testSigningSecret,
		Issuer:     "issuer-b",
	}, keys, nil)
	require.NoError(t, err)

	token, err := forger.Forge(testIdentity{id: "user-123"})
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, account.ErrTokenInvalid)
}

func TestVerifyRejectsWrongSigningSecret(t *testing.T) {
	service, key := newTestTokenService(t, "test-issuer", 3600)

	signed := signTestClaims(t, jwt.SigningMethodHS512, []byte("ffffffffffffffffffffffffffffffff"), validTestClaims("test-issuer"))
	token := encryptTestPayload(t, signed, &key.PublicKey, jwa.RSA_OAEP_512)

	_, err := service.Verify(token)
	assert.ErrorIs(t, err, account.ErrTokenInvalid)
}

func TestVerifyRejectsSubstitutedInnerAlgorithm(t *testing.T) {
	service, key := newTestTokenService(t, "test-issuer", 3600)

	// correctly encrypted, but the inner layer is signed with HS256
	signed := signTestClaims(t, jwt.SigningMethodHS256, []byte(testSigningSecret), validTestClaims("test-issuer"))
	token := encryptTestPayload(t, signed, &key.PublicKey, jwa.RSA_OAEP_512)

	_, err := service.Verify(token)
	assert.ErrorIs(t, err, account.ErrTokenInvalid)
}

func TestVerifyRejectsSubstitutedEnvelopeAlgorithm(t *testing.T) {
	service, key := newTestTokenService(t, "test-issuer", 3600)

	// correctly signed, but the envelope uses a different key wrap algorithm
	signed := signTestClaims(t, jwt.SigningMethodHS512, []byte(testSigningSecret), validTestClaims("test-issuer"))
	token := encryptTestPayload(t, signed, &key.PublicKey, jwa.RSA_OAEP_256)

	_, err := service.Verify(token)
	assert.ErrorIs(t, err, account.ErrTokenInvalid)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	service, key := newTestTokenService(t, "test-issuer", 3600)

	claims := &account.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			Subject:   "user-123",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
		UID: "user-123",
	}

	signed := signTestClaims(t, jwt.SigningMethodHS512, []byte(testSigningSecret), claims)
	token := encryptTestPayload(t, signed, &key.PublicKey, jwa.RSA_OAEP_512)

	_, err := service.Verify(token)
	assert.ErrorIs(t, err, account.ErrTokenInvalid)
}

func TestVerifyRejectsTokenOlderThanLifetime(t *testing.T) {
	service, key := newTestTokenService(t, "test-issuer", 3600)

	// embedded expiry is still in the future, but the issue time exceeds
	// the service lifetime
	claims := &account.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			Subject:   "user-123",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-3 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UID: "user-123",
	}

	signed := signTestClaims(t, jwt.SigningMethodHS512, []byte(testSigningSecret), claims)
	token := encryptTestPayload(t, signed, &key.PublicKey, jwa.RSA_OAEP_512)

	_, err := service.Verify(token)
	assert.ErrorIs(t, err, account.ErrTokenInvalid)
}

func TestVerifyRejectsMissingExpiry(t *testing.T) {
	service, key := newTestTokenService(t, "test-issuer", 3600)

	claims := &account.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   "test-issuer",
			Subject:  "user-123",
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
		UID: "user-123",
	}

	signed := signTestClaims(t, jwt.SigningMethodHS512, []byte(testSigningSecret), claims)
	token := encryptTestPayload(t, signed, &key.PublicKey, jwa.RSA_OAEP_512)

	_, err := service.Verify(token)
	assert.ErrorIs(t, err, account.ErrTokenInvalid)
}

func TestVerifyRejectsTokenForWrongKeyPair(t *testing.T) {
	service, _ := newTestTokenService(t, "test-issuer", 3600)
	_, other := newTestTokenService(t, "test-issuer", 3600)

	// encrypted for a different recipient
	signed := signTestClaims(t, jwt.SigningMethodHS512, []byte(testSigningSecret), validTestClaims("test-issuer"))
	token := encryptTestPayload(t, signed, &other.PublicKey, jwa.RSA_OAEP_512)

	_, err := service.Verify(token)
	assert.ErrorIs(t, err, account.ErrTokenInvalid)
}

func validTestClaims(issuer string) *account.JWTClaims {
	now := time.Now()
	return &account.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   "user-123",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		UID: "user-123",
	}
}

func signTestClaims(t *testing.T, method jwt.SigningMethod, secret []byte, claims *account.JWTClaims) []byte {
	t.Helper()

	signed, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	require.NoError(t, err)

	return []byte(signed)
}

func encryptTestPayload(t *testing.T, payload []byte, key *rsa.PublicKey, alg jwa.KeyEncryptionAlgorithm) string {
	t.Helper()

	encrypted, err := jwe.Encrypt(payload,
		jwe.WithKey(alg, key),
		jwe.WithContentEncryption(jwa.A256GCM),
	)
	require.NoError(t, err)

	return string(encrypted)
}

func flipChar(s string) string {
	if s == "A" {
		return "B"
	}
	return "A"
}
