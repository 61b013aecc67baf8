package account_test

import (
	"strings"
	"testing"

	account "github.com/goliatone/go-account"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "Valid password",
			password: "securePassword123!",
			wantErr:  false,
		},
		{
			name:     "Empty password",
			password: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := account.HashPassword(tt.password)

			if tt.wantErr {
				assert.Error(t, err)
				assert.ErrorIs(t, err, account.ErrNoEmptyString)
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

			err = account.ComparePasswordAndHash(tt.password, hash)
			assert.NoError(t, err)
		})
	}
}

func TestHashPasswordIsSalted(t *testing.T) {
	password := "repeatable-password"

	first, err := account.HashPassword(password)
	require.NoError(t, err)

	second, err := account.HashPassword(password)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	assert.NoError(t, account.ComparePasswordAndHash(password, first))
	assert.NoError(t, account.ComparePasswordAndHash(password, second))
}

func TestComparePasswordAndHash(t *testing.T) {
	password := "testPassword123!"
	hash, err := account.HashPassword(password)
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		wantErr  bool
	}{
		{
			name:     "Matching password",
			password: password,
			hash:     hash,
			wantErr:  false,
		},
		{
			name:     "Wrong password",
			password: "wrongPassword",
			hash:     hash,
			wantErr:  true,
		},
		{
			name:     "Empty password",
			password: "",
			hash:     hash,
			wantErr:  true,
		},
		{
			name:     "Empty hash",
			password: password,
			hash:     "",
			wantErr:  true,
		},
		{
			name:     "Garbage hash",
			password: password,
			hash:     "not-a-digest",
			wantErr:  true,
		},
		{
			name:     "Wrong algorithm identifier",
			password: password,
			hash:     strings.Replace(hash, "argon2id", "argon2i", 1),
			wantErr:  true,
		},
		{
			name:     "Truncated digest",
			password: password,
			hash:     hash[:len(hash)-10],
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := account.ComparePasswordAndHash(tt.password, tt.hash)

			if tt.wantErr {
				assert.ErrorIs(t, err, account.ErrMismatchedHashAndPassword)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestComparePasswordAndHashVerifiesRepeatedly(t *testing.T) {
	password := "verify-me-twice"
	hash, err := account.HashPassword(password)
	require.NoError(t, err)

	assert.NoError(t, account.ComparePasswordAndHash(password, hash))
	assert.NoError(t, account.ComparePasswordAndHash(password, hash))
}

func TestRandomPasswordHash(t *testing.T) {
	hash := account.RandomPasswordHash()
	assert.NotEmpty(t, hash)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	// a random password should not verify against any known input
	assert.Error(t, account.ComparePasswordAndHash("guess", hash))
}

func TestArgon2HasherImplementsPasswordAuthenticator(t *testing.T) {
	var hasher account.PasswordAuthenticator = account.Argon2Hasher{}

	hash, err := hasher.HashPassword("interface-check")
	require.NoError(t, err)
	assert.NoError(t, hasher.ComparePasswordAndHash("interface-check", hash))
}
