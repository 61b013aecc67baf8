package account

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"
)

// Fixed Argon2id cost parameters. These are policy constants, not caller
// input; changing them only affects digests created afterwards since every
// digest embeds its own parameters.
const (
	argonMemory  uint32 = 12288
	argonTime    uint32 = 3
	argonThreads uint8  = 1
	argonSaltLen        = 32
	argonKeyLen  uint32 = 64
)

// HashPassword will generate an Argon2id password digest. The digest is
// salted per call, so hashing the same password twice yields different
// strings. The empty string is rejected before any key derivation.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate password salt")
	}

	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	digest := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	return digest, nil
}

// ComparePasswordAndHash will validate the given cleartext password against
// an Argon2id digest. The comparison step runs in constant time. Malformed
// digests and non matching passwords both return
// ErrMismatchedHashAndPassword.
func ComparePasswordAndHash(password, hash string) error {
	salt, key, params, err := decodeDigest(hash)
	if err != nil {
		return ErrMismatchedHashAndPassword
	}

	candidate := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.threads, uint32(len(key)))

	if subtle.ConstantTimeCompare(key, candidate) != 1 {
		return ErrMismatchedHashAndPassword
	}

	return nil
}

// RandomPasswordHash is a temporary password
func RandomPasswordHash() string {
	pwd := uuid.New()

	h, err := HashPassword(pwd.String())
	if err != nil {
		return RandomPasswordHash()
	}

	return h
}

// Argon2Hasher is the default PasswordAuthenticator implementation
type Argon2Hasher struct{}

func (Argon2Hasher) HashPassword(password string) (string, error) {
	return HashPassword(password)
}

func (Argon2Hasher) ComparePasswordAndHash(password, hash string) error {
	return ComparePasswordAndHash(password, hash)
}

var _ PasswordAuthenticator = Argon2Hasher{}

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
}

// decodeDigest parses the PHC string form produced by HashPassword:
// $argon2id$v=19$m=...,t=...,p=...$<b64 salt>$<b64 key>
func decodeDigest(digest string) (salt, key []byte, params argonParams, err error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, nil, params, fmt.Errorf("malformed argon2id digest")
	}

	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, params, err
	}
	if version != argon2.Version {
		return nil, nil, params, fmt.Errorf("incompatible argon2 version: %d", version)
	}

	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.time, &params.threads); err != nil {
		return nil, nil, params, err
	}

	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, nil, params, err
	}
	if key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, nil, params, err
	}
	if len(key) == 0 {
		return nil, nil, params, fmt.Errorf("malformed argon2id digest: empty key")
	}

	return salt, key, params, nil
}
