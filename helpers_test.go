package account_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeTestKeyPair generates an RSA key pair and writes it as PEM files
// into a test temp dir: PKIX for the public key, PKCS#8 for the private.
func writeTestKeyPair(t *testing.T) (pubPath, privPath string, key *rsa.PrivateKey) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	pubPath = filepath.Join(dir, "public.pem")
	privPath = filepath.Join(dir, "private.pem")

	writePublicKeyPEM(t, pubPath, &key.PublicKey)
	writePrivateKeyPEM(t, privPath, key)

	return pubPath, privPath, key
}

func writePublicKeyPEM(t *testing.T, path string, key *rsa.PublicKey) {
	t.Helper()

	der, err := x509.MarshalPKIXPublicKey(key)
	require.NoError(t, err)

	writePEM(t, path, "PUBLIC KEY", der)
}

func writePrivateKeyPEM(t *testing.T, path string, key *rsa.PrivateKey) {
	t.Helper()

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	writePEM(t, path, "PRIVATE KEY", der)
}

func writePEM(t *testing.T, path, blockType string, der []byte) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, pem.Encode(f, &pem.Block{Type: blockType, Bytes: der}))
}
