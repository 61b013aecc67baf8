package account_test

import (
	"crypto/rand"
	"crypto/rsa"
	"os"
	"path/filepath"
	"sync"
	"testing"

	account "github.com/goliatone/go-account"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyPairProviderLoads(t *testing.T) {
	pubPath, privPath, key := writeTestKeyPair(t)

	provider := account.NewKeyPairProvider(pubPath, privPath)

	publicKey, privateKey, err := provider.Keys()
	require.NoError(t, err)
	require.NotNil(t, publicKey)
	require.NotNil(t, privateKey)

	assert.True(t, key.PublicKey.Equal(publicKey))
	assert.True(t, key.Equal(privateKey))

	// repeated calls observe the same cached pair
	publicAgain, privateAgain, err := provider.Keys()
	require.NoError(t, err)
	assert.Same(t, publicKey, publicAgain)
	assert.Same(t, privateKey, privateAgain)
}

func TestKeyPairProviderLoadFailFast(t *testing.T) {
	pubPath, privPath, _ := writeTestKeyPair(t)

	provider := account.NewKeyPairProvider(pubPath, privPath)
	assert.NoError(t, provider.Load())
}

func TestKeyPairProviderMissingFiles(t *testing.T) {
	dir := t.TempDir()

	provider := account.NewKeyPairProvider(
		filepath.Join(dir, "missing_public.pem"),
		filepath.Join(dir, "missing_private.pem"),
	)

	_, _, err := provider.Keys()
	require.Error(t, err)

	// a failed load is cached; later calls keep failing with the same error
	_, _, again := provider.Keys()
	assert.Equal(t, err, again)
}

func TestKeyPairProviderRejectsGarbageFiles(t *testing.T) {
	dir := t.TempDir()
	pubPath := filepath.Join(dir, "public.pem")
	privPath := filepath.Join(dir, "private.pem")

	require.NoError(t, os.WriteFile(pubPath, []byte("not a pem file"), 0600))
	require.NoError(t, os.WriteFile(privPath, []byte("not a pem file"), 0600))

	provider := account.NewKeyPairProvider(pubPath, privPath)
	_, _, err := provider.Keys()
	assert.Error(t, err)
}

func TestKeyPairProviderRejectsMismatchedPair(t *testing.T) {
	pubPath, _, _ := writeTestKeyPair(t)
	_, privPath, _ := writeTestKeyPair(t)

	provider := account.NewKeyPairProvider(pubPath, privPath)
	_, _, err := provider.Keys()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")
}

func TestKeyPairProviderRejectsMismatchedCopies(t *testing.T) {
	// same structure, different key material
	dir := t.TempDir()

	keyA, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keyB, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pubPath := filepath.Join(dir, "public.pem")
	privPath := filepath.Join(dir, "private.pem")
	writePublicKeyPEM(t, pubPath, &keyA.PublicKey)
	writePrivateKeyPEM(t, privPath, keyB)

	provider := account.NewKeyPairProvider(pubPath, privPath)
	assert.Error(t, provider.Load())
}

func TestKeyPairProviderConcurrentLoad(t *testing.T) {
	pubPath, privPath, _ := writeTestKeyPair(t)
	provider := account.NewKeyPairProvider(pubPath, privPath)

	var wg sync.WaitGroup
	results := make([]*rsa.PublicKey, 16)

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			publicKey, _, err := provider.Keys()
			assert.NoError(t, err)
			results[idx] = publicKey
		}(i)
	}

	wg.Wait()

	for _, publicKey := range results {
		assert.Same(t, results[0], publicKey)
	}
}
