package account

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// KeyPairProvider loads an RSA key pair from PEM files on first use and
// caches it for the process lifetime. Loading is single flight: concurrent
// first callers trigger exactly one read, and every caller observes the
// same result, including a failed load. There is no rotation; the pair is
// immutable once loaded.
type KeyPairProvider struct {
	publicKeyPath  string
	privateKeyPath string

	once       sync.Once
	publicKey  *rsa.PublicKey
	privateKey *rsa.PrivateKey
	err        error
}

// NewKeyPairProvider creates a provider for the given PEM file paths. The
// public key must be PKIX encoded and the private key PKCS#8 encoded.
func NewKeyPairProvider(publicKeyPath, privateKeyPath string) *KeyPairProvider {
	return &KeyPairProvider{
		publicKeyPath:  publicKeyPath,
		privateKeyPath: privateKeyPath,
	}
}

// Keys returns the cached key pair, loading it on first use.
func (p *KeyPairProvider) Keys() (*rsa.PublicKey, *rsa.PrivateKey, error) {
	p.once.Do(p.load)
	return p.publicKey, p.privateKey, p.err
}

// Load forces the lazy load so callers can fail fast at boot instead of on
// the first token operation.
func (p *KeyPairProvider) Load() error {
	_, _, err := p.Keys()
	return err
}

func (p *KeyPairProvider) load() {
	publicKey, err := readPublicKey(p.publicKeyPath)
	if err != nil {
		p.err = err
		return
	}

	privateKey, err := readPrivateKey(p.privateKeyPath)
	if err != nil {
		p.err = err
		return
	}

	if !privateKey.PublicKey.Equal(publicKey) {
		p.err = goerrors.New("public key does not match private key", goerrors.CategoryInternal).
			WithTextCode("KEY_PAIR_MISMATCH")
		return
	}

	p.publicKey = publicKey
	p.privateKey = privateKey
}

func readPublicKey(path string) (*rsa.PublicKey, error) {
	block, err := readPEMBlock(path)
	if err != nil {
		return nil, err
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to parse public key")
	}

	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, goerrors.New("public key is not an RSA key", goerrors.CategoryInternal).
			WithTextCode("KEY_WRONG_ALGORITHM")
	}

	return rsaKey, nil
}

func readPrivateKey(path string) (*rsa.PrivateKey, error) {
	block, err := readPEMBlock(path)
	if err != nil {
		return nil, err
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to parse private key")
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, goerrors.New("private key is not an RSA key", goerrors.CategoryInternal).
			WithTextCode("KEY_WRONG_ALGORITHM")
	}

	return rsaKey, nil
}

func readPEMBlock(path string) (*pem.Block, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read key file").
			WithMetadata(map[string]any{"path": path})
	}

	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, goerrors.New("key file contains no PEM data", goerrors.CategoryInternal).
			WithMetadata(map[string]any{"path": path})
	}

	return block, nil
}
