package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

type KeyProvider interface {
	GetPublicKey(kid string) (*rsa.PublicKey, error)
}

// StaticKeyProvider serves one RSA public key regardless of kid.
type StaticKeyProvider struct {
	PublicKey *rsa.PublicKey
}

func (d *StaticKeyProvider) GetPublicKey(kid string) (*rsa.PublicKey, error) {
	if d.PublicKey != nil {
		return d.PublicKey, nil
	}
	return nil, errors.New("no public key set")
}

func LoadRSAPublicKeyFromFile(path string) (*rsa.PublicKey, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read public key %s: %w", path, err)
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key %s: %w", path, err)
	}
	return key, nil
}

// LoadRSAPrivateKeyFromFile accepts PKCS#1 or PKCS#8 PEM.
func LoadRSAPrivateKeyFromFile(path string) (*rsa.PrivateKey, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key %s: %w", path, err)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key %s: %w", path, err)
	}
	return key, nil
}
