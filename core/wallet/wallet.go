package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

// Wallet is a provider signing identity. Address is what the node looks up in
// its allowlist; the key signs record digests.
type Wallet struct {
	Address    string
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
}

var ErrBadSignature = errors.New("signature verification failed")

// Generate creates a fresh Ed25519 wallet for address.
func Generate(address string) (*Wallet, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key: %w", err)
	}
	return &Wallet{Address: address, PublicKey: pub, PrivateKey: priv}, nil
}

// FromBase64 parses a base64 Ed25519 private key (64 bytes, seed || public).
func FromBase64(address, privKeyB64 string) (*Wallet, error) {
	raw, err := base64.StdEncoding.DecodeString(privKeyB64)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}
	priv := ed25519.PrivateKey(raw)
	return &Wallet{
		Address:    address,
		PublicKey:  priv.Public().(ed25519.PublicKey),
		PrivateKey: priv,
	}, nil
}

func (w *Wallet) PublicKeyBase64() string {
	return base64.StdEncoding.EncodeToString(w.PublicKey)
}

func (w *Wallet) PrivateKeyBase64() string {
	return base64.StdEncoding.EncodeToString(w.PrivateKey)
}

// Sign returns the base64 Ed25519 signature over SHA-256(payload).
func (w *Wallet) Sign(payload []byte) string {
	hash := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(ed25519.Sign(w.PrivateKey, hash[:]))
}

// Verify checks a signature produced by Sign.
func Verify(pub ed25519.PublicKey, payload []byte, sigB64 string) error {
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return fmt.Errorf("invalid signature encoding: %w", err)
	}
	if len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("signature must be %d bytes, got %d", ed25519.SignatureSize, len(sig))
	}
	hash := sha256.Sum256(payload)
	if !ed25519.Verify(pub, hash[:], sig) {
		return ErrBadSignature
	}
	return nil
}

// ParsePublicKey decodes a base64 Ed25519 public key as stored in the
// authorized wallet list.
func ParsePublicKey(pubB64 string) (ed25519.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(pubB64)
	if err != nil {
		return nil, fmt.Errorf("invalid public key encoding: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}
