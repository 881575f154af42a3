package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// EthosHeader carries the Ethos token on submit requests.
const EthosHeader = "X-Ethos-Token"

type EthosClaims struct {
	ChainID string   `json:"chainID,omitempty"`
	Roles   []string `json:"roles,omitempty"`
	Reason  string   `json:"reason,omitempty"`
	jwt.RegisteredClaims
}

type EthosVerifier struct {
	KeyProvider KeyProvider
}

func (v *EthosVerifier) VerifyEthosToken(tokenString string) (*EthosClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &EthosClaims{}, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		return v.KeyProvider.GetPublicKey(kid)
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*EthosClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid ethos token or claims")
}

// TokenSource yields the value for the X-Ethos-Token header.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a pre-minted token.
type StaticToken string

func (s StaticToken) Token() (string, error) { return string(s), nil }

// EthosIssuer mints a fresh RS256 token on every call to Token.
type EthosIssuer struct {
	PrivateKey *rsa.PrivateKey
	Subject    string
	ChainID    string
	Roles      []string
	TTL        time.Duration

	now func() time.Time
}

func (i *EthosIssuer) Token() (string, error) {
	if i.PrivateKey == nil {
		return "", errors.New("ethos issuer has no private key")
	}
	now := time.Now
	if i.now != nil {
		now = i.now
	}
	ttl := i.TTL
	if ttl == 0 {
		ttl = time.Hour
	}
	iat := now()
	claims := EthosClaims{
		ChainID: i.ChainID,
		Roles:   i.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   i.Subject,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(iat.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(i.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("sign ethos token: %w", err)
	}
	return signed, nil
}
