package wallet

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"
)

type allowlistEntry struct {
	Authorized bool   `json:"authorized"`
	PublicKey  string `json:"publicKey"`
}

// LoadAllowlist reads an authorized_wallets.json file of the form
//
//	{"prov123": {"authorized": true, "publicKey": "<base64>"}}
//
// and returns the public keys of authorized wallets.
func LoadAllowlist(path string) (map[string]ed25519.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries map[string]allowlistEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	keys := make(map[string]ed25519.PublicKey, len(entries))
	for addr, e := range entries {
		if !e.Authorized {
			continue
		}
		pub, err := ParsePublicKey(e.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("wallet %s: %w", addr, err)
		}
		keys[addr] = pub
	}
	return keys, nil
}
