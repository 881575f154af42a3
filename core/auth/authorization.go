package auth

import (
	"crypto/ed25519"
	"fmt"
	"time"

	"unicare-bulksubmit/core/audit"
	"unicare-bulksubmit/core/wallet"
)

// Authorizer checks the optional wallet signature and Ethos token on a
// submission. A nil EthosVerifier skips the token check; a wallet without a
// registered key skips the signature check.
type Authorizer struct {
	WalletKeys    map[string]ed25519.PublicKey
	EthosVerifier *EthosVerifier
	AuditLogger   audit.AuditLogger
}

type AuthorizationResult struct {
	Authorized bool
	Reason     string
}

func (a *Authorizer) log(eventType, walletAddr, result, reason string, meta map[string]string) {
	if a.AuditLogger == nil {
		return
	}
	a.AuditLogger.LogEvent(audit.AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		EntityID:  walletAddr,
		Result:    result,
		Reason:    reason,
		Metadata:  meta,
	})
}

// AuthorizeSubmission verifies signature over record and the Ethos token.
func (a *Authorizer) AuthorizeSubmission(record []byte, signature, walletAddr, ethosToken string) AuthorizationResult {
	if pub, ok := a.WalletKeys[walletAddr]; ok {
		if signature == "" {
			a.log(audit.EventSignatureVerification, walletAddr, "failure", "missing wallet signature", nil)
			return AuthorizationResult{false, "missing wallet signature"}
		}
		if err := wallet.Verify(pub, record, signature); err != nil {
			a.log(audit.EventSignatureVerification, walletAddr, "failure", err.Error(), nil)
			return AuthorizationResult{false, "invalid wallet signature: " + err.Error()}
		}
	}

	var roles []string
	if a.EthosVerifier != nil {
		if ethosToken == "" {
			a.log(audit.EventEthosTokenVerification, walletAddr, "failure", "missing ethos token", nil)
			return AuthorizationResult{false, fmt.Sprintf("Missing Ethos token (%s header required)", EthosHeader)}
		}
		claims, err := a.EthosVerifier.VerifyEthosToken(ethosToken)
		if err != nil {
			a.log(audit.EventEthosTokenVerification, walletAddr, "failure", err.Error(), nil)
			return AuthorizationResult{false, "invalid Ethos token: " + err.Error()}
		}
		roles = claims.Roles
	}

	a.log(audit.EventAuthorization, walletAddr, "success", "Authorized", map[string]string{"roles": fmt.Sprintf("%v", roles)})
	return AuthorizationResult{true, "Authorized"}
}
