package record

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"unicare-bulksubmit/core/wallet"
)

// InvalidPatientID is sent in place of a base64 patientId to probe the node's
// input validation.
const InvalidPatientID = "not_base64!"

const (
	DefaultWalletAddress = "prov123"

	patientIDBytes        = 12
	payloadSignatureBytes = 16
)

// EncryptionContext describes how the off-chain document is encrypted.
type EncryptionContext struct {
	Algorithm string `json:"algorithm"`
	IV        string `json:"iv"`
	Tag       string `json:"tag"`
}

// MedicalRecord is the synthetic record body submitted to the node.
type MedicalRecord struct {
	RecordID          string            `json:"recordId"`
	PatientID         string            `json:"patientId"`
	PatientDID        string            `json:"patientDID"`
	ProviderID        string            `json:"providerId"`
	DocHash           string            `json:"docHash"`
	SchemaVersion     string            `json:"schemaVersion"`
	RecordType        string            `json:"recordType"`
	IssuedAt          string            `json:"issuedAt"`
	SignedBy          string            `json:"signedBy"`
	RetentionPolicy   string            `json:"retentionPolicy"`
	EncryptionContext EncryptionContext `json:"encryptionContext"`
	ConsentStatus     string            `json:"consentStatus"`
	DataProvenance    string            `json:"dataProvenance"`
	PayloadSignature  string            `json:"payloadSignature"`
}

// SubmissionPayload is the envelope POSTed to submit-medical-record.
type SubmissionPayload struct {
	Record        MedicalRecord `json:"record"`
	Signature     string        `json:"signature,omitempty"` // base64 Ed25519 over SHA-256(record)
	WalletAddress string        `json:"walletAddress"`
}

// Generator builds fresh payloads. The zero value is not usable; see NewGenerator.
type Generator struct {
	walletAddress string
	signer        *wallet.Wallet
}

type Option func(*Generator)

// WithSigner signs every generated record with w. The payload walletAddress
// becomes w.Address.
func WithSigner(w *wallet.Wallet) Option {
	return func(g *Generator) {
		g.signer = w
		if w != nil && w.Address != "" {
			g.walletAddress = w.Address
		}
	}
}

func NewGenerator(walletAddress string, opts ...Option) *Generator {
	if walletAddress == "" {
		walletAddress = DefaultWalletAddress
	}
	g := &Generator{walletAddress: walletAddress}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate builds one payload. Only recordId, payloadSignature and (when
// valid) patientId vary between calls.
func (g *Generator) Generate(valid bool) (SubmissionPayload, error) {
	patientID := InvalidPatientID
	if valid {
		var err error
		if patientID, err = randomBase64(patientIDBytes); err != nil {
			return SubmissionPayload{}, err
		}
	}
	sig, err := randomBase64(payloadSignatureBytes)
	if err != nil {
		return SubmissionPayload{}, err
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return SubmissionPayload{}, fmt.Errorf("generate recordId: %w", err)
	}

	rec := MedicalRecord{
		RecordID:        id.String(),
		PatientID:       patientID,
		PatientDID:      "did:example:123456789abcdefghi",
		ProviderID:      "encrypted-provider-id",
		DocHash:         "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
		SchemaVersion:   "1.0",
		RecordType:      "lab_result",
		IssuedAt:        "2025-05-25T15:00:00Z",
		SignedBy:        "prov123",
		RetentionPolicy: "standard",
		EncryptionContext: EncryptionContext{
			Algorithm: "AES-GCM",
			IV:        "abcdefghijklmnop1234",
			Tag:       "ZYXWVUTSRQPONMLK9876",
		},
		ConsentStatus:    "granted",
		DataProvenance:   "hospital-system",
		PayloadSignature: sig,
	}

	payload := SubmissionPayload{Record: rec, WalletAddress: g.walletAddress}
	if g.signer != nil {
		body, err := json.Marshal(rec)
		if err != nil {
			return SubmissionPayload{}, fmt.Errorf("marshal record for signing: %w", err)
		}
		payload.Signature = g.signer.Sign(body)
	}
	return payload, nil
}

func randomBase64(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
