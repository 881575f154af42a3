package record

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unicare-bulksubmit/core/wallet"
)

func TestGenerateRecordIDsAreUnique(t *testing.T) {
	g := NewGenerator("")
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		p, err := g.Generate(i%2 == 0)
		require.NoError(t, err)

		_, err = uuid.Parse(p.Record.RecordID)
		require.NoError(t, err)
		require.False(t, seen[p.Record.RecordID], "duplicate recordId %s", p.Record.RecordID)
		seen[p.Record.RecordID] = true
	}
}

func TestGeneratePatientIDAlternation(t *testing.T) {
	g := NewGenerator("")
	for i := 0; i < 10; i++ {
		p, err := g.Generate(i%2 == 0)
		require.NoError(t, err)

		if i%2 == 0 {
			raw, err := base64.StdEncoding.DecodeString(p.Record.PatientID)
			require.NoError(t, err, "record %d", i)
			assert.Len(t, raw, patientIDBytes)
		} else {
			assert.Equal(t, InvalidPatientID, p.Record.PatientID)
			_, err := base64.StdEncoding.DecodeString(p.Record.PatientID)
			assert.Error(t, err)
		}
	}
}

func TestGenerateFixedFields(t *testing.T) {
	p, err := NewGenerator("").Generate(true)
	require.NoError(t, err)

	assert.Equal(t, DefaultWalletAddress, p.WalletAddress)
	assert.Equal(t, "lab_result", p.Record.RecordType)
	assert.Equal(t, "AES-GCM", p.Record.EncryptionContext.Algorithm)
	assert.Empty(t, p.Signature)

	sig, err := base64.StdEncoding.DecodeString(p.Record.PayloadSignature)
	require.NoError(t, err)
	assert.Len(t, sig, payloadSignatureBytes)

	body, err := json.Marshal(p)
	require.NoError(t, err)
	var wire map[string]any
	require.NoError(t, json.Unmarshal(body, &wire))
	assert.NotContains(t, wire, "signature")
	rec := wire["record"].(map[string]any)
	for _, key := range []string{"recordId", "patientId", "patientDID", "providerId", "docHash", "schemaVersion",
		"recordType", "issuedAt", "signedBy", "retentionPolicy", "encryptionContext", "consentStatus",
		"dataProvenance", "payloadSignature"} {
		assert.Contains(t, rec, key)
	}
}

func TestGenerateSigned(t *testing.T) {
	w, err := wallet.Generate("test_wallet")
	require.NoError(t, err)

	p, err := NewGenerator("", WithSigner(w)).Generate(true)
	require.NoError(t, err)
	assert.Equal(t, "test_wallet", p.WalletAddress)

	body, err := json.Marshal(p.Record)
	require.NoError(t, err)
	require.NoError(t, wallet.Verify(w.PublicKey, body, p.Signature))
}
