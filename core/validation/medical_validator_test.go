package validation

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unicare-bulksubmit/core/record"
)

const validPayloadTmpl = `{
  "recordId": "123e4567-e89b-12d3-a456-426614174000",
  "patientId": "UFJPVjEyMzQ1",
  "patientDID": "did:example:123456abcdef",
  "providerId": "encrypted-provider-id",
  "schemaVersion": "1.0",
  "recordType": "lab_result",
  "docHash": "%DOCHASH%",
  "issuedAt": "%ISSUED%",
  "signedBy": "PROV123",
  "consentStatus": "granted",
  "dataProvenance": "hospital-system",
  "retentionPolicy": "7 years",
  "encryptionContext": {
    "algorithm": "AES-GCM",
    "iv": "YWJjZGVmZ2hpamtsbW5vcA==",
    "tag": "YWJjZGVmZ2hpamtsbW5vcA=="
  },
  "payloadSignature": "YWJjZGVmZ2hpamtsbW5vcA=="%EXTRA%
}`

func payload(docHash, issuedAt, extra string) []byte {
	r := strings.NewReplacer("%DOCHASH%", docHash, "%ISSUED%", issuedAt, "%EXTRA%", extra)
	return []byte(r.Replace(validPayloadTmpl))
}

const goodHash = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func requireCheck(t *testing.T, err error, check, field string) {
	t.Helper()
	var fe *FieldError
	require.True(t, errors.As(err, &fe), "expected *FieldError, got %v", err)
	assert.Equal(t, check, fe.Check)
	if field != "" {
		assert.Equal(t, field, fe.Field)
	}
}

func TestValidateMedicalPayload_Valid(t *testing.T) {
	require.NoError(t, ValidateMedicalPayload(payload(goodHash, "2025-05-22T18:00:00Z", "")))
}

func TestValidateMedicalPayload_ValidNotes(t *testing.T) {
	err := ValidateMedicalPayload(payload(goodHash, "2025-05-22T18:00:00Z", `, "notes": "U29tZSB2YWxpZCBub3RlcyBoZXJlIg=="`))
	require.NoError(t, err)
}

func TestValidateMedicalPayload_MissingField(t *testing.T) {
	err := ValidateMedicalPayload([]byte(`{"recordId": "123e4567-e89b-12d3-a456-426614174000"}`))
	requireCheck(t, err, "schema", "")
}

func TestValidateMedicalPayload_InvalidJSON(t *testing.T) {
	requireCheck(t, ValidateMedicalPayload([]byte(`{not json`)), "json", "")
}

func TestValidateMedicalPayload_InvalidDocHash(t *testing.T) {
	requireCheck(t, ValidateMedicalPayload(payload("notavalidhexhash", "2025-05-22T18:00:00Z", "")), "schema", "")
	requireCheck(t, ValidateMedicalPayload(payload(goodHash+"a", "2025-05-22T18:00:00Z", "")), "schema", "")
}

func TestValidateMedicalPayload_InvalidTimestamp(t *testing.T) {
	requireCheck(t, ValidateMedicalPayload(payload(goodHash, "not-a-date", "")), "timestamp_check", "issuedAt")
}

func TestValidateMedicalPayload_NotesTooLong(t *testing.T) {
	long := strings.Repeat("A", 1028)
	requireCheck(t, ValidateMedicalPayload(payload(goodHash, "2025-05-22T18:00:00Z", `, "notes": "`+long+`"`)), "length_check", "notes")
}

func TestValidateMedicalPayload_BadDID(t *testing.T) {
	p := strings.Replace(string(payload(goodHash, "2025-05-22T18:00:00Z", "")), "did:example:123456abcdef", "ZGlkOmV4YW1wbGU6MTIzNDU2YWJjZGVm", 1)
	requireCheck(t, ValidateMedicalPayload([]byte(p)), "regex_check", "patientDID")
}

func TestValidateRecord_GeneratedRecords(t *testing.T) {
	g := record.NewGenerator("")

	valid, err := g.Generate(true)
	require.NoError(t, err)
	require.NoError(t, ValidateRecord(valid.Record))

	invalid, err := g.Generate(false)
	require.NoError(t, err)
	requireCheck(t, ValidateRecord(invalid.Record), "base64_check", "patientId")
}

func TestIsValidRecordType(t *testing.T) {
	assert.True(t, IsValidRecordType("imaging"))
	assert.False(t, IsValidRecordType("x-ray"))
}

func TestSchemaOverrideCompiledOncePerPath(t *testing.T) {
	dir := t.TempDir()
	strict := filepath.Join(dir, "strict.json")
	require.NoError(t, os.WriteFile(strict, []byte(`{"type":"object","required":["ward"]}`), 0o600))
	t.Setenv("MEDICAL_SCHEMA_PATH", strict)

	first, err := schemaFor()
	require.NoError(t, err)
	again, err := schemaFor()
	require.NoError(t, err)
	assert.Same(t, first, again)

	rec := payload(goodHash, "2025-05-22T18:00:00Z", "")
	requireCheck(t, ValidateMedicalPayload(rec), "schema", "")

	// rewriting the file does not change the schema already compiled for it
	require.NoError(t, os.WriteFile(strict, []byte(`{"type":"object"}`), 0o600))
	requireCheck(t, ValidateMedicalPayload(rec), "schema", "")

	loose := filepath.Join(dir, "loose.json")
	require.NoError(t, os.WriteFile(loose, []byte(`{"type":"object"}`), 0o600))
	t.Setenv("MEDICAL_SCHEMA_PATH", loose)
	other, err := schemaFor()
	require.NoError(t, err)
	assert.NotSame(t, first, other)
	require.NoError(t, ValidateMedicalPayload(rec))
}
