package validation

import (
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/medical_record_schema_v1.json
var schemaV1 []byte

var (
	schemaOnce sync.Once
	schemaV1C  *gojsonschema.Schema
	schemaErr  error

	overrideMu      sync.Mutex
	overrideSchemas = map[string]*gojsonschema.Schema{}
)

var didPattern = regexp.MustCompile(`^did:[a-z0-9]+:[a-zA-Z0-9.-]+$`)

// FieldError is returned for any record the node would reject. Check names
// the rule that failed (schema, base64_check, regex_check, length_check,
// timestamp_check).
type FieldError struct {
	Check string
	Field string
	Msg   string
}

func (e *FieldError) Error() string { return e.Msg }

func fail(check, field, msg string) error {
	// no PHI in the audit trail, only the rule and the field name
	log.WithFields(log.Fields{"check": check, "field": field}).Warn("record validation failed")
	return &FieldError{Check: check, Field: field, Msg: msg}
}

// schemaFor returns the compiled schema. MEDICAL_SCHEMA_PATH overrides the
// embedded v1 schema; each override path is compiled once.
func schemaFor() (*gojsonschema.Schema, error) {
	if path := os.Getenv("MEDICAL_SCHEMA_PATH"); path != "" {
		return overrideSchema(path)
	}
	schemaOnce.Do(func() {
		schemaV1C, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaV1))
	})
	return schemaV1C, schemaErr
}

func overrideSchema(path string) (*gojsonschema.Schema, error) {
	overrideMu.Lock()
	defer overrideMu.Unlock()
	if schema, ok := overrideSchemas[path]; ok {
		return schema, nil
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewReferenceLoader("file://" + path))
	if err != nil {
		return nil, err
	}
	overrideSchemas[path] = schema
	return schema, nil
}

// ValidateMedicalPayload validates a raw JSON record against the schema and
// the additional base64, DID, length and timestamp rules.
func ValidateMedicalPayload(payload []byte) error {
	var rec map[string]interface{}
	if err := json.Unmarshal(payload, &rec); err != nil {
		return fail("json", "", fmt.Sprintf("invalid JSON: %v", err))
	}

	schema, err := schemaFor()
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fail("schema", result.Errors()[0].Field(), "payload failed schema validation: "+strings.Join(msgs, "; "))
	}

	for _, field := range []string{"patientId", "payloadSignature", "notes"} {
		if val, ok := rec[field].(string); ok && val != "" {
			if _, err := base64.StdEncoding.DecodeString(val); err != nil {
				return fail("base64_check", field, field+" is not valid base64")
			}
		}
	}

	if did, ok := rec["patientDID"].(string); ok && !didPattern.MatchString(did) {
		return fail("regex_check", "patientDID", "patientDID does not match DID pattern")
	}

	if ctx, ok := rec["encryptionContext"].(map[string]interface{}); ok {
		for _, sub := range []string{"iv", "tag"} {
			if sval, ok := ctx[sub].(string); ok && sval != "" {
				if _, err := base64.StdEncoding.DecodeString(sval); err != nil {
					return fail("base64_check", "encryptionContext."+sub, fmt.Sprintf("encryptionContext.%s is not valid base64", sub))
				}
			}
		}
	}

	limits := []struct {
		field string
		max   int
	}{
		{"docHash", 64},
		{"payloadSignature", 512},
		{"notes", 1024},
	}
	for _, l := range limits {
		if val, ok := rec[l.field].(string); ok && utf8.RuneCountInString(val) > l.max {
			return fail("length_check", l.field, fmt.Sprintf("%s exceeds %d characters", l.field, l.max))
		}
	}

	issuedAt, _ := rec["issuedAt"].(string)
	return EnforceTimestampFormat(issuedAt)
}

// ValidateRecord marshals record and runs ValidateMedicalPayload on it.
func ValidateRecord(record interface{}) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("could not marshal record to JSON: %w", err)
	}
	return ValidateMedicalPayload(payload)
}

// IsValidRecordType checks if the recordType is allowed
func IsValidRecordType(recordType string) bool {
	switch recordType {
	case "lab_result", "imaging", "discharge_summary":
		return true
	default:
		return false
	}
}

// EnforceTimestampFormat checks if issuedAt is RFC3339
func EnforceTimestampFormat(issuedAt string) error {
	if issuedAt == "" {
		return fail("timestamp_check", "issuedAt", "issuedAt is empty")
	}
	if _, err := time.Parse(time.RFC3339, issuedAt); err != nil {
		return fail("timestamp_check", "issuedAt", fmt.Sprintf("issuedAt must be RFC3339: %v", err))
	}
	return nil
}
