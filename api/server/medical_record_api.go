package server

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"unicare-bulksubmit/core/auth"
	"unicare-bulksubmit/core/validation"
)

// Receipt is returned for every submission that gets past authentication.
type Receipt struct {
	TxID    string   `json:"txId,omitempty"`
	Status  string   `json:"status"` // "pending" or "failed"
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

type submission struct {
	Record        json.RawMessage `json:"record"`
	Signature     string          `json:"signature"`
	WalletAddress string          `json:"walletAddress"`
}

func (s *Server) SubmitMedicalRecordHandler(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		s.reject()
		return c.String(http.StatusBadRequest, "Failed to read body: "+err.Error())
	}

	var sub submission
	if err := json.Unmarshal(body, &sub); err != nil {
		s.reject()
		return c.String(http.StatusBadRequest, "Invalid JSON: "+err.Error())
	}
	if len(sub.Record) == 0 || string(sub.Record) == "null" {
		s.reject()
		return c.String(http.StatusBadRequest, "Missing record")
	}

	if s.authorizer != nil {
		res := s.authorizer.AuthorizeSubmission(sub.Record, sub.Signature, sub.WalletAddress, c.Request().Header.Get(auth.EthosHeader))
		if !res.Authorized {
			s.reject()
			return c.String(http.StatusUnauthorized, "Unauthorized: "+res.Reason)
		}
	}

	if err := validation.ValidateMedicalPayload(sub.Record); err != nil {
		var fe *validation.FieldError
		if !errors.As(err, &fe) {
			log.WithError(err).Error("validation could not run")
			return c.String(http.StatusInternalServerError, "validation unavailable")
		}
		s.reject()
		return c.JSON(http.StatusUnprocessableEntity, Receipt{
			Status: "failed",
			Errors: []string{"validation_failed: " + fe.Msg},
		})
	}

	var ids struct {
		RecordID string `json:"recordId"`
	}
	if err := json.Unmarshal(sub.Record, &ids); err != nil || ids.RecordID == "" {
		s.reject()
		return c.String(http.StatusBadRequest, "Missing or invalid recordId")
	}

	hash := sha256.Sum256(body)
	txID := hex.EncodeToString(hash[:])

	s.mu.Lock()
	if _, dup := s.seen[ids.RecordID]; dup {
		s.rejected++
		s.mu.Unlock()
		return c.JSON(http.StatusConflict, Receipt{
			Status: "failed",
			Errors: []string{"duplicate_submission: recordId already exists"},
		})
	}
	s.seen[ids.RecordID] = txID
	s.accepted++
	s.mu.Unlock()

	log.WithFields(log.Fields{"txId": txID, "wallet": sub.WalletAddress}).Info("submission accepted")
	return c.JSON(http.StatusOK, Receipt{
		TxID:    txID,
		Status:  "pending",
		Message: "Submission added to mempool",
	})
}
