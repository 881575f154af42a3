package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unicare-bulksubmit/core/auth"
	"unicare-bulksubmit/core/record"
)

func newPayload(t *testing.T) record.SubmissionPayload {
	t.Helper()
	p, err := record.NewGenerator("").Generate(true)
	require.NoError(t, err)
	return p
}

func TestSubmitSendsHeadersAndBody(t *testing.T) {
	var gotPath, gotAuth, gotType, gotEthos string
	var got record.SubmissionPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotEthos = r.Header.Get(auth.EthosHeader)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"status":"ok"}`)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL+"/", "", DefaultToken, WithEthosToken(auth.StaticToken("ethos-jwt")))
	require.NoError(t, err)

	p := newPayload(t)
	resp, err := c.Submit(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, DefaultSubmitPath, gotPath)
	assert.Equal(t, "Bearer your-secure-token-here", gotAuth)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, "ethos-jwt", gotEthos)
	assert.Equal(t, p, got)

	assert.True(t, resp.OK())
	assert.True(t, resp.Body.IsJSON)
	assert.Equal(t, `{"status":"ok"}`, resp.Body.String())
}

func TestSubmitFallsBackToText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, "bad request")
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, DefaultSubmitPath, DefaultToken)
	require.NoError(t, err)

	resp, err := c.Submit(context.Background(), newPayload(t))
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, resp.Body.IsJSON)
	assert.Equal(t, "bad request", resp.Body.String())
}

func TestSubmitEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "", DefaultToken)
	require.NoError(t, err)

	resp, err := c.Submit(context.Background(), newPayload(t))
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, "", resp.Body.String())
}

func TestSubmitTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewClient(url, "", DefaultToken)
	require.NoError(t, err)
	_, err = c.Submit(context.Background(), newPayload(t))
	require.Error(t, err)
}

func TestSubmitTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewClient(srv.URL, "", DefaultToken, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)
	_, err = c.Submit(context.Background(), newPayload(t))
	require.Error(t, err)
}

func TestNewClientRequiresURL(t *testing.T) {
	_, err := NewClient("  ", "", DefaultToken)
	require.Error(t, err)
}

func TestBodyString(t *testing.T) {
	assert.Equal(t, "bad request", decodeBody([]byte(`"bad request"`)).String())
	assert.Equal(t, `{"a":1}`, decodeBody([]byte(`{ "a": 1 }`)).String())
	assert.Equal(t, "<html>", decodeBody([]byte(`<html>`)).String())
}

func TestBodyStringKeepsServerJSON(t *testing.T) {
	receipt := `{"txId":"ab","status":"pending","message":"Record accepted"}`
	assert.Equal(t, receipt, decodeBody([]byte(receipt)).String())
	assert.Equal(t, `{"errors":["a < b & c"]}`, decodeBody([]byte(`{"errors": ["a < b & c"]}`)).String())
	assert.Equal(t, `{"id":12345678901234567890}`, decodeBody([]byte("{\n  \"id\": 12345678901234567890\n}")).String())
}

func TestHealth(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/liveness", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"alive":true}`)
	})
	mux.HandleFunc("/nodehealth", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"ok","metrics":{"uptime_seconds":3,"accepted_records":5}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := NewClient(srv.URL, "", DefaultToken)
	require.NoError(t, err)
	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, h.Alive)
	require.NotNil(t, h.Metrics)
	assert.Equal(t, "ok", h.Metrics.Status)
	assert.Equal(t, 5, h.Metrics.Metrics.AcceptedRecords)
}
