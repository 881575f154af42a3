package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"unicare-bulksubmit/core/auth"
	"unicare-bulksubmit/core/record"
)

const (
	DefaultBaseURL    = "http://localhost:8080"
	DefaultSubmitPath = "/api/v1/submit-medical-record"
	DefaultToken      = "your-secure-token-here"
	DefaultTimeout    = 30 * time.Second
)

// Body is the decoded response body: structured JSON when the body parses,
// the raw text otherwise. A body that fails to decode is never an error.
type Body struct {
	JSON   interface{}
	Text   string
	IsJSON bool
}

func decodeBody(raw []byte) Body {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return Body{Text: string(raw)}
	}
	return Body{JSON: v, Text: string(raw), IsJSON: true}
}

// String renders the body for console output. JSON strings print unquoted,
// other JSON values print compacted from the raw bytes so key order, escaping
// and number precision match what the server sent.
func (b Body) String() string {
	if !b.IsJSON {
		return b.Text
	}
	if s, ok := b.JSON.(string); ok {
		return s
	}
	var out bytes.Buffer
	if err := json.Compact(&out, []byte(b.Text)); err != nil {
		return b.Text
	}
	return out.String()
}

type Response struct {
	StatusCode int
	Body       Body
	Duration   time.Duration
}

// OK reports whether the node accepted the record. Only 200 counts.
func (r *Response) OK() bool { return r.StatusCode == http.StatusOK }

// Client submits payloads to a UniCareOS node.
type Client struct {
	baseURL  string
	endpoint string
	token    string
	ethos    auth.TokenSource
	client   *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client.Timeout = d }
}

// WithEthosToken attaches an X-Ethos-Token header from src on every submit.
func WithEthosToken(src auth.TokenSource) Option {
	return func(c *Client) { c.ethos = src }
}

func NewClient(baseURL, path, token string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("base URL required")
	}
	if path == "" {
		path = DefaultSubmitPath
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	c := &Client{
		baseURL:  baseURL,
		endpoint: baseURL + path,
		token:    token,
		client: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Endpoint() string { return c.endpoint }

// Submit POSTs payload exactly once. Transport failures are returned as
// errors; any HTTP status, including non-200, is a Response.
func (c *Client) Submit(ctx context.Context, payload record.SubmissionPayload) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	if c.ethos != nil {
		tok, err := c.ethos.Token()
		if err != nil {
			return nil, fmt.Errorf("ethos token: %w", err)
		}
		req.Header.Set(auth.EthosHeader, tok)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit record %s: %w", payload.Record.RecordID, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response for record %s: %w", payload.Record.RecordID, err)
	}
	out := &Response{StatusCode: resp.StatusCode, Body: decodeBody(raw), Duration: time.Since(start)}

	log.WithFields(log.Fields{
		"recordId": payload.Record.RecordID,
		"status":   resp.StatusCode,
		"elapsed":  out.Duration,
	}).Debug("record submitted")
	return out, nil
}
