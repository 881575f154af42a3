package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type HealthMetrics struct {
	Status  string `json:"status"`
	Metrics struct {
		UptimeSeconds   int64   `json:"uptime_seconds"`
		CPULoadPercent  float64 `json:"cpu_load_percent"`
		MemoryMB        float64 `json:"memory_mb"`
		AcceptedRecords int     `json:"accepted_records"`
		RejectedRecords int     `json:"rejected_records"`
	} `json:"metrics"`
}

type Health struct {
	Alive   bool
	Metrics *HealthMetrics // nil when the node has no /nodehealth endpoint
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s: %w", path, err)
	}
	return resp.StatusCode, nil
}

// Health queries liveness and, if available, node metrics.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var live struct {
		Alive bool `json:"alive"`
	}
	code, err := c.getJSON(ctx, "/health/liveness", &live)
	if err != nil {
		return Health{}, err
	}
	if code != http.StatusOK {
		return Health{}, fmt.Errorf("liveness: status %d", code)
	}

	h := Health{Alive: live.Alive}
	var metrics HealthMetrics
	code, err = c.getJSON(ctx, "/nodehealth", &metrics)
	if err != nil {
		return Health{}, err
	}
	if code == http.StatusOK {
		h.Metrics = &metrics
	}
	return h, nil
}
