package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v3/cpu"
)

// NodeMetrics holds the health metrics reported on /nodehealth.
type NodeMetrics struct {
	UptimeSeconds   int64   `json:"uptime_seconds"`
	CPULoadPercent  float64 `json:"cpu_load_percent"`
	MemoryMB        float64 `json:"memory_mb"`
	AcceptedRecords int     `json:"accepted_records"`
	RejectedRecords int     `json:"rejected_records"`
}

func (s *Server) GetNodeMetrics() NodeMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	cpuLoad := 0.0
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		cpuLoad = percents[0]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return NodeMetrics{
		UptimeSeconds:   int64(time.Since(s.startTime).Seconds()),
		CPULoadPercent:  cpuLoad,
		MemoryMB:        float64(m.Alloc) / (1024 * 1024),
		AcceptedRecords: s.accepted,
		RejectedRecords: s.rejected,
	}
}

func (s *Server) NodeHealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"metrics": s.GetNodeMetrics(),
	})
}

func (s *Server) LivenessHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"alive": true})
}

func (s *Server) ReadinessHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ready": true})
}
