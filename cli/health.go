package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Query the target node's liveness and health metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			h, err := c.Health(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Liveness: %v\n", h.Alive)
			if h.Metrics == nil {
				return nil
			}
			fmt.Fprintf(out, "Node Health: %s\n", h.Metrics.Status)
			fmt.Fprintf(out, "Uptime: %ds\n", h.Metrics.Metrics.UptimeSeconds)
			fmt.Fprintf(out, "CPU Load: %.2f%%\n", h.Metrics.Metrics.CPULoadPercent)
			fmt.Fprintf(out, "Memory Usage: %.2f MB\n", h.Metrics.Metrics.MemoryMB)
			fmt.Fprintf(out, "Accepted Records: %d\n", h.Metrics.Metrics.AcceptedRecords)
			fmt.Fprintf(out, "Rejected Records: %d\n", h.Metrics.Metrics.RejectedRecords)
			return nil
		},
	}
}
