package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history [runID]",
		Short: "List stored runs, or show the outcomes of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer tw.Flush()

			if len(args) == 1 {
				outcomes, err := store.LoadRun(args[0])
				if err != nil {
					return fmt.Errorf("run %s: %w", args[0], err)
				}
				fmt.Fprintln(tw, "RECORD\tVALID\tSTATUS\tRECORD ID\tBODY")
				for _, o := range outcomes {
					status := fmt.Sprint(o.StatusCode)
					if o.Error != "" {
						status = "error"
					}
					fmt.Fprintf(tw, "%d\t%v\t%s\t%s\t%s\n", o.Iteration, o.Valid, status, o.RecordID, o.Body)
				}
				return nil
			}

			runs, err := store.ListRuns()
			if err != nil {
				return err
			}
			fmt.Fprintln(tw, "RUN ID\tSTARTED\tOK\tFAIL\tPATTERN")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", r.RunID, r.StartedAt.Format(time.RFC3339), r.Passed, r.Failed, r.Pattern)
			}
			return nil
		},
	}
}
