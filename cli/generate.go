package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newGenerateCmd(a *app) *cobra.Command {
	var invalid bool
	var output string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print one submission payload without sending it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := a.generator()
			if err != nil {
				return err
			}
			payload, err := gen.Generate(!invalid)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(payload, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			if output != "" {
				return os.WriteFile(output, out, 0644)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&invalid, "invalid", false, "use the non-base64 patientId")
	cmd.Flags().StringVarP(&output, "output", "o", "", "also write the payload to this file")
	return cmd
}
