package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"unicare-bulksubmit/core/auth"
)

func newEthosTokenCmd() *cobra.Command {
	var (
		keyPath string
		subject string
		roles   []string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "ethos-token",
		Short: "Mint an RS256 Ethos token for the X-Ethos-Token header",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := auth.LoadRSAPrivateKeyFromFile(keyPath)
			if err != nil {
				return err
			}
			token, err := (&auth.EthosIssuer{PrivateKey: key, Subject: subject, Roles: roles, TTL: ttl}).Token()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&keyPath, "key", "", "RSA private key PEM (required)")
	cmd.Flags().StringVar(&subject, "subject", "1234567890", "token subject")
	cmd.Flags().StringSliceVar(&roles, "roles", []string{"admin"}, "roles claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}
