package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"unicare-bulksubmit/core/wallet"
)

func newKeygenCmd() *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an Ed25519 signing wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := wallet.Generate(address)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wallet Address: %s\n", w.Address)
			fmt.Fprintf(out, "Public Key (base64): %s\n", w.PublicKeyBase64())
			fmt.Fprintf(out, "Private Key (base64): %s\n", w.PrivateKeyBase64())
			return nil
		},
	}
	cmd.Flags().StringVar(&address, "address", "prov123", "wallet address to label the key with")
	return cmd
}
