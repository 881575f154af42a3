package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"unicare-bulksubmit/api/server"
	"unicare-bulksubmit/core/audit"
	"unicare-bulksubmit/core/auth"
	"unicare-bulksubmit/core/wallet"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr         string
		walletsPath  string
		ethosPubPath string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a mock node that accepts or rejects records like UniCareOS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := server.Config{Token: a.cfg.Token}
			if walletsPath != "" || ethosPubPath != "" {
				authz := &auth.Authorizer{AuditLogger: audit.NewLogrusAuditLogger()}
				if walletsPath != "" {
					keys, err := wallet.LoadAllowlist(walletsPath)
					if err != nil {
						return err
					}
					authz.WalletKeys = keys
				}
				if ethosPubPath != "" {
					pub, err := auth.LoadRSAPublicKeyFromFile(ethosPubPath)
					if err != nil {
						return err
					}
					authz.EthosVerifier = &auth.EthosVerifier{KeyProvider: &auth.StaticKeyProvider{PublicKey: pub}}
				}
				cfg.Authorizer = authz
			}

			srv := server.New(cfg)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(addr) }()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}
			log.Info("shutting down mock node")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}
			if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&walletsPath, "wallets", "", "authorized_wallets.json; enables signature checks for listed wallets")
	cmd.Flags().StringVar(&ethosPubPath, "ethos-pubkey", "", "RSA public key PEM; requires a valid X-Ethos-Token")
	return cmd
}
