package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"unicare-bulksubmit/api/client"
	"unicare-bulksubmit/core/audit"
	"unicare-bulksubmit/core/auth"
	"unicare-bulksubmit/core/config"
	"unicare-bulksubmit/core/record"
	"unicare-bulksubmit/core/runner"
	"unicare-bulksubmit/core/storage"
	"unicare-bulksubmit/core/wallet"
)

// app carries the resolved configuration from the root's PersistentPreRunE
// to the subcommands.
type app struct {
	cfg *config.Config
}

func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "bulksubmit",
		Short: "Submit synthetic medical records to a UniCareOS node",
		Long: "Builds alternating valid and invalid medical-record payloads, POSTs them to the\n" +
			"node's submit-medical-record endpoint and prints an [OK] or [FAIL] line per record.",
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.loadConfig,
		RunE:              a.runBatch,
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newGenerateCmd(a),
		newKeygenCmd(),
		newEthosTokenCmd(),
		newServeCmd(a),
		newHealthCmd(a),
		newHistoryCmd(a),
	)
	return root
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) loadConfig(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	cfg, err := config.Load(config.EnvFiles(flags)...)
	if err != nil {
		return err
	}
	if err := cfg.ApplyFlags(flags); err != nil {
		return err
	}
	cfg.ConfigureLogging()
	a.cfg = cfg
	return nil
}

func (a *app) generator() (*record.Generator, error) {
	var opts []record.Option
	if a.cfg.SignerKey != "" {
		w, err := wallet.FromBase64(a.cfg.WalletAddress, a.cfg.SignerKey)
		if err != nil {
			return nil, fmt.Errorf("signer key: %w", err)
		}
		opts = append(opts, record.WithSigner(w))
	}
	return record.NewGenerator(a.cfg.WalletAddress, opts...), nil
}

func (a *app) client() (*client.Client, error) {
	opts := []client.Option{client.WithTimeout(a.cfg.Timeout)}
	switch {
	case a.cfg.EthosToken != "":
		opts = append(opts, client.WithEthosToken(auth.StaticToken(a.cfg.EthosToken)))
	case a.cfg.EthosKeyPath != "":
		key, err := auth.LoadRSAPrivateKeyFromFile(a.cfg.EthosKeyPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, client.WithEthosToken(&auth.EthosIssuer{
			PrivateKey: key,
			Subject:    a.cfg.WalletAddress,
			Roles:      []string{"provider"},
		}))
	}
	return client.NewClient(a.cfg.BaseURL, a.cfg.SubmitPath, a.cfg.Token, opts...)
}

func (a *app) openStore() (*storage.Store, error) {
	if a.cfg.HistoryPath == "" {
		return nil, fmt.Errorf("no history database configured (--%s or %s_HISTORY_DB)", config.FlagHistory, config.EnvPrefix)
	}
	var opts []storage.Option
	if a.cfg.HistoryDEK != "" {
		dek, err := storage.ParseDEK(a.cfg.HistoryDEK)
		if err != nil {
			return nil, err
		}
		opts = append(opts, storage.WithEncryption(dek))
	}
	return storage.Open(a.cfg.HistoryPath, opts...)
}

// runBatch is the default action: submit cfg.Count records and print results.
// Rejected records do not change the exit status.
func (a *app) runBatch(cmd *cobra.Command, args []string) error {
	gen, err := a.generator()
	if err != nil {
		return err
	}
	c, err := a.client()
	if err != nil {
		return err
	}

	opts := []runner.Option{
		runner.WithCount(a.cfg.Count),
		runner.WithAbortOnError(a.cfg.AbortOnError),
		runner.WithAuditLogger(audit.NewLogrusAuditLogger()),
	}
	if a.cfg.NoColor {
		opts = append(opts, runner.WithColor(false))
	}
	if a.cfg.HistoryPath != "" {
		store, err := a.openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, runner.WithRecorder(store))
	}

	log.WithField("endpoint", c.Endpoint()).Debug("starting run")
	sum, err := runner.New(gen, c, cmd.OutOrStdout(), opts...).Run(cmd.Context())
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"run": sum.RunID, "pattern": sum.Pattern()}).Debug("run finished")
	return nil
}
