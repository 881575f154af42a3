package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// EnvPrefix is prepended to every variable, e.g. BULKSUBMIT_API_URL.
const EnvPrefix = "BULKSUBMIT"

// Config holds every tunable of the submitter. Defaults reproduce the fixed
// local test setup: ten records to localhost:8080 with the placeholder token.
type Config struct {
	BaseURL       string        `envconfig:"API_URL" default:"http://localhost:8080"`
	SubmitPath    string        `envconfig:"SUBMIT_PATH" default:"/api/v1/submit-medical-record"`
	Token         string        `envconfig:"API_TOKEN" default:"your-secure-token-here"`
	Count         int           `envconfig:"COUNT" default:"10"`
	Timeout       time.Duration `envconfig:"TIMEOUT" default:"30s"`
	WalletAddress string        `envconfig:"WALLET_ADDRESS" default:"prov123"`
	SignerKey     string        `envconfig:"SIGNER_PRIVKEY"` // base64 Ed25519 private key
	EthosToken    string        `envconfig:"ETHOS_TOKEN"`
	EthosKeyPath  string        `envconfig:"ETHOS_PRIVATE_KEY"` // RSA PEM; mints a token per request
	HistoryPath   string        `envconfig:"HISTORY_DB"`
	HistoryDEK    string        `envconfig:"HISTORY_DEK"`
	AbortOnError  bool          `envconfig:"ABORT_ON_ERROR"`
	NoColor       bool          `envconfig:"NO_COLOR"`
	LogLevel      string        `envconfig:"LOG_LEVEL" default:"warn"`
}

// Load reads the given env files (missing ones are skipped) and then the
// process environment. Variables already set in the environment win over
// the files.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
		log.Debugf("loaded environment from %s", f)
	}

	cfg := &Config{}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.Count < 0 {
		return fmt.Errorf("count must not be negative, got %d", c.Count)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.EthosToken != "" && c.EthosKeyPath != "" {
		return errors.New("set either an Ethos token or an Ethos private key, not both")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Flag names shared by RegisterFlags and ApplyFlags.
const (
	FlagURL          = "url"
	FlagPath         = "path"
	FlagToken        = "token"
	FlagCount        = "count"
	FlagTimeout      = "timeout"
	FlagWallet       = "wallet"
	FlagEthosToken   = "ethos-token"
	FlagEthosKey     = "ethos-key"
	FlagHistory      = "history"
	FlagAbortOnError = "abort-on-error"
	FlagNoColor      = "no-color"
	FlagLogLevel     = "log-level"
	FlagEnvFile      = "env-file"
)

// RegisterFlags defines the override flags. Flag defaults are informational;
// only flags the user actually sets override the environment.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String(FlagURL, "http://localhost:8080", "node base URL ("+EnvPrefix+"_API_URL)")
	flags.String(FlagPath, "/api/v1/submit-medical-record", "submit endpoint path ("+EnvPrefix+"_SUBMIT_PATH)")
	flags.String(FlagToken, "your-secure-token-here", "bearer token ("+EnvPrefix+"_API_TOKEN)")
	flags.IntP(FlagCount, "n", 10, "number of records to submit ("+EnvPrefix+"_COUNT)")
	flags.Duration(FlagTimeout, 30*time.Second, "per-request timeout ("+EnvPrefix+"_TIMEOUT)")
	flags.String(FlagWallet, "prov123", "walletAddress sent with each record ("+EnvPrefix+"_WALLET_ADDRESS)")
	flags.String(FlagEthosToken, "", "static X-Ethos-Token value ("+EnvPrefix+"_ETHOS_TOKEN)")
	flags.String(FlagEthosKey, "", "RSA private key PEM used to mint X-Ethos-Token ("+EnvPrefix+"_ETHOS_PRIVATE_KEY)")
	flags.String(FlagHistory, "", "LevelDB directory for run history ("+EnvPrefix+"_HISTORY_DB)")
	flags.Bool(FlagAbortOnError, false, "stop at the first transport error ("+EnvPrefix+"_ABORT_ON_ERROR)")
	flags.Bool(FlagNoColor, false, "disable ANSI colors ("+EnvPrefix+"_NO_COLOR)")
	flags.String(FlagLogLevel, "warn", "log level ("+EnvPrefix+"_LOG_LEVEL)")
	flags.StringSlice(FlagEnvFile, []string{".env"}, "env files to load before the environment")
}

// ApplyFlags copies every flag the user set onto c.
func (c *Config) ApplyFlags(flags *pflag.FlagSet) error {
	var err error
	set := func(name string, apply func() error) {
		if err == nil && flags.Changed(name) {
			err = apply()
		}
	}
	set(FlagURL, func() (e error) { c.BaseURL, e = flags.GetString(FlagURL); return })
	set(FlagPath, func() (e error) { c.SubmitPath, e = flags.GetString(FlagPath); return })
	set(FlagToken, func() (e error) { c.Token, e = flags.GetString(FlagToken); return })
	set(FlagCount, func() (e error) { c.Count, e = flags.GetInt(FlagCount); return })
	set(FlagTimeout, func() (e error) { c.Timeout, e = flags.GetDuration(FlagTimeout); return })
	set(FlagWallet, func() (e error) { c.WalletAddress, e = flags.GetString(FlagWallet); return })
	set(FlagEthosToken, func() (e error) { c.EthosToken, e = flags.GetString(FlagEthosToken); return })
	set(FlagEthosKey, func() (e error) { c.EthosKeyPath, e = flags.GetString(FlagEthosKey); return })
	set(FlagHistory, func() (e error) { c.HistoryPath, e = flags.GetString(FlagHistory); return })
	set(FlagAbortOnError, func() (e error) { c.AbortOnError, e = flags.GetBool(FlagAbortOnError); return })
	set(FlagNoColor, func() (e error) { c.NoColor, e = flags.GetBool(FlagNoColor); return })
	set(FlagLogLevel, func() (e error) { c.LogLevel, e = flags.GetString(FlagLogLevel); return })
	if err != nil {
		return err
	}
	return c.Validate()
}

// EnvFiles returns the --env-file values, or the default when the flag is
// not registered.
func EnvFiles(flags *pflag.FlagSet) []string {
	files, err := flags.GetStringSlice(FlagEnvFile)
	if err != nil {
		return []string{".env"}
	}
	return files
}

// ConfigureLogging points logrus at stderr with the configured level.
func (c *Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.WarnLevel
	}
	log.SetOutput(os.Stderr)
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}
