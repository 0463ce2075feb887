package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/corey/decipher/internal/adapters/prom"
	"github.com/corey/decipher/internal/app"
)

var (
	flagConfig    string
	flagLogLevel  string
	flagDB        string
	flagNoHistory bool
	flagAlphabet  string
	flagColor     string
	flagNoColor   bool
)

var rootCmd = &cobra.Command{
	Use:   "decipher",
	Short: "decipher: substitution cipher breaker",
	Long: "Breaks simple substitution ciphers with a bigram language model and a\n" +
		"Metropolis-Hastings search over decoding keys.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		useColor = resolveColor(flagColor, flagNoColor)
	},
}

// projectRoot returns the project root (cwd by default).
func projectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return dir
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "config file (default .decipher/config.yaml)")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&flagDB, "db", "", "history database (default .decipher/decipher.db)")
	pf.BoolVar(&flagNoHistory, "no-history", false, "do not record runs")
	pf.StringVar(&flagAlphabet, "alphabet", "", "ordered symbol set (default a-z, 0-9 and .,-!? plus space)")
	pf.StringVar(&flagColor, "color", "auto", "color output: auto, always, never")
	pf.BoolVar(&flagNoColor, "no-color", false, "disable color output")

	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(freqCmd)
	rootCmd.AddCommand(encryptCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(modelCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(demoCmd)
}

// loadConfig builds the effective config: file, env, then explicitly set
// persistent flags. Command-specific flags are applied by the caller,
// which must call Validate afterwards.
func loadConfig(cmd *cobra.Command) (app.Config, error) {
	path := flagConfig
	if path == "" {
		path = app.NewPaths(projectRoot()).Config
	}
	cfg, err := app.LoadConfig(path)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if flags.Changed("no-history") {
		cfg.History = !flagNoHistory
	}
	if flags.Changed("alphabet") {
		cfg.Alphabet = flagAlphabet
	}
	return cfg, nil
}

// newLogger builds the CLI's structured logger on stderr.
func newLogger(w io.Writer, cfg app.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.Level()}))
}

// openApp validates cfg and wires the App. Lock contention on the history
// database is turned into actionable guidance.
func openApp(cmd *cobra.Command, cfg app.Config, metrics *prom.Collector) (*app.App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	root := projectRoot()
	a, err := app.New(app.Options{
		ProjectRoot: root,
		DBPath:      flagDB,
		Config:      cfg,
		Logger:      newLogger(cmd.ErrOrStderr(), cfg),
		Metrics:     metrics,
	})
	if err != nil {
		if isDBLockError(err) {
			dbPath := flagDB
			if dbPath == "" {
				dbPath = app.NewPaths(root).DB
			}
			return nil, fmt.Errorf("%s: %w", diagnoseDBLock(dbPath), err)
		}
		return nil, err
	}
	return a, nil
}
