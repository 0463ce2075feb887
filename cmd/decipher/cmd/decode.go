package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/corey/decipher/internal/adapters/prom"
	"github.com/corey/decipher/internal/app"
	"github.com/corey/decipher/internal/ports"
)

var (
	decodeCorpus      string
	decodeAttempts    int
	decodeSteps       int
	decodeWorkers     int
	decodeSeed        uint64
	decodePlaintext   string
	decodeWatch       bool
	decodeMetricsAddr string
	decodeFullRescore bool
	decodeCribs       []string
)

var decodeCmd = &cobra.Command{
	Use:   "decode [CIPHER_FILE|-]",
	Short: "Break a substitution cipher with Metropolis-Hastings search",
	Long: "Trains a bigram model on --corpus and searches decoding keys with\n" +
		"Metropolis-Hastings restarts. Reads the ciphertext from CIPHER_FILE or stdin.\n" +
		"With --watch, decodes again whenever the ciphertext, corpus or plaintext changes.",
	Args: cobra.MaximumNArgs(1),
	RunE: runDecode,
}

func init() {
	f := decodeCmd.Flags()
	f.StringVar(&decodeCorpus, "corpus", "", "training text for the bigram model")
	f.IntVar(&decodeAttempts, "attempts", 0, "independent restarts (default 100)")
	f.IntVar(&decodeSteps, "steps", 0, "proposals per restart (default 10000)")
	f.IntVar(&decodeWorkers, "workers", 0, "restarts run in parallel (default 1)")
	f.Uint64Var(&decodeSeed, "seed", 0, "random seed; equal seeds give equal output")
	f.StringVar(&decodePlaintext, "plaintext", "", "known plaintext, to report accuracy")
	f.BoolVar(&decodeWatch, "watch", false, "re-decode when input files change")
	f.StringVar(&decodeMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	f.BoolVar(&decodeFullRescore, "full-rescore", false, "score whole candidates instead of affected bigrams")
	f.StringSliceVar(&decodeCribs, "crib", nil, "word expected in the plaintext; reported if the decode contains it (repeatable)")
}

// searchConfig applies decode's explicitly set flags over the loaded config.
func searchConfig(cmd *cobra.Command) (app.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cfg, err
	}
	f := cmd.Flags()
	if f.Changed("corpus") {
		cfg.Corpus = decodeCorpus
	}
	if f.Changed("attempts") {
		cfg.Attempts = decodeAttempts
	}
	if f.Changed("steps") {
		cfg.Steps = decodeSteps
	}
	if f.Changed("workers") {
		cfg.Workers = decodeWorkers
	}
	if f.Changed("seed") {
		cfg.Seed = decodeSeed
	}
	if f.Changed("metrics-addr") {
		cfg.MetricsAddr = decodeMetricsAddr
	}
	if f.Changed("full-rescore") {
		cfg.FullRescore = decodeFullRescore
	}
	return cfg, cfg.Validate()
}

func runDecode(cmd *cobra.Command, args []string) error {
	cfg, err := searchConfig(cmd)
	if err != nil {
		return err
	}
	return decodeWith(cmd, args, cfg, decodeRun{
		mode:      ports.ModeMCMC,
		plaintext: decodePlaintext,
		watch:     decodeWatch,
		cribs:     decodeCribs,
	})
}

// decodeRun carries the per-command options of decode and freq.
type decodeRun struct {
	mode      string
	ngram     int
	plaintext string // known plaintext file
	watch     bool
	cribs     []string
}

// decodeWith is shared by decode and freq.
func decodeWith(cmd *cobra.Command, args []string, cfg app.Config, run decodeRun) error {
	var metrics *prom.Collector
	if cfg.MetricsAddr != "" {
		metrics = prom.NewCollector()
	}
	a, err := openApp(cmd, cfg, metrics)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if metrics != nil {
		shutdown := serveMetrics(cfg.MetricsAddr, metrics, a)
		defer shutdown()
	}

	out := cmd.OutOrStdout()
	if run.watch {
		if len(args) == 0 || args[0] == "-" {
			return errors.New("--watch needs a ciphertext file")
		}
		return a.Watch(ctx, app.WatchRequest{
			CipherPath:    args[0],
			CorpusPath:    cfg.Corpus,
			PlaintextPath: run.plaintext,
			Mode:          run.mode,
			NGram:         run.ngram,
			Cribs:         run.cribs,
		}, func(o *app.Outcome, err error) {
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", paint(colorRed, "error:"), err)
				return
			}
			fmt.Fprint(out, formatOutcome(o))
		})
	}

	in, _, err := openInput(cmd, args, "ciphertext")
	if err != nil {
		return err
	}
	ct, err := app.ReadCiphertext(in)
	in.Close()
	if err != nil {
		return err
	}
	plain, err := readKnownPlaintext(run.plaintext, a.ReadPlaintext)
	if err != nil {
		return err
	}

	o, err := a.Decode(app.DecodeRequest{
		Ciphertext: ct,
		CorpusPath: cfg.Corpus,
		Plaintext:  plain,
		Mode:       run.mode,
		NGram:      run.ngram,
		Cribs:      run.cribs,
	})
	if err != nil {
		return err
	}
	if isTerminal(out) || useColor {
		fmt.Fprint(out, formatOutcome(o))
	} else {
		// Piped: plaintext only, for the next command in the pipeline.
		fmt.Fprintln(out, o.Record.Plaintext)
	}
	return nil
}

// serveMetrics exposes the collector over HTTP and returns a shutdown func.
func serveMetrics(addr string, metrics *prom.Collector, a *app.App) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger().Warn("metrics server stopped", "addr", addr, "err", err)
		}
	}()
	a.Logger().Info("serving metrics", "addr", addr, "path", "/metrics")
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
