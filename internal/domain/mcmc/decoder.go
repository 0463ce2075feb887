// Package mcmc breaks a substitution cipher with a multi-restart
// Metropolis–Hastings search over decoding keys.
//
// Each restart draws a fresh random key and runs Steps single-swap
// proposals. A proposal with likelihood ratio r against the current
// candidate is rejected iff r < u for u drawn uniformly from [0,1), which
// is the standard rule "accept with probability min(1, r)". After all
// restarts the highest-likelihood final candidate wins; the ciphertext
// read as-is is the initial best.
//
// Restart r draws from its own PCG stream seeded with (Seed, r), and the
// final reduction walks restarts in order, so the output for a given seed
// does not depend on Workers.
package mcmc

import (
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/corey/decipher/internal/domain/alphabet"
	"github.com/corey/decipher/internal/domain/likelihood"
	"github.com/corey/decipher/internal/domain/permutation"
)

// Defaults for the two iteration counts.
const (
	DefaultAttempts = 100
	DefaultSteps    = 10000
)

var (
	// ErrEmptyCiphertext is returned for a zero-length ciphertext.
	ErrEmptyCiphertext = errors.New("ciphertext is empty")
	// ErrUnknownSymbol is returned when the ciphertext has a rune outside the alphabet.
	ErrUnknownSymbol = errors.New("ciphertext symbol not in alphabet")
	// ErrInvalidConfig is returned by New for out-of-range settings.
	ErrInvalidConfig = errors.New("invalid decoder config")
)

// Config controls the search budget.
type Config struct {
	Attempts int    // restarts
	Steps    int    // proposals per restart
	Workers  int    // restarts run concurrently; 1 is fully sequential
	Seed     uint64 // master seed; restart r uses PCG(Seed, r)

	// FullRescore re-decodes the whole ciphertext for every proposal
	// instead of rescoring only the bigrams a swap touches. Same decisions,
	// much slower; kept as the reference path.
	FullRescore bool
}

// DefaultConfig returns 100 restarts of 10000 steps on one worker.
func DefaultConfig() Config {
	return Config{Attempts: DefaultAttempts, Steps: DefaultSteps, Workers: 1}
}

func (c Config) validate() error {
	switch {
	case c.Attempts < 1:
		return fmt.Errorf("%w: attempts must be >= 1, got %d", ErrInvalidConfig, c.Attempts)
	case c.Steps < 0:
		return fmt.Errorf("%w: steps must be >= 0, got %d", ErrInvalidConfig, c.Steps)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be >= 1, got %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

// RestartStats summarizes one restart. Reported in restart order.
type RestartStats struct {
	Attempt       int
	Proposals     int
	Accepted      int
	NoOps         int
	LogLikelihood float64 // of the restart's final candidate
	Improved      bool    // replaced the best-found candidate
}

// Observer receives per-restart statistics. Calls come from a single
// goroutine, after all restarts have finished.
type Observer interface {
	RestartFinished(RestartStats)
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithObserver attaches an observer.
func WithObserver(o Observer) Option {
	return func(d *Decoder) { d.observer = o }
}

// Decoder runs the search. Safe for concurrent Decode calls.
type Decoder struct {
	ev       *likelihood.Evaluator
	alpha    *alphabet.Alphabet
	cfg      Config
	observer Observer
}

// New returns a decoder scoring candidates with ev.
func New(ev *likelihood.Evaluator, cfg Config, opts ...Option) (*Decoder, error) {
	if ev == nil {
		return nil, fmt.Errorf("%w: nil evaluator", ErrInvalidConfig)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	d := &Decoder{ev: ev, alpha: ev.Model().Alphabet(), cfg: cfg}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Config returns the decoder's configuration.
func (d *Decoder) Config() Config { return d.cfg }

// Result is the best decode found.
type Result struct {
	Plaintext []rune
	// Key maps cipher ranks to plain ranks; identity when no restart beat
	// the ciphertext itself.
	Key permutation.Key

	LogLikelihood float64
	// BaselineLogRatio is log Ratio(Plaintext, ciphertext read as-is).
	BaselineLogRatio float64

	Seed        uint64
	Attempts    int
	Steps       int
	Workers     int
	BestAttempt int // -1 when no restart improved on the ciphertext

	Proposals int
	Accepted  int
	NoOps     int
	Elapsed   time.Duration
}

// AcceptRate is the fraction of proposals kept.
func (r *Result) AcceptRate() float64 {
	if r.Proposals == 0 {
		return 0
	}
	return float64(r.Accepted) / float64(r.Proposals)
}

// Score is the relative likelihood of the result over the ciphertext read
// as-is. Saturates to +Inf for long messages; prefer BaselineLogRatio.
func (r *Result) Score() float64 { return math.Exp(r.BaselineLogRatio) }

// outcome is what one restart hands to the reduction.
type outcome struct {
	plain []int
	key   permutation.Key
	stats RestartStats
}

// Decode searches for the most likely plaintext of ciphertext.
func (d *Decoder) Decode(ciphertext []rune) (*Result, error) {
	start := time.Now()
	if len(ciphertext) == 0 {
		return nil, ErrEmptyCiphertext
	}
	cipher, bad := d.alpha.Encode(ciphertext)
	if bad >= 0 {
		return nil, fmt.Errorf("%w: %q at position %d", ErrUnknownSymbol, ciphertext[bad], bad)
	}

	lay := newLayout(cipher, d.alpha.Len())
	outcomes := make([]outcome, d.cfg.Attempts)

	var g errgroup.Group
	g.SetLimit(d.cfg.Workers)
	for r := 0; r < d.cfg.Attempts; r++ {
		g.Go(func() error {
			o, err := d.restart(lay, r)
			if err != nil {
				return fmt.Errorf("attempt %d: %w", r, err)
			}
			outcomes[r] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := cipher
	bestKey := permutation.Identity(d.alpha.Len())
	res := &Result{
		Seed:        d.cfg.Seed,
		Attempts:    d.cfg.Attempts,
		Steps:       d.cfg.Steps,
		Workers:     d.cfg.Workers,
		BestAttempt: -1,
	}
	for r := range outcomes {
		o := &outcomes[r]
		lr, err := d.ev.RankLogRatio(o.plain, best)
		if err != nil {
			return nil, fmt.Errorf("attempt %d: %w", r, err)
		}
		if lr > 0 {
			best, bestKey, res.BestAttempt = o.plain, o.key, r
			o.stats.Improved = true
		}
		res.Proposals += o.stats.Proposals
		res.Accepted += o.stats.Accepted
		res.NoOps += o.stats.NoOps
		if d.observer != nil {
			d.observer.RestartFinished(o.stats)
		}
	}

	baseline, err := d.ev.RankLogRatio(best, cipher)
	if err != nil {
		return nil, err
	}
	res.Plaintext = d.alpha.Decode(best)
	res.Key = bestKey
	res.LogLikelihood = d.ev.RankLogLikelihood(best)
	res.BaselineLogRatio = baseline
	res.Elapsed = time.Since(start)
	return res, nil
}
