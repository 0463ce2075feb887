// Package app wires together adapters and domain logic.
// It owns the corpus/model cache, runs both decoders, records finished
// runs in the history store, writes the status file and drives watch mode.
package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/corey/decipher/internal/adapters/ahocorasick"
	"github.com/corey/decipher/internal/adapters/bbolt"
	"github.com/corey/decipher/internal/adapters/prom"
	"github.com/corey/decipher/internal/domain/alphabet"
	"github.com/corey/decipher/internal/domain/bigram"
	"github.com/corey/decipher/internal/domain/cipher"
	"github.com/corey/decipher/internal/domain/corpus"
	"github.com/corey/decipher/internal/domain/frequency"
	"github.com/corey/decipher/internal/domain/likelihood"
	"github.com/corey/decipher/internal/domain/mcmc"
	"github.com/corey/decipher/internal/domain/permutation"
	"github.com/corey/decipher/internal/domain/score"
	"github.com/corey/decipher/internal/domain/status"
	"github.com/corey/decipher/internal/ports"
)

// ErrHistoryDisabled is returned by history operations when no store is open.
var ErrHistoryDisabled = errors.New("run history is disabled")

// ErrNoCorpus is returned when a decode needs a corpus and none was given.
var ErrNoCorpus = errors.New("no corpus given (use --corpus or set corpus in config)")

// encryptStream is the PCG stream used by Encrypt, apart from the
// per-restart streams 0..Attempts-1 of the decoder.
const encryptStream = 1<<63 - 1

// Options holds initialization parameters for the App.
type Options struct {
	ProjectRoot string
	DBPath      string // default: .decipher/decipher.db
	Config      Config
	Logger      *slog.Logger    // default: slog.Default()
	Metrics     *prom.Collector // optional
	Store       ports.RunStore  // optional: overrides the bbolt store
}

// App is the top-level container wiring all components together.
type App struct {
	ProjectRoot string
	Paths       *Paths
	Config      Config
	Store       ports.RunStore // nil when history is disabled
	Metrics     *prom.Collector

	log      *slog.Logger
	alpha    *alphabet.Alphabet
	closeDB  func() error
	mu       sync.Mutex
	corpora  map[string]*corpusEntry
	newWatch func() (ports.Watcher, error)
}

// corpusEntry caches a loaded corpus and its trained model, keyed by the
// file's absolute path. A change in size or mtime reloads it.
type corpusEntry struct {
	modTime time.Time
	size    int64
	text    []rune
	model   *bigram.Model
	freqs   map[int]*frequency.Table
}

// New creates an App with all dependencies wired.
func New(opts Options) (*App, error) {
	if opts.ProjectRoot == "" {
		return nil, fmt.Errorf("project root required")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	alpha, err := alphabet.New(opts.Config.Alphabet)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{
		ProjectRoot: opts.ProjectRoot,
		Paths:       NewPaths(opts.ProjectRoot),
		Config:      opts.Config,
		Metrics:     opts.Metrics,
		log:         logger,
		alpha:       alpha,
		corpora:     make(map[string]*corpusEntry),
		newWatch:    newFSWatcher,
	}

	switch {
	case opts.Store != nil:
		a.Store = opts.Store
	case opts.Config.History:
		dbPath := opts.DBPath
		if dbPath == "" {
			if err := a.Paths.EnsureDirs(); err != nil {
				return nil, fmt.Errorf("create %s: %w", a.Paths.Root, err)
			}
			dbPath = a.Paths.DB
		}
		store, err := bbolt.NewStore(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		a.Store = store
		a.closeDB = store.Close
	}
	return a, nil
}

// Close releases the history store if the App opened it.
func (a *App) Close() error {
	if a.closeDB != nil {
		err := a.closeDB()
		a.closeDB = nil
		return err
	}
	return nil
}

// Alphabet returns the configured alphabet.
func (a *App) Alphabet() *alphabet.Alphabet { return a.alpha }

// Logger returns the App's logger.
func (a *App) Logger() *slog.Logger { return a.log }

// loadCorpus loads (or reuses) the corpus at path.
func (a *App) loadCorpus(path string) (*corpusEntry, error) {
	if path == "" {
		return nil, ErrNoCorpus
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if e, ok := a.corpora[abs]; ok && e.size == info.Size() && e.modTime.Equal(info.ModTime()) {
		return e, nil
	}
	start := time.Now()
	text, err := corpus.Load(abs)
	if err != nil {
		return nil, err
	}
	e := &corpusEntry{
		modTime: info.ModTime(),
		size:    info.Size(),
		text:    text,
		model:   bigram.Train(text, a.alpha),
		freqs:   make(map[int]*frequency.Table),
	}
	a.corpora[abs] = e
	a.log.Debug("corpus loaded", "path", abs, "runes", len(text),
		"pairs", e.model.TrainingPairs(), "took", time.Since(start))
	return e, nil
}

// Model returns the bigram model trained on the corpus at path.
func (a *App) Model(corpusPath string) (*bigram.Model, error) {
	e, err := a.loadCorpus(corpusPath)
	if err != nil {
		return nil, err
	}
	return e.model, nil
}

// Invalidate drops the cached corpus at path.
func (a *App) Invalidate(corpusPath string) {
	abs, err := filepath.Abs(corpusPath)
	if err != nil {
		return
	}
	a.mu.Lock()
	delete(a.corpora, abs)
	a.mu.Unlock()
}

// DecodeRequest describes one decode.
type DecodeRequest struct {
	Ciphertext []rune
	CorpusPath string
	Plaintext  []rune // optional: the true message, for accuracy
	Mode       string // ports.ModeMCMC (default) or ports.ModeFrequency
	NGram      int    // frequency mode; 0 means Config.NGram
	Cribs      []string
}

// Outcome is a finished decode.
type Outcome struct {
	Record *ports.RunRecord
	Result *mcmc.Result // nil for frequency runs
}

// Decode runs the requested decoder, then records the run.
func (a *App) Decode(req DecodeRequest) (*Outcome, error) {
	mode := req.Mode
	if mode == "" {
		mode = ports.ModeMCMC
	}
	start := time.Now()
	var (
		out *Outcome
		err error
	)
	switch mode {
	case ports.ModeMCMC:
		out, err = a.decodeMCMC(req)
	case ports.ModeFrequency:
		out, err = a.decodeFrequency(req)
	default:
		err = fmt.Errorf("unknown decode mode %q", mode)
	}
	elapsed := time.Since(start)
	if a.Metrics != nil {
		a.Metrics.ObserveDecode(mode, elapsed, err)
	}
	if err != nil {
		a.log.Error("decode failed", "mode", mode, "err", err)
		return nil, err
	}

	rec := out.Record
	rec.Mode = mode
	rec.Alphabet = a.alpha.String()
	rec.CorpusPath = req.CorpusPath
	rec.Ciphertext = string(req.Ciphertext)
	rec.CipherDigest = Digest(req.Ciphertext)
	rec.ElapsedMs = elapsed.Milliseconds()
	if len(req.Plaintext) > 0 {
		acc := score.Accuracy(req.Plaintext, []rune(rec.Plaintext))
		rec.Accuracy = &acc
	}
	if len(req.Cribs) > 0 {
		cs := ahocorasick.NewCribScanner(normalizeCribs(req.Cribs))
		rec.Cribs = cs.Cribs()
		rec.CribsFound = cs.Found(rec.Plaintext)
	}

	a.record(rec)
	a.log.Info("decode finished", "mode", mode, "id", rec.ID, "length", len(req.Ciphertext),
		"elapsed", elapsed.Round(time.Millisecond))
	return out, nil
}

func (a *App) decodeMCMC(req DecodeRequest) (*Outcome, error) {
	e, err := a.loadCorpus(req.CorpusPath)
	if err != nil {
		return nil, err
	}
	var opts []mcmc.Option
	if a.Metrics != nil {
		opts = append(opts, mcmc.WithObserver(a.Metrics))
	}
	dec, err := mcmc.New(likelihood.New(e.model), a.Config.Search(), opts...)
	if err != nil {
		return nil, err
	}
	cfg := dec.Config()
	a.log.Info("decode started", "mode", ports.ModeMCMC, "attempts", cfg.Attempts,
		"steps", cfg.Steps, "workers", cfg.Workers, "seed", cfg.Seed)

	res, err := dec.Decode(req.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("mcmc decode: %w", err)
	}
	if a.Metrics != nil {
		a.Metrics.ObserveBest(res.LogLikelihood)
	}
	return &Outcome{
		Result: res,
		Record: &ports.RunRecord{
			Plaintext:     string(res.Plaintext),
			Seed:          res.Seed,
			Attempts:      res.Attempts,
			Steps:         res.Steps,
			Workers:       res.Workers,
			LogLikelihood: res.LogLikelihood,
			AcceptRate:    res.AcceptRate(),
		},
	}, nil
}

func (a *App) decodeFrequency(req DecodeRequest) (*Outcome, error) {
	n := req.NGram
	if n == 0 {
		n = a.Config.NGram
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: ngram must be >= 1, got %d", ErrInvalidConfig, n)
	}
	table, err := a.FrequencyTable(req.CorpusPath, n)
	if err != nil {
		return nil, err
	}
	a.log.Info("decode started", "mode", ports.ModeFrequency, "ngram", n)
	plain := frequency.Decrypt(req.Ciphertext, table, n)
	return &Outcome{Record: &ports.RunRecord{Plaintext: string(plain), NGram: n}}, nil
}

// FrequencyTable returns the n-gram table of the corpus at path.
func (a *App) FrequencyTable(corpusPath string, n int) (*frequency.Table, error) {
	e, err := a.loadCorpus(corpusPath)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := e.freqs[n]
	if !ok {
		t = frequency.Calculate(e.text, n)
		e.freqs[n] = t
	}
	return t, nil
}

// record saves rec to history (when enabled) and writes the status file.
// Neither failure fails the decode.
func (a *App) record(rec *ports.RunRecord) {
	if a.Store != nil {
		id, err := a.Store.SaveRun(rec)
		if err != nil {
			a.log.Warn("history write failed", "err", err)
		} else {
			a.log.Debug("history write", "id", id)
		}
	}
	if err := a.Paths.EnsureDirs(); err != nil {
		a.log.Warn("status write failed", "err", err)
		return
	}
	if err := status.WriteJSON(a.Paths.Status, status.Generate(rec)); err != nil {
		a.log.Warn("status write failed", "path", a.Paths.Status, "err", err)
	}
}

// Encrypt prepares message (lowercase, alphabet filter, space collapse)
// and enciphers it under a key drawn from seed. It returns the prepared
// message, the ciphertext and the encryption key.
func (a *App) Encrypt(message string, seed uint64) (plain, ciphertext []rune, key permutation.Key) {
	plain = corpus.Prepare(message, a.alpha)
	rng := rand.New(rand.NewPCG(seed, encryptStream))
	ciphertext, key = cipher.Encrypt(plain, a.alpha, rng)
	return plain, ciphertext, key
}

// History returns up to limit past runs, newest first.
func (a *App) History(limit int) ([]*ports.RunRecord, error) {
	if a.Store == nil {
		return nil, ErrHistoryDisabled
	}
	return a.Store.ListRuns(limit)
}

// Run returns one past run. id may be any unique prefix of a run ID.
func (a *App) Run(id string) (*ports.RunRecord, error) {
	if a.Store == nil {
		return nil, ErrHistoryDisabled
	}
	rec, err := a.Store.LoadRun(id)
	if err == nil || !errors.Is(err, ports.ErrRunNotFound) {
		return rec, err
	}
	full, perr := a.resolvePrefix(id)
	if perr != nil {
		return nil, perr
	}
	return a.Store.LoadRun(full)
}

// DeleteRun removes one past run, resolving ID prefixes like Run.
func (a *App) DeleteRun(id string) error {
	rec, err := a.Run(id)
	if err != nil {
		return err
	}
	if err := a.Store.DeleteRun(rec.ID); err != nil {
		return err
	}
	a.log.Info("history delete", "id", rec.ID)
	return nil
}

func (a *App) resolvePrefix(prefix string) (string, error) {
	runs, err := a.Store.ListRuns(0)
	if err != nil {
		return "", err
	}
	var match string
	for _, r := range runs {
		if strings.HasPrefix(r.ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("ambiguous run id prefix %q", prefix)
			}
			match = r.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", ports.ErrRunNotFound, prefix)
	}
	return match, nil
}

// normalizeCribs lowercases cribs and collapses their whitespace the way
// plaintext is prepared.
func normalizeCribs(cribs []string) []string {
	out := make([]string, 0, len(cribs))
	for _, c := range cribs {
		if c = corpus.Normalize(c); strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	return out
}

// Digest is the hex sha256 of a ciphertext, used to group runs on the same input.
func Digest(text []rune) string {
	sum := sha256.Sum256([]byte(string(text)))
	return hex.EncodeToString(sum[:])
}

// DemoMessage is the sample message enciphered by Demo.
const DemoMessage = `
	Last week, the social media company first made the announcement about saying that
	the label provides more transparency into the company's process for reducing the reach of hateful tweets.
	"Restricting the reach of Tweets helps reduce binary 'leave up versus take down' content moderation decisions
	and supports our freedom of speech vs freedom of reach approach," the company said at that time.
`

// DemoReport is the outcome of Demo.
type DemoReport struct {
	Message    []rune
	Ciphertext []rune
	Frequency  *Outcome
	MCMC       *Outcome
}

// Demo enciphers message (DemoMessage when empty) with a seeded key and
// decodes it with both decoders, scoring each against the message.
func (a *App) Demo(ctx context.Context, corpusPath, message string) (*DemoReport, error) {
	if message == "" {
		message = DemoMessage
	}
	plain, ct, _ := a.Encrypt(message, a.Config.Seed)
	rep := &DemoReport{Message: plain, Ciphertext: ct}

	var err error
	rep.Frequency, err = a.Decode(DecodeRequest{
		Ciphertext: ct, CorpusPath: corpusPath, Plaintext: plain, Mode: ports.ModeFrequency,
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rep.MCMC, err = a.Decode(DecodeRequest{
		Ciphertext: ct, CorpusPath: corpusPath, Plaintext: plain, Mode: ports.ModeMCMC,
	})
	if err != nil {
		return nil, err
	}
	return rep, nil
}
