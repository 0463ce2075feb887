// Package ports defines the interfaces (contracts) that adapters must implement.
// These are the boundaries of the hexagonal architecture. Domain logic depends
// only on these interfaces, never on concrete implementations.
package ports

import (
	"errors"
	"time"
)

// ErrRunNotFound is returned by RunStore lookups for an unknown ID.
var ErrRunNotFound = errors.New("run not found")

// Decode modes recorded in RunRecord.Mode.
const (
	ModeMCMC      = "mcmc"
	ModeFrequency = "frequency"
)

// RunStore keeps a history of finished decodes. It stores results only:
// bigram models are rebuilt from the corpus on every run and never persisted.
//
// Crash safety: SaveRun must be transactional. A crash mid-write must not
// corrupt previously committed runs.
type RunStore interface {
	// SaveRun persists rec. An empty rec.ID is filled in by the store.
	// Returns the stored ID.
	SaveRun(rec *RunRecord) (string, error)

	// LoadRun retrieves one run. Returns ErrRunNotFound for unknown IDs.
	LoadRun(id string) (*RunRecord, error)

	// ListRuns returns up to limit runs, newest first. limit <= 0 means all.
	ListRuns(limit int) ([]*RunRecord, error)

	// DeleteRun removes a run. Idempotent: deleting a missing run is not an error.
	DeleteRun(id string) error
}

// RunRecord is one finished decode.
type RunRecord struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Mode      string    `json:"mode"` // ModeMCMC or ModeFrequency

	Alphabet     string `json:"alphabet"`
	CorpusPath   string `json:"corpus_path"`
	CipherDigest string `json:"cipher_digest"` // sha256 hex of the ciphertext
	Ciphertext   string `json:"ciphertext"`
	Plaintext    string `json:"plaintext"`

	// MCMC settings and outcome; zero for frequency runs.
	Seed          uint64  `json:"seed,omitempty"`
	Attempts      int     `json:"attempts,omitempty"`
	Steps         int     `json:"steps,omitempty"`
	Workers       int     `json:"workers,omitempty"`
	LogLikelihood float64 `json:"log_likelihood,omitempty"`
	AcceptRate    float64 `json:"accept_rate,omitempty"`

	NGram int `json:"ngram,omitempty"` // frequency runs only

	Cribs      []string `json:"cribs,omitempty"`       // words expected in the plaintext
	CribsFound []string `json:"cribs_found,omitempty"` // the subset the decode contains

	Accuracy  *float64 `json:"accuracy,omitempty"` // set when the true plaintext was supplied
	ElapsedMs int64    `json:"elapsed_ms"`
}
