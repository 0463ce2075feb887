// Package status generates status data for decipher.
//
// After every decode the app writes a small JSON summary of the run to
// .decipher/status.json so shell prompts and scripts can show the latest
// result without opening the history database.
package status

import (
	"encoding/json"
	"os"

	"github.com/corey/decipher/internal/ports"
)

// StatusFile is the filename within the .decipher directory where status JSON is written.
const StatusFile = "status.json"

// previewLen caps the plaintext preview in runes.
const previewLen = 60

// Data is the JSON payload written after each decode.
type Data struct {
	RunID     string   `json:"run_id,omitempty"`
	Mode      string   `json:"mode"`
	Preview   string   `json:"preview"`
	Length    int      `json:"length"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	ElapsedMs int64    `json:"elapsed_ms"`
	MCMC      *Search  `json:"mcmc,omitempty"`
	Truncated bool     `json:"truncated,omitempty"`
}

// Search holds the MCMC-specific fields.
type Search struct {
	Seed          uint64  `json:"seed"`
	Attempts      int     `json:"attempts"`
	Steps         int     `json:"steps"`
	LogLikelihood float64 `json:"log_likelihood"`
	AcceptRate    float64 `json:"accept_rate"`
}

// Generate produces Data from a finished run.
func Generate(rec *ports.RunRecord) *Data {
	preview, truncated := truncate(rec.Plaintext, previewLen)
	d := &Data{
		RunID:     rec.ID,
		Mode:      rec.Mode,
		Preview:   preview,
		Length:    len([]rune(rec.Plaintext)),
		Accuracy:  rec.Accuracy,
		ElapsedMs: rec.ElapsedMs,
		Truncated: truncated,
	}
	if rec.Mode == ports.ModeMCMC {
		d.MCMC = &Search{
			Seed:          rec.Seed,
			Attempts:      rec.Attempts,
			Steps:         rec.Steps,
			LogLikelihood: rec.LogLikelihood,
			AcceptRate:    rec.AcceptRate,
		}
	}
	return d
}

// WriteJSON writes the status data as JSON to a file.
func WriteJSON(path string, data *Data) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// truncate cuts s to n runes.
func truncate(s string, n int) (string, bool) {
	r := []rune(s)
	if len(r) <= n {
		return s, false
	}
	return string(r[:n]), true
}
