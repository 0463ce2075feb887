package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/corey/decipher/internal/app"
	"github.com/corey/decipher/internal/domain/bigram"
	"github.com/corey/decipher/internal/ports"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorCyan   = "\033[36m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// paint wraps s in an ANSI code when color output is on.
func paint(code, s string) string {
	if !useColor {
		return s
	}
	return code + s + colorReset
}

// accuracyColor grades an accuracy: green from 0.9, yellow from 0.5.
func accuracyColor(acc float64) string {
	switch {
	case acc >= 0.9:
		return colorGreen
	case acc >= 0.5:
		return colorYellow
	default:
		return colorRed
	}
}

func formatAccuracy(acc float64) string {
	return paint(accuracyColor(acc), fmt.Sprintf("%.2f", acc))
}

// formatOutcome renders a finished decode.
//
//	⚡ mcmc │ 100×10000 │ seed 1 │ ll -1234.56 │ accept 12.3% │ 1.2s
//	  <plaintext>
//	  accuracy: 0.97
func formatOutcome(out *app.Outcome) string {
	rec := out.Record
	var sb strings.Builder
	elapsed := time.Duration(rec.ElapsedMs) * time.Millisecond

	sb.WriteString(paint(colorBold, "⚡ "+rec.Mode))
	switch rec.Mode {
	case ports.ModeMCMC:
		fmt.Fprintf(&sb, " │ %d×%d │ seed %d │ ll %.2f │ accept %.1f%%",
			rec.Attempts, rec.Steps, rec.Seed, rec.LogLikelihood, rec.AcceptRate*100)
		if out.Result != nil && out.Result.BestAttempt < 0 {
			sb.WriteString(" │ " + paint(colorYellow, "no restart beat the raw ciphertext"))
		}
	case ports.ModeFrequency:
		fmt.Fprintf(&sb, " │ ngram %d", rec.NGram)
	}
	fmt.Fprintf(&sb, " │ %s", elapsed)
	if rec.ID != "" {
		sb.WriteString(" │ " + paint(colorGray, shortID(rec.ID)))
	}
	sb.WriteString("\n")
	sb.WriteString("  " + rec.Plaintext + "\n")
	if rec.Accuracy != nil {
		sb.WriteString("  accuracy: " + formatAccuracy(*rec.Accuracy) + "\n")
	}
	if len(rec.Cribs) > 0 {
		sb.WriteString("  " + formatCribs(rec) + "\n")
	}
	return sb.String()
}

// formatCribs renders "cribs: 2/3 (the, and)".
func formatCribs(rec *ports.RunRecord) string {
	code := colorYellow
	if len(rec.CribsFound) == len(rec.Cribs) {
		code = colorGreen
	}
	s := "cribs: " + paint(code, fmt.Sprintf("%d/%d", len(rec.CribsFound), len(rec.Cribs)))
	if len(rec.CribsFound) > 0 {
		s += " (" + strings.Join(rec.CribsFound, ", ") + ")"
	}
	return s
}

// shortID is the tail of a UUIDv7: the head is a timestamp and repeats
// between runs made close together.
func shortID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[len(id)-12:]
}

// formatHistory renders a run list, newest first.
func formatHistory(runs []*ports.RunRecord) string {
	if len(runs) == 0 {
		return "no runs recorded\n"
	}
	var sb strings.Builder
	for _, r := range runs {
		fmt.Fprintf(&sb, "%s  %s  %-9s  %s",
			paint(colorCyan, r.ID),
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.Mode,
			preview(r.Plaintext, 40))
		if r.Accuracy != nil {
			sb.WriteString("  " + formatAccuracy(*r.Accuracy))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatRun renders one stored run in full.
func formatRun(r *ports.RunRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", paint(colorBold, "⚡ run "+r.ID))
	fmt.Fprintf(&sb, "  Created:    %s\n", r.CreatedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(&sb, "  Mode:       %s\n", r.Mode)
	fmt.Fprintf(&sb, "  Corpus:     %s\n", r.CorpusPath)
	fmt.Fprintf(&sb, "  Alphabet:   %q\n", r.Alphabet)
	fmt.Fprintf(&sb, "  Digest:     %s\n", r.CipherDigest)
	switch r.Mode {
	case ports.ModeMCMC:
		fmt.Fprintf(&sb, "  Search:     %d attempts × %d steps, %d workers, seed %d\n",
			r.Attempts, r.Steps, r.Workers, r.Seed)
		fmt.Fprintf(&sb, "  Score:      log-likelihood %.2f, accept %.1f%%\n", r.LogLikelihood, r.AcceptRate*100)
	case ports.ModeFrequency:
		fmt.Fprintf(&sb, "  N-gram:     %d\n", r.NGram)
	}
	if r.Accuracy != nil {
		fmt.Fprintf(&sb, "  Accuracy:   %s\n", formatAccuracy(*r.Accuracy))
	}
	if len(r.Cribs) > 0 {
		fmt.Fprintf(&sb, "  Cribs:      %s\n", formatCribs(r))
	}
	fmt.Fprintf(&sb, "  Elapsed:    %s\n", time.Duration(r.ElapsedMs)*time.Millisecond)
	fmt.Fprintf(&sb, "  Ciphertext: %s\n", r.Ciphertext)
	fmt.Fprintf(&sb, "  Plaintext:  %s\n", r.Plaintext)
	return sb.String()
}

// formatModel renders the most probable alphabet pairs of a model.
func formatModel(m *bigram.Model, top []bigram.Pair) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s │ %d symbols │ %d training pairs │ %d table entries │ sum %.6f\n",
		paint(colorBold, "⚡ bigram model"), m.Alphabet().Len(), m.TrainingPairs(), m.Pairs(), m.Sum())
	for i, p := range top {
		fmt.Fprintf(&sb, "  %3d  %s  %.6f\n", i+1, paint(colorCyan, fmt.Sprintf("%q", string([]rune{p.First, p.Second}))), p.Prob)
	}
	return sb.String()
}

// preview cuts s to n runes, marking the cut.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
