package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corey/decipher/internal/app"
	"github.com/corey/decipher/internal/domain/alphabet"
	"github.com/corey/decipher/internal/domain/permutation"
	"github.com/corey/decipher/internal/ports"
)

// =============================================================================
// Helpers
// =============================================================================

// execute runs the root command in a scratch project directory.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetArgs(append(args, "--color", "never"))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags restores every flag to its default; cobra keeps parsed
// values between Execute calls.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// =============================================================================
// Helpers under test
// =============================================================================

func TestIsDBLockError(t *testing.T) {
	assert.False(t, isDBLockError(nil))
	assert.False(t, isDBLockError(errors.New("permission denied")))
	assert.True(t, isDBLockError(errors.New("open store: bbolt open: timeout")))
}

func TestDiagnoseDBLock(t *testing.T) {
	msg := diagnoseDBLock("/p/.decipher/decipher.db")
	assert.Contains(t, msg, "/p/.decipher/decipher.db")
	assert.Contains(t, msg, "--no-history")
}

func TestResolveColor(t *testing.T) {
	assert.False(t, resolveColor("always", true))
	assert.True(t, resolveColor("always", false))
	assert.False(t, resolveColor("never", false))
}

func TestPaint(t *testing.T) {
	useColor = false
	assert.Equal(t, "x", paint(colorRed, "x"))
	useColor = true
	defer func() { useColor = false }()
	assert.Equal(t, colorRed+"x"+colorReset, paint(colorRed, "x"))
}

func TestShortIDAndPreview(t *testing.T) {
	assert.Equal(t, "abc", shortID("abc"))
	assert.Equal(t, "00000000abcd", shortID("0190a3c2-7b1e-7c00-8000-00000000abcd"))
	assert.Equal(t, "hello", preview("hello", 5))
	assert.Equal(t, "hel…", preview("hello", 3))
}

func TestFormatOutcome(t *testing.T) {
	useColor = false
	acc := 0.75
	out := formatOutcome(&app.Outcome{Record: &ports.RunRecord{
		ID:            "0190a3c2-7b1e-7c00-8000-000000000001",
		Mode:          ports.ModeMCMC,
		Plaintext:     "the cat",
		Seed:          4,
		Attempts:      10,
		Steps:         500,
		LogLikelihood: -12.5,
		AcceptRate:    0.25,
		Accuracy:      &acc,
		ElapsedMs:     1500,
	}})
	assert.Contains(t, out, "⚡ mcmc")
	assert.Contains(t, out, "10×500")
	assert.Contains(t, out, "seed 4")
	assert.Contains(t, out, "ll -12.50")
	assert.Contains(t, out, "accept 25.0%")
	assert.Contains(t, out, (1500 * time.Millisecond).String())
	assert.Contains(t, out, "  the cat\n")
	assert.Contains(t, out, "accuracy: 0.75")
}

func TestFormatCribs(t *testing.T) {
	useColor = false
	out := formatCribs(&ports.RunRecord{Cribs: []string{"the", "cat", "dog"}, CribsFound: []string{"the", "cat"}})
	assert.Equal(t, "cribs: 2/3 (the, cat)", out)
	assert.Equal(t, "cribs: 0/1", formatCribs(&ports.RunRecord{Cribs: []string{"x"}}))
}

func TestFormatHistory(t *testing.T) {
	useColor = false
	assert.Equal(t, "no runs recorded\n", formatHistory(nil))
	out := formatHistory([]*ports.RunRecord{{ID: "id-1", Mode: ports.ModeFrequency, Plaintext: "abc"}})
	assert.Contains(t, out, "id-1")
	assert.Contains(t, out, "frequency")
	assert.Contains(t, out, "abc")
}

func TestFormatKey(t *testing.T) {
	a := alphabet.MustNew("abc")
	key, err := permutation.FromImages([]int{2, 0, 1})
	require.NoError(t, err)
	out := formatKey(a, key)
	assert.Contains(t, out, `plain:  "abc"`)
	assert.Contains(t, out, `cipher: "cab"`)
}

// =============================================================================
// Commands end to end
// =============================================================================

func TestScoreCommand(t *testing.T) {
	want := writeTemp(t, "want.txt", "abcd\n")
	got := writeTemp(t, "got.txt", "abxd\n")

	out, err := execute(t, "", "score", want, got)
	require.NoError(t, err)
	assert.Equal(t, "accuracy: 0.75\n", out)
}

func TestEncryptCommand_Deterministic(t *testing.T) {
	out1, err := execute(t, "Hello,  World!", "encrypt", "--seed", "3", "-")
	require.NoError(t, err)
	out2, err := execute(t, "Hello,  World!", "encrypt", "--seed", "3", "-")
	require.NoError(t, err)

	assert.Equal(t, out1, out2)
	assert.Len(t, []rune(strings.TrimSuffix(out1, "\n")), len("hello, world!"))
}

func TestFreqCommand_PipedOutput(t *testing.T) {
	corpus := writeTemp(t, "corpus.txt", "aaaabbc")

	out, err := execute(t, "ccccaab\n", "freq", "--alphabet", "abc", "--no-history", "--corpus", corpus, "-")
	require.NoError(t, err)
	assert.Equal(t, "aaaabbc\n", out)
}

func TestDecodeCommand_RecordsHistory(t *testing.T) {
	corpus := writeTemp(t, "corpus.txt", strings.Repeat("aab", 100))
	dir := t.TempDir()
	db := filepath.Join(dir, "runs.db")

	out, err := execute(t, "bbabbabba\n", "decode", "--alphabet", "ab", "--db", db,
		"--corpus", corpus, "--attempts", "3", "--steps", "100", "--seed", "2", "-")
	require.NoError(t, err)
	assert.Equal(t, "aabaabaab\n", out)

	out, err = execute(t, "", "history", "--alphabet", "ab", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "mcmc")
	assert.Contains(t, out, "aabaabaab")
}

func TestDecodeCommand_InvalidFlags(t *testing.T) {
	corpus := writeTemp(t, "corpus.txt", "abab")
	_, err := execute(t, "ab", "decode", "--alphabet", "ab", "--no-history", "--corpus", corpus, "--attempts", "0", "-")
	assert.ErrorIs(t, err, app.ErrInvalidConfig)
}

func TestDecodeCommand_WatchNeedsFile(t *testing.T) {
	corpus := writeTemp(t, "corpus.txt", "abab")
	_, err := execute(t, "ab", "decode", "--alphabet", "ab", "--no-history", "--corpus", corpus,
		"--attempts", "1", "--watch", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--watch")
}
