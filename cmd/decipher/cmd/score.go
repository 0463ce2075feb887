package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corey/decipher/internal/domain/score"
)

var scoreCmd = &cobra.Command{
	Use:   "score WANT_FILE GOT_FILE",
	Short: "Position-wise accuracy of a decode against the true plaintext",
	Args:  cobra.ExactArgs(2),
	RunE:  runScore,
}

func runScore(cmd *cobra.Command, args []string) error {
	want, err := readTrimmed(args[0])
	if err != nil {
		return err
	}
	got, err := readTrimmed(args[1])
	if err != nil {
		return err
	}
	acc := score.Accuracy(want, got)
	fmt.Fprintf(cmd.OutOrStdout(), "accuracy: %s\n", formatAccuracy(acc))
	return nil
}

func readTrimmed(path string) ([]rune, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return []rune(strings.TrimRight(string(b), "\r\n")), nil
}
