package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// openInput opens the optional FILE argument. "-" or a missing argument
// with piped stdin reads stdin.
func openInput(cmd *cobra.Command, args []string, what string) (io.ReadCloser, string, error) {
	if len(args) == 0 || args[0] == "-" {
		if len(args) == 0 && !isStdinPipe() {
			return nil, "", fmt.Errorf("no %s: pass a file, '-' or pipe it on stdin", what)
		}
		return io.NopCloser(cmd.InOrStdin()), "", nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", what, err)
	}
	return f, args[0], nil
}

// readKnownPlaintext loads --plaintext, prepared like an encrypted message.
func readKnownPlaintext(path string, prepare func(io.Reader) ([]rune, error)) ([]rune, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open plaintext: %w", err)
	}
	defer f.Close()
	return prepare(f)
}
