// decipher breaks simple substitution ciphers.
// A bigram model trained on a reference corpus scores candidate keys; a
// Metropolis-Hastings search with restarts finds the most plausible one.
package main

import (
	"os"

	"github.com/corey/decipher/cmd/decipher/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
