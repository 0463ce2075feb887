package cmd

import (
	"github.com/spf13/cobra"

	"github.com/corey/decipher/internal/ports"
)

var (
	freqCorpus    string
	freqNGram     int
	freqPlaintext string
	freqWatch     bool
	freqCribs     []string
)

var freqCmd = &cobra.Command{
	Use:   "freq [CIPHER_FILE|-]",
	Short: "Decode by aligning n-gram frequency ranks",
	Long: "Maps the ciphertext's n-grams to the corpus's n-grams of the same frequency\n" +
		"rank. Fast and crude: a baseline for the Metropolis-Hastings decoder.",
	Args: cobra.MaximumNArgs(1),
	RunE: runFreq,
}

func init() {
	f := freqCmd.Flags()
	f.StringVar(&freqCorpus, "corpus", "", "reference text for n-gram frequencies")
	f.IntVar(&freqNGram, "ngram", 0, "n-gram length (default 1)")
	f.StringVar(&freqPlaintext, "plaintext", "", "known plaintext, to report accuracy")
	f.BoolVar(&freqWatch, "watch", false, "re-decode when input files change")
	f.StringSliceVar(&freqCribs, "crib", nil, "word expected in the plaintext (repeatable)")
}

func runFreq(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("corpus") {
		cfg.Corpus = freqCorpus
	}
	if cmd.Flags().Changed("ngram") {
		cfg.NGram = freqNGram
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return decodeWith(cmd, args, cfg, decodeRun{
		mode:      ports.ModeFrequency,
		ngram:     cfg.NGram,
		plaintext: freqPlaintext,
		watch:     freqWatch,
		cribs:     freqCribs,
	})
}
