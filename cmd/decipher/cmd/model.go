package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	modelCorpus string
	modelTop    int
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Summarize the bigram model trained on a corpus",
	Args:  cobra.NoArgs,
	RunE:  runModel,
}

func init() {
	modelCmd.Flags().StringVar(&modelCorpus, "corpus", "", "training text")
	modelCmd.Flags().IntVar(&modelTop, "top", 20, "most probable pairs to list")
}

func runModel(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("corpus") {
		cfg.Corpus = modelCorpus
	}
	cfg.History = false
	a, err := openApp(cmd, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := a.Model(cfg.Corpus)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), formatModel(m, m.Top(modelTop)))
	return nil
}
