package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corey/decipher/internal/app"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded decodes, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one recorded decode (any unique ID prefix)",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete one recorded decode (any unique ID prefix)",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryRm,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum runs to list (0 = all)")
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyRmCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	return withHistory(cmd, func(h *app.App) error {
		runs, err := h.History(historyLimit)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), formatHistory(runs))
		return nil
	})
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	return withHistory(cmd, func(h *app.App) error {
		rec, err := h.Run(args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), formatRun(rec))
		return nil
	})
}

func runHistoryRm(cmd *cobra.Command, args []string) error {
	return withHistory(cmd, func(h *app.App) error {
		if err := h.DeleteRun(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
		return nil
	})
}

// withHistory opens the App with history on, whatever the config says.
func withHistory(cmd *cobra.Command, fn func(*app.App) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.History = true
	a, err := openApp(cmd, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
