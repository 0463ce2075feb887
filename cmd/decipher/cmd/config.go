package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/corey/decipher/internal/app"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show effective configuration",
	Long:  "Shows project paths and the configuration after the config file, environment and flags are applied.",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	root := projectRoot()
	paths := app.NewPaths(root)
	cfgPath := flagConfig
	if cfgPath == "" {
		cfgPath = paths.Config
	}
	dbPath := flagDB
	if dbPath == "" {
		dbPath = paths.DB
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", paint(colorBold, "⚡ decipher config"))
	fmt.Fprintf(out, "  Root:    %s\n", root)
	fmt.Fprintf(out, "  Config:  %s%s\n", cfgPath, presence(cfgPath))
	fmt.Fprintf(out, "  DB:      %s%s\n", dbPath, presence(dbPath))
	fmt.Fprintf(out, "  Status:  %s%s\n", paths.Status, presence(paths.Status))
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "  %s %v\n", paint(colorRed, "✗"), err)
	}
	y, err := cfg.YAML()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%s", y)
	return nil
}

func presence(path string) string {
	if _, err := os.Stat(path); err != nil {
		return paint(colorGray, " (absent)")
	}
	return ""
}
