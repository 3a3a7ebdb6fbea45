package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"earnings-dedup-go/internal/config"
	"earnings-dedup-go/internal/logger"
)

var (
	configPath string
	jsonOutput bool

	cfg config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Deduplicate earnings-call transcript components",
	Long: `dedup turns raw earnings-call components into a canonical set: repeated
texts inside a recording are dropped, recordings of the same event are merged
under one canonical recording id, and texts repeated across events of the same
company are removed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// logs go to stderr so --json output stays clean
		log = logger.NewWithOutput(os.Stderr)
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $DEDUP_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print machine-readable JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
