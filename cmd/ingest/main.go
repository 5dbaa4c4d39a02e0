package main

import (
	"os"
	// Settlement conversion needs real zone data even on scratch images.
	_ "time/tzdata"

	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Multi-source electricity generation ingestion",
	Long: `ingest fetches raw generation and consumption observations from
upstream electricity data sources (ENTSOE, ELEXON, EIA, TAIPOWER),
normalizes them into canonical UTC observations and upserts them
into the observation store.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
