package cmd

import (
	"log/slog"
	"os"

	"github.com/devon-mar/nextlinks/collector"
	"github.com/devon-mar/nextlinks/source"
	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the config.",
	Run: func(cmd *cobra.Command, args []string) {
		exit(runValidate(loadConfig()))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(config *collector.Config) int {
	if err := collector.ValidateConfig(config); err != nil {
		slog.Error("Error validating config", "err", err)
		os.Exit(1)
	}

	var ret int

	names := maps.Keys(config.Sources)
	slices.Sort(names)
	for _, name := range names {
		cfg := config.Sources[name]
		if err := source.Validate(name, cfg.Type, cfg.Config); err != nil {
			ret++
			slog.Error("error validating source", "source", name, "err", err)
		}
	}

	for _, col := range config.Collections {
		if err := source.ValidateCollection(config.SourceType(col), col.Source.Config); err != nil {
			ret++
			slog.Error("error validating collection source config", "collection", col.Name, "err", err)
		}
	}
	return ret
}
