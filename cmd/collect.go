package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/devon-mar/nextlinks/collector"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var collectCmd = &cobra.Command{
	Use:   "collect [collection...]",
	Short: "Print the entries of every collection.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		exit(runCollections(ctx, cmd.OutOrStdout(), loadConfig(), args, false))
	},
}

var latestCmd = &cobra.Command{
	Use:   "latest [collection...]",
	Short: "Print the latest entry of every collection.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		exit(runCollections(ctx, cmd.OutOrStdout(), loadConfig(), args, true))
	},
}

func init() {
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(latestCmd)
}

// runCollections returns the number of failed collections.
// With names, only those collections are run.
func runCollections(ctx context.Context, w io.Writer, config *collector.Config, names []string, latest bool) int {
	c, err := collector.New(config, log.StandardLogger())
	if err != nil {
		log.WithError(err).Error("error initializing collector")
		return 1
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	var ret int
	for _, col := range config.Collections {
		if len(want) > 0 && !want[col.Name] {
			continue
		}
		delete(want, col.Name)

		logger := log.WithField("collection", col.Name)
		if latest {
			e, err := c.Latest(ctx, col, logger)
			if err != nil {
				logger.WithError(err).Error("error getting latest entry")
				ret++
				continue
			}
			fmt.Fprintf(w, "%s\t%s\n", col.Name, e)
			continue
		}

		entries, err := c.Collect(ctx, col, logger)
		if err != nil {
			logger.WithError(err).Error("error collecting entries")
			ret++
			continue
		}
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\n", col.Name, e, e.Item.URL)
		}
	}

	for n := range want {
		log.WithField("collection", n).Error("collection does not exist")
		ret++
	}
	return ret
}
