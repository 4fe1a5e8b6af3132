package cmd

import (
	"log/slog"
	"os"

	"github.com/devon-mar/nextlinks/collector"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nextlinks",
	Short: "Follow rel=\"next\" links of paginated HTTP APIs.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		lvl, err := log.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		log.SetLevel(lvl)
		return nil
	},
	SilenceUsage: true,
}

var (
	cfgFile  string
	logLevel string
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".nextlinks.yml", "config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level")
}

// loadConfig is called by the commands that need a config file.
func loadConfig() *collector.Config {
	config, err := collector.ReadConfig(cfgFile)
	if err != nil {
		slog.Error("Error loading config.", "err", err)
		os.Exit(1)
	}
	return config
}
