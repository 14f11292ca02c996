package cmd

import (
	"encoding/json"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logLevel   string
	configFile string

	rootCmd = &cobra.Command{
		Use:   "curvesim",
		Short: "Bonding curve pool simulator",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(level)
			return nil
		},
		SuggestFor: []string{"curve", "curvedex"},
	}
)

func init() {
	cobra.EnablePrefixMatching = true
	rootCmd.AddCommand(
		quoteCmd,
		simulateCmd,
		keyCmd,
		migrateCmd,
		queueCmd,
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel,
		"log-level",
		"warn",
		"log level",
	)
	rootCmd.PersistentFlags().StringVar(
		&configFile,
		"config",
		"",
		"settings file, used by migrate",
	)

	keyCmd.AddCommand(genKeyCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	queueCmd.AddCommand(purgeQueueCmd)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func Execute() error {
	return rootCmd.Execute()
}
