package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"curvedex/internal/sim"
)

var noLaunch bool

var simulateCmd = &cobra.Command{
	Use:   "simulate [scenario file]",
	Short: "replay a scenario against an in-memory pool",
	PreRunE: func(_ *cobra.Command, args []string) error {
		if len(args) != 1 {
			return ErrMissingScenario
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		scenario, err := sim.LoadScenario(args[0])
		if err != nil {
			return err
		}
		if noLaunch {
			scenario.Launch = false
		}

		report, err := sim.Run(cmd.Context(), *scenario)
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"trades":   len(report.Steps),
			"ready_at": report.ReadyAt,
			"phase":    report.Final.Phase.String(),
		}).Info("Scenario finished")
		return printJSON(cmd.OutOrStdout(), report)
	},
}

func init() {
	simulateCmd.Flags().BoolVar(&noLaunch, "no-launch", false, "stop at the launch plan")
}
