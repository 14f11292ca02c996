package cmd

import (
	"github.com/spf13/cobra"

	"curvedex/internal/dex"
	"curvedex/pkg/config"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "manage the RabbitMQ event queues",
	RunE: func(*cobra.Command, []string) error {
		return ErrMissingSubcommand
	},
}

var purgeQueueCmd = &cobra.Command{
	Use:   "purge [queue]",
	Short: "drop pending messages, ready_to_launch by default",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := dex.EventReadyToLaunch
		if len(args) == 1 {
			name = args[0]
		}
		config.InitRabbitMQ()
		defer config.RabbitMQ.Close()
		if err := config.PurgeQueue(name); err != nil {
			return err
		}
		cmd.Printf("purged %s\n", name)
		return nil
	},
}
