package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/evdash/infra/mqtt"
	"github.com/kilianp07/evdash/simulator"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Publish simulated vehicle telemetry to the broker",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		session, err := mqtt.NewSession(cfg.MQTT, "", nil)
		if err != nil {
			return fmt.Errorf("mqtt session: %w", err)
		}
		defer func() { _ = session.Close() }()

		sim, err := simulator.New(cfg.Simulator, session)
		if err != nil {
			return err
		}
		return sim.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}
