package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/evdash/core/control"
	"github.com/kilianp07/evdash/infra/mqtt"
)

var publishTimeout time.Duration

var displayCmd = &cobra.Command{
	Use:   "display",
	Short: "Send commands to the dashboard display",
}

var displayPowerCmd = &cobra.Command{
	Use:       "power on|off",
	Short:     "Turn the display on or off",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := control.ParsePower(args[0])
		if err != nil {
			return err
		}
		return sendCommand(cmd, control.DisplayPower(on))
	},
}

var displayBrightnessCmd = &cobra.Command{
	Use:   "brightness LEVEL",
	Short: "Set the display brightness (1-100)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("brightness %q: %w", args[0], err)
		}
		c, err := control.Brightness(level)
		if err != nil {
			return err
		}
		return sendCommand(cmd, c)
	},
}

func init() {
	displayCmd.PersistentFlags().DurationVar(&publishTimeout, "timeout", 5*time.Second, "publish timeout")
	displayCmd.AddCommand(displayPowerCmd, displayBrightnessCmd)
	rootCmd.AddCommand(displayCmd)
}

func sendCommand(cmd *cobra.Command, c control.Command) error {
	// no subscription: only the publish path is needed
	session, err := mqtt.NewSession(cfg.MQTT, "", nil)
	if err != nil {
		return fmt.Errorf("mqtt session: %w", err)
	}
	defer func() { _ = session.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := control.NewController(session, nil).Send(ctx, c); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s <- %s\n", c.Topic, c.Payload)
	return err
}
