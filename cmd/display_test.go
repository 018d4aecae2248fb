package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/evdash/core/control"
)

func TestDisplayRejectsInvalidArgs(t *testing.T) {
	cases := []struct {
		args []string
		want error
	}{
		{[]string{"display", "power", "standby"}, control.ErrInvalidPower},
		{[]string{"display", "brightness", "0"}, control.ErrBrightnessRange},
		{[]string{"display", "brightness", "101"}, control.ErrBrightnessRange},
	}
	for _, c := range cases {
		rootCmd.SetArgs(c.args)
		assert.ErrorIs(t, rootCmd.Execute(), c.want, c.args)
	}
}

func TestDisplayBrightnessNotANumber(t *testing.T) {
	rootCmd.SetArgs([]string{"display", "brightness", "bright"})
	assert.ErrorContains(t, rootCmd.Execute(), `brightness "bright"`)
}

func TestUnknownConfigFormat(t *testing.T) {
	rootCmd.SetArgs([]string{"--config", "settings.toml", "display", "power", "on"})
	assert.ErrorContains(t, rootCmd.Execute(), "unsupported config format")
	cfgPath = ""
}
