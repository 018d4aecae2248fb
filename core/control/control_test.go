package control

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	sent []Command
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, topic, payload string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, Command{Topic: topic, Payload: payload})
	return nil
}

type fakeRecorder struct {
	cmds []Command
	errs []error
}

func (f *fakeRecorder) RecordCommand(cmd Command, err error) {
	f.cmds = append(f.cmds, cmd)
	f.errs = append(f.errs, err)
}

func TestDisplayPower(t *testing.T) {
	assert.Equal(t, Command{Topic: "display/control/power", Payload: "On"}, DisplayPower(true))
	assert.Equal(t, Command{Topic: "display/control/power", Payload: "Off"}, DisplayPower(false))
}

func TestBrightness(t *testing.T) {
	for _, lvl := range []int{1, 50, 100} {
		cmd, err := Brightness(lvl)
		require.NoError(t, err)
		assert.Equal(t, TopicDisplayBrightness, cmd.Topic)
	}
	cmd, _ := Brightness(100)
	assert.Equal(t, "100", cmd.Payload)
	for _, lvl := range []int{0, -1, 101} {
		_, err := Brightness(lvl)
		assert.ErrorIs(t, err, ErrBrightnessRange)
	}
}

func TestParsePower(t *testing.T) {
	on, err := ParsePower(" ON ")
	require.NoError(t, err)
	assert.True(t, on)
	on, err = ParsePower("off")
	require.NoError(t, err)
	assert.False(t, on)
	_, err = ParsePower("standby")
	assert.ErrorIs(t, err, ErrInvalidPower)
}

func TestControllerSend(t *testing.T) {
	pub := &fakePublisher{}
	rec := &fakeRecorder{}
	c := NewController(pub, rec)
	require.NoError(t, c.Send(context.Background(), DisplayPower(true)))
	assert.Equal(t, []Command{DisplayPower(true)}, pub.sent)
	assert.Equal(t, []error{nil}, rec.errs)

	pub.err = errors.New("broker down")
	err := c.Send(context.Background(), DisplayPower(false))
	assert.ErrorIs(t, err, pub.err)
	assert.Len(t, rec.cmds, 2)
	assert.Equal(t, pub.err, rec.errs[1])
}

func TestControllerWithoutRecorder(t *testing.T) {
	c := NewController(&fakePublisher{}, nil)
	assert.NoError(t, c.Send(context.Background(), DisplayPower(true)))
}
