package control

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Display control topics.
const (
	TopicDisplayPower      = "display/control/power"
	TopicDisplayBrightness = "display/control/brightness"
)

// Brightness limits accepted by the display service.
const (
	MinBrightness = 1
	MaxBrightness = 100
)

var (
	// ErrBrightnessRange is returned for a brightness outside [1, 100].
	ErrBrightnessRange = errors.New("brightness out of range")
	// ErrInvalidPower is returned for a power state other than on/off.
	ErrInvalidPower = errors.New("invalid power state")
)

// Command is a message published to the broker.
type Command struct {
	Topic   string `json:"topic"`
	Payload string `json:"payload"`
}

// DisplayPower turns the dashboard display on or off.
func DisplayPower(on bool) Command {
	if on {
		return Command{Topic: TopicDisplayPower, Payload: "On"}
	}
	return Command{Topic: TopicDisplayPower, Payload: "Off"}
}

// Brightness sets the display backlight level.
func Brightness(level int) (Command, error) {
	if level < MinBrightness || level > MaxBrightness {
		return Command{}, fmt.Errorf("%w: %d", ErrBrightnessRange, level)
	}
	return Command{Topic: TopicDisplayBrightness, Payload: strconv.Itoa(level)}, nil
}

// ParsePower accepts on/off in any case.
func ParsePower(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q", ErrInvalidPower, s)
}

// Publisher sends a payload to a broker topic.
type Publisher interface {
	Publish(ctx context.Context, topic, payload string) error
}

// Recorder observes the outcome of every command.
type Recorder interface {
	RecordCommand(cmd Command, err error)
}

// Controller publishes commands and records their outcome.
type Controller struct {
	pub Publisher
	rec Recorder
}

// NewController creates a Controller. rec may be nil.
func NewController(pub Publisher, rec Recorder) *Controller {
	return &Controller{pub: pub, rec: rec}
}

// Send publishes cmd.
func (c *Controller) Send(ctx context.Context, cmd Command) error {
	err := c.pub.Publish(ctx, cmd.Topic, cmd.Payload)
	if c.rec != nil {
		c.rec.RecordCommand(cmd, err)
	}
	if err != nil {
		return fmt.Errorf("publish %s: %w", cmd.Topic, err)
	}
	return nil
}
