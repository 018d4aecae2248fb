package mqtt

import (
	"context"
	"errors"
	"testing"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremqtt "github.com/kilianp07/evdash/core/mqtt"
)

func TestSessionSubscribesOnConnect(t *testing.T) {
	mc := withMockClient(t, &mockClient{})
	cfg := Config{QoS: map[string]byte{"telemetry": 1, "command": 2}}
	s, err := NewSession(cfg, "live/#", nil)
	require.NoError(t, err)
	assert.Equal(t, []record{{"live/#", 1}}, mc.subscribed)
	assert.Equal(t, "ws://127.0.0.1:9001", mc.opts.Servers[0].String())
	assert.True(t, s.IsConnected())
	assert.Equal(t, "live/#", s.Topic())
	assert.Contains(t, s.ClientID(), "evdash_")
}

func TestSessionForwardsMessagesInOrder(t *testing.T) {
	mc := withMockClient(t, &mockClient{})
	var got []string
	_, err := NewSession(Config{}, "live/#", func(topic, payload string) {
		got = append(got, topic+"="+payload)
	})
	require.NoError(t, err)
	require.NotNil(t, mc.handler)
	mc.handler(mc, mockMessage{topic: "live/speed", p: []byte("42")})
	mc.handler(mc, mockMessage{topic: "live/soc", p: []byte("80")})
	assert.Equal(t, []string{"live/speed=42", "live/soc=80"}, got)
}

func TestSessionConnectError(t *testing.T) {
	withMockClient(t, &mockClient{connectErr: errors.New("refused")})
	_, err := NewSession(Config{}, "live/#", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
}

func TestSessionInvalidConfig(t *testing.T) {
	_, err := NewSession(Config{AuthMethod: "magic"}, "live/#", nil)
	assert.Error(t, err)
}

func TestPublishRetry(t *testing.T) {
	mc := withMockClient(t, &mockClient{publishErrs: []error{errors.New("net fail"), nil}})
	s, err := NewSession(Config{MaxRetries: 2, BackoffMS: 1, QoS: map[string]byte{"command": 1}}, "live/#", nil)
	require.NoError(t, err)
	require.NoError(t, s.Publish(context.Background(), "display/control/power", "On"))
	assert.Len(t, mc.published, 2)
	assert.Equal(t, byte(1), mc.published[0].qos)
}

func TestPublishGivesUp(t *testing.T) {
	fail := errors.New("net fail")
	mc := withMockClient(t, &mockClient{publishErrs: []error{fail, fail, fail}})
	s, err := NewSession(Config{MaxRetries: 1, BackoffMS: 1}, "live/#", nil)
	require.NoError(t, err)
	err = s.Publish(context.Background(), "display/control/power", "On")
	assert.ErrorIs(t, err, fail)
	assert.Len(t, mc.published, 2)
}

type hangingClient struct{ mockClient }

func (h *hangingClient) Publish(string, byte, bool, interface{}) paho.Token { return pendingToken{} }

func TestPublishContextCancelled(t *testing.T) {
	hc := &hangingClient{}
	prev := newMQTTClient
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { hc.opts = o; return hc }
	t.Cleanup(func() { newMQTTClient = prev })

	s, err := NewSession(Config{}, "live/#", nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Publish(ctx, "display/control/brightness", "50"), context.Canceled)
}

func TestPublishWithoutClient(t *testing.T) {
	var s Session
	assert.ErrorIs(t, s.Publish(context.Background(), "t", "p"), coremqtt.ErrNotConnected)
	assert.False(t, s.IsConnected())
}

func TestCloseUnsubscribesOnce(t *testing.T) {
	mc := withMockClient(t, &mockClient{})
	s, err := NewSession(Config{}, "live/#", nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, []string{"live/#"}, mc.unsubscribed)
	assert.True(t, mc.disconnected)
	assert.False(t, s.IsConnected())
}

func TestCloseWhileReconnectingDisconnects(t *testing.T) {
	mc := withMockClient(t, &mockClient{})
	s, err := NewSession(Config{}, "live/#", nil)
	require.NoError(t, err)
	mc.offline = true
	require.NoError(t, s.Close())
	assert.Empty(t, mc.unsubscribed)
	assert.True(t, mc.disconnected)
}

func TestPublishOnlySession(t *testing.T) {
	mc := withMockClient(t, &mockClient{})
	s, err := NewSession(Config{}, "", nil)
	require.NoError(t, err)
	assert.Empty(t, mc.subscribed)
	require.NoError(t, s.Publish(context.Background(), "display/control/power", "On"))
	require.NoError(t, s.Close())
	assert.Empty(t, mc.unsubscribed)
	assert.True(t, mc.disconnected)
}

func TestMockSession(t *testing.T) {
	var got []string
	m := NewMockSession(func(topic, payload string) { got = append(got, topic) })
	m.Deliver("live/speed", "1")
	assert.Equal(t, []string{"live/speed"}, got)

	require.NoError(t, m.Publish(context.Background(), "display/control/power", "On"))
	m.FailTopic["display/control/brightness"] = errors.New("boom")
	assert.Error(t, m.Publish(context.Background(), "display/control/brightness", "5"))
	assert.Equal(t, []Published{{Topic: "display/control/power", Payload: "On"}}, m.Sent())

	require.NoError(t, m.Close())
	assert.False(t, m.IsConnected())
	assert.ErrorIs(t, m.Publish(context.Background(), "x", "y"), coremqtt.ErrNotConnected)
}
