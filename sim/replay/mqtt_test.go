package replay

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/lovehater/sim/layout"
)

type fakeToken struct {
	err      error
	complete bool
}

func (t *fakeToken) Wait() bool                       { return t.complete }
func (t *fakeToken) WaitTimeout(_ time.Duration) bool { return t.complete }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if t.complete {
		close(ch)
	}
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type message struct {
	topic   string
	qos     byte
	payload []byte
}

type fakePublisher struct {
	sent  []message
	token *fakeToken
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	p.sent = append(p.sent, message{topic: topic, qos: qos, payload: payload.([]byte)})
	if p.token != nil {
		return p.token
	}
	return &fakeToken{complete: true}
}

func TestMQTTSink_PublishesFramesAsJSON(t *testing.T) {
	// GIVEN a player streaming into an MQTT sink
	res := cappedRun(t)
	pub := &fakePublisher{}
	sink := &MQTTSink{Client: pub, Topic: "lovehater/frames", QoS: 1, Timeout: time.Second}

	// WHEN the whole run is played
	err := NewPlayer(res, layout.DefaultOptions()).Play(context.Background(), time.Millisecond, sink)

	// THEN one message per frame is published on the topic
	require.NoError(t, err)
	require.Len(t, pub.sent, len(res.Snapshots))
	var f Frame
	require.NoError(t, json.Unmarshal(pub.sent[1].payload, &f))
	assert.Equal(t, 1, f.Index)
	assert.Equal(t, res.Log[0], f.Line)
	assert.Equal(t, "lovehater/frames", pub.sent[1].topic)
	assert.Equal(t, byte(1), pub.sent[1].qos)
}

func TestMQTTSink_BrokerError(t *testing.T) {
	res := cappedRun(t)
	refused := errors.New("not authorized")
	pub := &fakePublisher{token: &fakeToken{complete: true, err: refused}}
	sink := &MQTTSink{Client: pub, Topic: "t"}

	err := sink.Send(context.Background(), NewPlayer(res, layout.DefaultOptions()).Frame())

	assert.ErrorIs(t, err, refused)
}

func TestMQTTSink_Timeout(t *testing.T) {
	res := cappedRun(t)
	pub := &fakePublisher{token: &fakeToken{complete: false}}
	sink := &MQTTSink{Client: pub, Topic: "t", Timeout: time.Millisecond}

	err := sink.Send(context.Background(), NewPlayer(res, layout.DefaultOptions()).Frame())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}
