package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher is the part of mqtt.Client the MQTT sink needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTSink publishes every frame as JSON on Topic.
type MQTTSink struct {
	Client  Publisher
	Topic   string
	QoS     byte
	Timeout time.Duration // per publish, 0 = wait forever
}

// Send publishes f and waits for the broker acknowledgement.
func (s *MQTTSink) Send(ctx context.Context, f Frame) error {
	js, err := json.Marshal(&f)
	if err != nil {
		return fmt.Errorf("marshal frame %d: %w", f.Index, err)
	}
	token := s.Client.Publish(s.Topic, s.QoS, false, js)
	if s.Timeout > 0 {
		if !token.WaitTimeout(s.Timeout) {
			return fmt.Errorf("publish frame %d to %s: timed out after %v", f.Index, s.Topic, s.Timeout)
		}
	} else {
		token.Wait()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish frame %d to %s: %w", f.Index, s.Topic, err)
	}
	return nil
}
