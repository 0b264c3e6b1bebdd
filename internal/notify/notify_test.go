package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/eventix/internal/config"
	"github.com/Shivanand-hulikatti/eventix/internal/logging"
)

func TestNewWithoutBrokersLogs(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWithOutput(config.LogConfig{Level: "info", Format: "json"}, &buf)

	p := New(config.KafkaConfig{Topic: "t"}, log)
	_, ok := p.(*LogPublisher)
	require.True(t, ok)

	buf.Reset()
	require.NoError(t, p.Publish(context.Background(), Notification{
		Kind: KindBookingConfirmed, EventID: "ev-1", AttendeeID: "att-1", Tickets: 2, At: time.Now(),
	}))
	require.NoError(t, p.Close())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "notification", entry["msg"])
	assert.Equal(t, KindBookingConfirmed, entry["kind"])
	assert.Equal(t, "ev-1", entry["event_id"])
}

func TestNewWithBrokersUsesKafka(t *testing.T) {
	p := New(config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "t"}, logging.Discard())
	_, ok := p.(*kafkaPublisher)
	assert.True(t, ok)
	assert.NoError(t, p.Close())
}
