package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureBroker struct {
	channel string
	message interface{}
	closed  bool
}

func (b *captureBroker) Publish(_ context.Context, channel string, message interface{}) error {
	b.channel, b.message = channel, message
	return nil
}

func (b *captureBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, nil
}

func (b *captureBroker) Close() error {
	b.closed = true
	return nil
}

func TestBrokerPublisherWrapsPayload(t *testing.T) {
	broker := &captureBroker{}
	p := NewBrokerPublisher(broker, "clinic.events")
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("ICT", 7*3600))
	p.now = func() time.Time { return at }

	require.NoError(t, p.Publish(context.Background(), "clinic.approved", map[string]string{"slug": "a"}))

	assert.Equal(t, "clinic.events", broker.channel)
	msg, ok := broker.message.(Message)
	require.True(t, ok)
	assert.Equal(t, "clinic.approved", msg.Type)
	assert.Equal(t, at.UTC(), msg.OccurredAt)

	require.NoError(t, p.Close())
	assert.True(t, broker.closed)
}
