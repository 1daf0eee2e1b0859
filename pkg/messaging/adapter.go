package messaging

import (
	"context"
	"time"
)

// BrokerPublisher publishes typed events onto a single broker channel.
type BrokerPublisher struct {
	broker  Broker
	channel string
	now     func() time.Time
}

func NewBrokerPublisher(broker Broker, channel string) *BrokerPublisher {
	return &BrokerPublisher{broker: broker, channel: channel, now: time.Now}
}

func (p *BrokerPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	return p.broker.Publish(ctx, p.channel, Message{
		Type:       eventType,
		Payload:    payload,
		OccurredAt: p.now().UTC(),
	})
}

func (p *BrokerPublisher) Close() error {
	return p.broker.Close()
}
