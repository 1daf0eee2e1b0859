package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/pkg/circuitbreaker"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

func unreachable() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 50 * time.Millisecond,
	})
}

func TestPublishOpensBreakerAfterRepeatedFailures(t *testing.T) {
	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	broker := NewWithClient(unreachable(), zerolog.Nop(), m)
	defer broker.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		err := broker.Publish(ctx, "clinic.events", map[string]string{"type": "clinic.submitted"})
		require.Error(t, err)
		assert.False(t, errors.Is(err, circuitbreaker.ErrOpen))
	}

	err := broker.Publish(ctx, "clinic.events", map[string]string{"type": "clinic.submitted"})
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, float64(6), testutil.ToFloat64(m.RedisOperations.WithLabelValues("publish", "error")))
}

func TestPingUnreachable(t *testing.T) {
	broker := NewWithClient(unreachable(), zerolog.Nop(), nil)
	defer broker.Close()

	assert.Error(t, broker.PingContext(context.Background()))
}

func TestNewRedisBrokerRejectsBadURL(t *testing.T) {
	_, err := NewRedisBroker(Config{URL: "not a url"}, zerolog.Nop(), nil)
	assert.Error(t, err)
}
