package eventbus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPublisher(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPublisher()

	payload := []byte(`{"kind":"approved"}`)
	require.NoError(t, p.Publish(ctx, "maintenance.notification", payload))
	payload[0] = 'X'

	msgs := p.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "maintenance.notification", msgs[0].RoutingKey)
	assert.Equal(t, `{"kind":"approved"}`, string(msgs[0].Payload))

	boom := errors.New("broker down")
	p.FailWith(boom)
	assert.ErrorIs(t, p.Publish(ctx, "k", nil), boom)
	assert.Len(t, p.Messages(), 1)
}

func TestBreakerPublisher_OpensAfterConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryPublisher()
	inner.FailWith(errors.New("broker down"))

	var transitions []string
	p := NewBreakerPublisher(inner, BreakerSettings{
		Name:             "test",
		FailureThreshold: 2,
		OpenTimeout:      time.Hour,
	}, nil, func(to string) { transitions = append(transitions, to) })

	assert.Error(t, p.Publish(ctx, "k", nil))
	assert.Error(t, p.Publish(ctx, "k", nil))
	assert.Equal(t, "open", p.State())
	assert.Equal(t, []string{"open"}, transitions)

	inner.FailWith(nil)
	assert.ErrorIs(t, p.Publish(ctx, "k", nil), ErrUnavailable)
	assert.Empty(t, inner.Messages())
}

func TestBreakerPublisher_PassesThroughWhenHealthy(t *testing.T) {
	inner := NewMemoryPublisher()
	p := NewBreakerPublisher(inner, BreakerSettings{Name: "test"}, nil, nil)

	require.NoError(t, p.Publish(context.Background(), "k", []byte("x")))
	assert.Equal(t, "closed", p.State())
	assert.Len(t, inner.Messages(), 1)
}
