package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func newTestProducer(w messageWriter) *Producer {
	return &Producer{
		writer: w,
		logger: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})),
	}
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestNewEvent(t *testing.T) {
	ev, err := NewEvent("storefront.checkout.completed", "order-1", "order", "storefront",
		map[string]int64{"total": 90})
	require.NoError(t, err)

	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, 1, ev.Version)
	assert.False(t, ev.Timestamp.IsZero())

	var data map[string]int64
	require.NoError(t, ev.UnmarshalData(&data))
	assert.Equal(t, int64(90), data["total"])
}

func TestNewEvent_UnmarshalableData(t *testing.T) {
	_, err := NewEvent("x", "a", "b", "c", make(chan int))
	assert.Error(t, err)
}

func TestPublish_WritesKeyedMessageWithHeaders(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)

	ev, err := NewEvent("storefront.session.expired", "user-7", "session", "storefront", nil)
	require.NoError(t, err)
	ev.WithCorrelationID("corr-9").WithMetadata("reason", "401")

	before := testutil.ToFloat64(producerPublished.WithLabelValues("storefront.session"))
	require.NoError(t, p.Publish(context.Background(), "storefront.session", ev))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "storefront.session", msg.Topic)
	assert.Equal(t, "user-7", string(msg.Key))
	assert.Equal(t, "storefront.session.expired", header(msg, "event_type"))
	assert.Equal(t, "corr-9", header(msg, "correlation_id"))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "401", decoded.Metadata["reason"])
	assert.Equal(t, before+1, testutil.ToFloat64(producerPublished.WithLabelValues("storefront.session")))
}

func TestPublish_InjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled,
	}))

	w := &fakeWriter{}
	ev, _ := NewEvent("storefront.cart.cleared", "user-1", "cart", "storefront", nil)
	require.NoError(t, newTestProducer(w).Publish(ctx, "storefront.cart", ev))

	assert.Contains(t, header(w.msgs[0], "traceparent"), "4bf92f3577b34da6a3ce929d0e0e4736")
}

func TestPublish_WriterError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	ev, _ := NewEvent("storefront.checkout.failed", "o-1", "order", "storefront", nil)

	before := testutil.ToFloat64(producerErrors.WithLabelValues("storefront.checkout"))
	err := newTestProducer(w).Publish(context.Background(), "storefront.checkout", ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish event to storefront.checkout")
	assert.Equal(t, before+1, testutil.ToFloat64(producerErrors.WithLabelValues("storefront.checkout")))
}

func TestHeaderCarrier(t *testing.T) {
	headers := []kafka.Header{{Key: "existing", Value: []byte("v1")}}
	c := HeaderCarrier{headers: &headers}

	assert.Equal(t, "v1", c.Get("existing"))
	assert.Empty(t, c.Get("missing"))

	c.Set("existing", "v2")
	c.Set("new", "v3")
	assert.Equal(t, "v2", c.Get("existing"))
	assert.ElementsMatch(t, []string{"existing", "new"}, c.Keys())
}

func TestPing_NoBrokers(t *testing.T) {
	err := newTestProducer(&fakeWriter{}).Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no brokers")
}

func TestClose_And_Discard(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, newTestProducer(w).Close())
	assert.True(t, w.closed)

	var d Publisher = Discard{}
	assert.NoError(t, d.Publish(context.Background(), "t", &Event{}))
	assert.NoError(t, d.Close())
}
