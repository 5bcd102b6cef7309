package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type typedEvent struct {
	ID string `json:"id"`
}

func (typedEvent) EventType() string { return "order.placed" }

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestProducer_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := &Producer{writer: w, topic: "orders"}

	require.NoError(t, p.Publish(context.Background(), "o1", typedEvent{ID: "o1"}))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "o1", string(msg.Key))
	assert.Equal(t, "order.placed", headerValue(&msg, EventTypeHeader))

	var decoded typedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "o1", decoded.ID)
}

func TestProducer_PublishUntyped(t *testing.T) {
	w := &recordingWriter{}
	p := &Producer{writer: w, topic: "orders"}

	require.NoError(t, p.Publish(context.Background(), "k", map[string]int{"n": 1}))
	assert.Empty(t, headerValue(&w.msgs[0], EventTypeHeader))
}

func TestProducer_PublishError(t *testing.T) {
	p := &Producer{writer: &recordingWriter{err: errors.New("broker down")}, topic: "orders"}

	err := p.Publish(context.Background(), "k", typedEvent{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish to orders")
}

func TestHeaderCarrier(t *testing.T) {
	msg := &kafka.Message{}
	c := headerCarrier{msg: msg}

	c.Set("traceparent", "a")
	c.Set("traceparent", "b")
	c.Set("tracestate", "x")

	assert.Equal(t, "b", c.Get("traceparent"))
	assert.Equal(t, []string{"traceparent", "tracestate"}, c.Keys())
	assert.Empty(t, c.Get("missing"))
}

type scriptedReader struct {
	msgs      []kafka.Message
	committed []int64
}

func (r *scriptedReader) FetchMessage(context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		return kafka.Message{}, io.EOF
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *scriptedReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *scriptedReader) Close() error { return nil }

func newTestConsumer(r *scriptedReader) *Consumer {
	return &Consumer{
		reader:  r,
		topic:   "orders",
		groupID: "notifier",
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestConsumer_Consume(t *testing.T) {
	t.Run("commits after handling", func(t *testing.T) {
		r := &scriptedReader{msgs: []kafka.Message{
			{Offset: 1, Key: []byte("o1"), Value: []byte(`{}`), Headers: []kafka.Header{{Key: EventTypeHeader, Value: []byte("order.placed")}}},
			{Offset: 2, Key: []byte("o2"), Value: []byte(`{}`)},
		}}
		var seen []Message

		err := newTestConsumer(r).Consume(context.Background(), func(_ context.Context, m Message) error {
			seen = append(seen, m)
			return nil
		})

		require.ErrorIs(t, err, io.EOF)
		assert.Equal(t, []int64{1, 2}, r.committed)
		require.Len(t, seen, 2)
		assert.Equal(t, "order.placed", seen[0].EventType)
		assert.Equal(t, "o2", seen[1].Key)
	})

	t.Run("permanent failures are committed", func(t *testing.T) {
		r := &scriptedReader{msgs: []kafka.Message{{Offset: 7, Value: []byte(`nope`)}}}

		err := newTestConsumer(r).Consume(context.Background(), func(context.Context, Message) error {
			return fmt.Errorf("decode: %w", ErrPermanent)
		})

		require.ErrorIs(t, err, io.EOF)
		assert.Equal(t, []int64{7}, r.committed)
	})

	t.Run("transient failures stop without commit", func(t *testing.T) {
		r := &scriptedReader{msgs: []kafka.Message{{Offset: 3}}}
		boom := errors.New("email service down")

		err := newTestConsumer(r).Consume(context.Background(), func(context.Context, Message) error {
			return boom
		})

		require.ErrorIs(t, err, boom)
		assert.Empty(t, r.committed)
	})
}
