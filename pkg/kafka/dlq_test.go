package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

func headerMap(hs []kafka.Header) map[string]string {
	m := make(map[string]string, len(hs))
	for _, h := range hs {
		m[h.Key] = string(h.Value)
	}
	return m
}

func TestDLQProducer_Publish(t *testing.T) {
	w := &recordingWriter{}
	d := &DLQProducer{writer: w, logger: newTestLogger()}

	msg := kafka.Message{
		Topic:     "parafort.order.created",
		Partition: 2,
		Offset:    41,
		Key:       []byte("order-1"),
		Value:     []byte(`{}`),
		Headers:   []kafka.Header{{Key: "event_type", Value: []byte("order.created")}},
	}
	require.NoError(t, d.Publish(context.Background(), msg, errors.New("boom"), "notifications"))

	require.Len(t, w.msgs, 1)
	out := w.msgs[0]
	assert.Equal(t, "parafort.dlq.parafort.order.created", out.Topic)
	assert.Equal(t, msg.Key, out.Key)

	h := headerMap(out.Headers)
	assert.Equal(t, "order.created", h["event_type"])
	assert.Equal(t, "2", h["dlq.original_partition"])
	assert.Equal(t, "41", h["dlq.original_offset"])
	assert.Equal(t, "notifications", h["dlq.consumer_group"])
	assert.Equal(t, "boom", h["dlq.error"])
}

func TestDLQProducer_WriteError(t *testing.T) {
	d := &DLQProducer{writer: &recordingWriter{err: errors.New("broker down")}, logger: newTestLogger()}
	err := d.Publish(context.Background(), kafka.Message{Topic: "t"}, nil, "g")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parafort.dlq.t")
}
