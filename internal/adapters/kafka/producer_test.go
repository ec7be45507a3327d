package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbdwatch/pkg/errors"
)

type fakeWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func newTestProducer() (*Producer, map[string]*fakeWriter) {
	created := make(map[string]*fakeWriter)
	p := NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}})
	p.newWriter = func(topic string) messageWriter {
		w := &fakeWriter{}
		created[topic] = w
		return w
	}
	return p, created
}

func TestProducer_Publish(t *testing.T) {
	p, writers := newTestProducer()

	err := p.Publish(context.Background(), "dbd.risk.assessed",
		[]string{"Kota Bandung", "Kab. Garut"},
		[]interface{}{map[string]int{"a": 1}, map[string]int{"b": 2}})
	require.NoError(t, err)

	w := writers["dbd.risk.assessed"]
	require.NotNil(t, w)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, "Kota Bandung", string(w.msgs[0].Key))

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(w.msgs[1].Value, &decoded))
	assert.Equal(t, 2, decoded["b"])

	// writer is reused per topic
	require.NoError(t, p.Publish(context.Background(), "dbd.risk.assessed", []string{"x"}, []interface{}{1}))
	assert.Len(t, w.msgs, 3)
	assert.Len(t, writers, 1)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_KeyCountMismatch(t *testing.T) {
	p, _ := newTestProducer()

	err := p.Publish(context.Background(), "t", []string{"a"}, nil)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}
