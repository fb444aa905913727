package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/amirasaad/payledger/pkg/domain/events"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestKafkaEventBus_EmitWritesEnvelope(t *testing.T) {
	w := &fakeWriter{}
	bus := newKafkaBus(nil, w, discardLogger(), &KafkaEventBusConfig{TopicPrefix: "test.events"})
	defer bus.Close() //nolint:errcheck

	evt := &events.RequestCreated{RequestID: uuid.New(), Amount: 2500}
	require.NoError(t, bus.Emit(context.Background(), evt))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "test.events.request.created", msg.Topic)
	assert.Equal(t, []byte("request.created"), msg.Key)

	var env envelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, "request.created", env.Type)

	var decoded events.RequestCreated
	require.NoError(t, json.Unmarshal(env.Payload, &decoded))
	assert.Equal(t, evt.RequestID, decoded.RequestID)
	assert.Equal(t, int64(2500), decoded.Amount)
}

func TestKafkaEventBus_EmitError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	bus := newKafkaBus(nil, w, discardLogger(), nil)
	defer bus.Close() //nolint:errcheck

	err := bus.Emit(context.Background(), &events.EntryRecorded{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish failed")
}

func TestKafkaEventBus_Dispatch(t *testing.T) {
	bus := newKafkaBus(nil, &fakeWriter{}, discardLogger(), nil)
	defer bus.Close() //nolint:errcheck

	var got *events.EntryRecorded
	bus.Register(events.EntryRecordedType, func(_ context.Context, e events.Event) error {
		got = e.(*events.EntryRecorded)
		return nil
	})

	raw, err := buildEnvelope(&events.EntryRecorded{Code: "abcdef0123", Amount: 10})
	require.NoError(t, err)
	bus.dispatch(context.Background(), events.EntryRecordedType, raw)

	require.NotNil(t, got)
	assert.Equal(t, "abcdef0123", got.Code)

	// garbage is skipped without panicking
	bus.dispatch(context.Background(), events.EntryRecordedType, []byte("{"))
}

func TestTopicNameFor(t *testing.T) {
	assert.Equal(t, "payledger.events.ledger.entry.recorded", topicNameFor("", events.EntryRecordedType))
	assert.Equal(t, []string{"a:1", "b:2"}, parseBrokers(" a:1 ,,b:2"))
}
