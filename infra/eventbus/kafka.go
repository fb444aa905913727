package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/payledger/pkg/domain/events"
	"github.com/amirasaad/payledger/pkg/eventbus"
	"github.com/segmentio/kafka-go"
)

const defaultTopicPrefix = "payledger.events"

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// KafkaEventBusConfig holds configuration for the Kafka event bus.
type KafkaEventBusConfig struct {
	GroupID     string
	TopicPrefix string
}

// DefaultKafkaEventBusConfig returns default configuration for KafkaEventBus.
func DefaultKafkaEventBusConfig() *KafkaEventBusConfig {
	return &KafkaEventBusConfig{
		GroupID:     "payledger",
		TopicPrefix: defaultTopicPrefix,
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaEventBus publishes events as JSON envelopes, one topic per event type.
// Handlers registered on it consume from the same topics through a consumer group.
type KafkaEventBus struct {
	brokers []string
	writer  messageWriter
	dialer  *kafka.Dialer
	ctx     context.Context

	handlers    map[events.EventType][]eventbus.HandlerFunc
	handlersMtx sync.RWMutex

	readers    map[events.EventType]*kafka.Reader
	readersMtx sync.Mutex

	logger *slog.Logger
	config *KafkaEventBusConfig

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithKafka creates a new Kafka-backed event bus.
// brokers: Comma-separated brokers list (e.g. "localhost:9092,localhost:9093").
func NewWithKafka(
	brokers string,
	logger *slog.Logger,
	config *KafkaEventBusConfig,
) (*KafkaEventBus, error) {
	parsedBrokers := parseBrokers(brokers)
	if len(parsedBrokers) == 0 {
		return nil, fmt.Errorf("kafka event bus: brokers are required")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(parsedBrokers...),
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		Balancer:               &kafka.Hash{},
	}
	bus := newKafkaBus(parsedBrokers, writer, logger, config)

	if err := bus.ping(bus.ctx); err != nil {
		_ = bus.Close()
		return nil, err
	}

	bus.logger.Info("Kafka event bus initialized",
		"group_id", bus.config.GroupID,
		"brokers", parsedBrokers,
		"topic_prefix", bus.config.TopicPrefix,
	)
	return bus, nil
}

func newKafkaBus(
	brokers []string,
	writer messageWriter,
	logger *slog.Logger,
	config *KafkaEventBusConfig,
) *KafkaEventBus {
	if config == nil {
		config = DefaultKafkaEventBusConfig()
	}
	if config.GroupID == "" {
		config.GroupID = "payledger"
	}
	if strings.TrimSpace(config.TopicPrefix) == "" {
		config.TopicPrefix = defaultTopicPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &KafkaEventBus{
		brokers:  brokers,
		writer:   writer,
		dialer:   &kafka.Dialer{Timeout: 5 * time.Second},
		ctx:      ctx,
		handlers: make(map[events.EventType][]eventbus.HandlerFunc),
		readers:  make(map[events.EventType]*kafka.Reader),
		logger:   logger.With("bus", "kafka"),
		config:   config,
		cancel:   cancel,
	}
}

// Close stops the consumers and flushes the writer.
func (b *KafkaEventBus) Close() error {
	if b == nil {
		return nil
	}
	if b.cancel != nil {
		b.cancel()
	}

	b.readersMtx.Lock()
	for _, r := range b.readers {
		_ = r.Close()
	}
	b.readersMtx.Unlock()

	b.wg.Wait()

	if b.writer != nil {
		return b.writer.Close()
	}
	return nil
}

// Register registers an event handler and starts a consumer for its topic.
func (b *KafkaEventBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	b.handlersMtx.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.handlersMtx.Unlock()

	b.ensureConsumer(eventType)
}

// Emit publishes an event to Kafka.
func (b *KafkaEventBus) Emit(ctx context.Context, event events.Event) error {
	if b == nil || b.writer == nil {
		return fmt.Errorf("kafka event bus: writer not initialized")
	}

	envBytes, err := buildEnvelope(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: topicNameFor(b.config.TopicPrefix, events.EventType(event.Type())),
		Key:   []byte(event.Type()),
		Value: envBytes,
		Time:  time.Now(),
	}
	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka event bus: publish failed: %w", err)
	}
	return nil
}

func (b *KafkaEventBus) ping(ctx context.Context) error {
	conn, err := b.dialer.DialContext(ctx, "tcp", b.brokers[0])
	if err != nil {
		return fmt.Errorf("kafka event bus: connection failed: %w", err)
	}
	_ = conn.Close()
	return nil
}

func (b *KafkaEventBus) ensureConsumer(eventType events.EventType) {
	if len(b.brokers) == 0 {
		return
	}

	b.readersMtx.Lock()
	defer b.readersMtx.Unlock()

	if _, exists := b.readers[eventType]; exists {
		return
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     b.brokers,
		GroupID:     b.config.GroupID,
		Topic:       topicNameFor(b.config.TopicPrefix, eventType),
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     1 * time.Second,
		Dialer:      b.dialer,
	})
	b.readers[eventType] = reader

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consumeLoop(b.ctx, eventType, reader)
	}()
}

func (b *KafkaEventBus) consumeLoop(ctx context.Context, eventType events.EventType, reader *kafka.Reader) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			b.logger.Error("kafka consume error", "error", err, "event_type", eventType)
			time.Sleep(500 * time.Millisecond)
			continue
		}

		b.dispatch(ctx, eventType, msg.Value)
		if err := reader.CommitMessages(ctx, msg); err != nil {
			b.logger.Error("kafka commit error", "error", err, "topic", msg.Topic, "offset", msg.Offset)
		}
	}
}

// dispatch decodes an envelope and runs the handlers for it.
// Undecodable messages are logged and skipped.
func (b *KafkaEventBus) dispatch(ctx context.Context, expected events.EventType, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		b.logger.Error("failed to unmarshal envelope", "error", err)
		return
	}
	evtType := events.EventType(env.Type)
	if evtType != expected {
		b.logger.Warn("envelope type mismatch for topic", "expected", expected, "actual", evtType)
	}
	constructor, ok := events.EventTypes[evtType]
	if !ok {
		b.logger.Error("unknown event type", "type", env.Type)
		return
	}
	evt := constructor()
	if err := json.Unmarshal(env.Payload, evt); err != nil {
		b.logger.Error("failed to unmarshal event payload", "error", err, "event_type", env.Type)
		return
	}

	b.handlersMtx.RLock()
	handlers := append([]eventbus.HandlerFunc(nil), b.handlers[evtType]...)
	b.handlersMtx.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, evt); err != nil {
			b.logger.Error("handler error", "error", err, "event_type", evtType)
		}
	}
}

func buildEnvelope(event events.Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("kafka event bus: marshal failed: %w", err)
	}
	envBytes, err := json.Marshal(envelope{Type: event.Type(), Payload: data})
	if err != nil {
		return nil, fmt.Errorf("kafka event bus: envelope marshal failed: %w", err)
	}
	return envBytes, nil
}

func parseBrokers(brokers string) []string {
	parts := strings.Split(brokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func topicNameFor(prefix string, eventType events.EventType) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultTopicPrefix
	}
	return fmt.Sprintf("%s.%s", prefix, strings.ToLower(eventType.String()))
}

var _ eventbus.Bus = (*KafkaEventBus)(nil)
