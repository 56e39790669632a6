package kafka

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/prometheus"
)

type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []kafka.Message
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.messages) > 0 {
		m := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) Stats() kafka.ReaderStats { return kafka.ReaderStats{} }

func (r *fakeReader) committedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

func newTestConsumer(t *testing.T, reader ReaderInterface, retry RetryConfig) *Consumer {
	t.Helper()
	return &Consumer{
		reader: reader,
		config: ConsumerConfig{
			Brokers:     []string{"localhost:9092"},
			GroupID:     "erisk-group",
			RetryConfig: retry,
		},
		logger:   logging.NewNopLogger(),
		handlers: make(map[string]MessageHandler),
		metrics:  &ConsumerMetrics{},
	}
}

func TestConsumerDispatch(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{
		{
			Topic: TopicScoringRequest,
			Value: []byte(`{"query":"Acme Corp fraud"}`),
			Headers: []kafka.Header{
				{Key: HeaderRiskLevel, Value: []byte("HIGH")},
			},
		},
	}}
	c := newTestConsumer(t, reader, RetryConfig{})

	received := make(chan *Message, 1)
	c.Subscribe(TopicScoringRequest, func(ctx context.Context, msg *Message) error {
		received <- msg
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Start(ctx))

	select {
	case msg := <-received:
		assert.Equal(t, TopicScoringRequest, msg.Topic)
		assert.Equal(t, "HIGH", msg.Headers[HeaderRiskLevel])
	case <-time.After(2 * time.Second):
		t.Fatal("handler not invoked")
	}

	cancel()
	require.NoError(t, c.Close())
	assert.Equal(t, int64(1), c.metrics.MessagesProcessed.Load())
}

func TestConsumerStart_AlreadyRunning(t *testing.T) {
	c := newTestConsumer(t, &fakeReader{}, RetryConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Start(ctx))
	assert.ErrorIs(t, c.Start(ctx), ErrAlreadyRunning)

	cancel()
	require.NoError(t, c.Close())
}

func TestConsumerNoHandler_CommitsAndContinues(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{
		{Topic: "unknown.topic", Value: []byte("x")},
	}}
	c := newTestConsumer(t, reader, RetryConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Start(ctx))

	assert.Eventually(t, func() bool {
		return reader.committedCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, c.Close())
}

func TestProcessMessage_RetriesThenSucceeds(t *testing.T) {
	c := newTestConsumer(t, &fakeReader{}, RetryConfig{
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
	})

	var attempts int
	handler := func(ctx context.Context, msg *Message) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}

	err := c.processMessage(context.Background(), &Message{Topic: TopicScoringRequest}, handler)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, int64(2), c.metrics.MessagesRetried.Load())
}

func TestProcessMessage_DeadLetter(t *testing.T) {
	w := &fakeWriter{}
	dl, err := NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}}, logging.NewNopLogger())
	require.NoError(t, err)
	dl.writer = w

	c := newTestConsumer(t, &fakeReader{}, RetryConfig{
		MaxRetries:      1,
		RetryBackoff:    time.Millisecond,
		DeadLetterTopic: TopicDeadLetter,
	})
	c.deadLetterProducer = dl

	handler := func(ctx context.Context, msg *Message) error {
		return errors.New("permanent")
	}

	msg := &Message{
		Topic:   TopicScoringRequest,
		Value:   []byte("payload"),
		Headers: map[string]string{"k": "v"},
	}
	err = c.processMessage(context.Background(), msg, handler)
	require.NoError(t, err)

	require.Len(t, w.messages, 1)
	assert.Equal(t, TopicDeadLetter, w.messages[0].Topic)

	headers := make(map[string]string)
	for _, h := range w.messages[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, TopicScoringRequest, headers["original_topic"])
	assert.Equal(t, "permanent", headers["error_message"])
	assert.Equal(t, int64(1), c.metrics.MessagesDeadLettered.Load())
}

func TestProcessMessage_NoDeadLetterReturnsError(t *testing.T) {
	c := newTestConsumer(t, &fakeReader{}, RetryConfig{
		MaxRetries:   1,
		RetryBackoff: time.Millisecond,
	})

	handler := func(ctx context.Context, msg *Message) error {
		return errors.New("permanent")
	}
	err := c.processMessage(context.Background(), &Message{Topic: TopicScoringRequest}, handler)
	assert.Error(t, err)
}

func TestValidateConsumerConfig(t *testing.T) {
	valid := ConsumerConfig{Brokers: []string{"b:9092"}, GroupID: "g"}
	assert.NoError(t, ValidateConsumerConfig(valid))

	tests := []struct {
		name   string
		mutate func(*ConsumerConfig)
	}{
		{"no brokers", func(c *ConsumerConfig) { c.Brokers = nil }},
		{"no group", func(c *ConsumerConfig) { c.GroupID = "" }},
		{"bad offset reset", func(c *ConsumerConfig) { c.AutoOffsetReset = "middle" }},
		{"sasl without mechanism", func(c *ConsumerConfig) { c.SASLEnabled = true }},
		{"negative retries", func(c *ConsumerConfig) { c.RetryConfig.MaxRetries = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, ValidateConsumerConfig(cfg))
		})
	}
}

func TestProcessMessageRecordsMetrics(t *testing.T) {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace: "erisk",
		Subsystem: "test",
	}, logging.NewNopLogger())
	require.NoError(t, err)
	m := prometheus.NewAppMetrics(collector)

	w := &fakeWriter{}
	dl, err := NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}}, logging.NewNopLogger())
	require.NoError(t, err)
	dl.writer = w

	c := newTestConsumer(t, &fakeReader{}, RetryConfig{
		MaxRetries:      1,
		RetryBackoff:    time.Millisecond,
		DeadLetterTopic: TopicDeadLetter,
	})
	c.deadLetterProducer = dl
	WithConsumerMetrics(m)(c)

	ok := func(ctx context.Context, msg *Message) error { return nil }
	require.NoError(t, c.processMessage(context.Background(), &Message{Topic: TopicScoringRequest}, ok))

	bad := func(ctx context.Context, msg *Message) error { return errors.New("permanent") }
	require.NoError(t, c.processMessage(context.Background(),
		&Message{Topic: TopicScoringRequest, Value: []byte("payload")}, bad))

	scrape := httptest.NewRecorder()
	collector.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := scrape.Body.String()
	// Both deliveries settled, the second via the dead letter topic.
	assert.Contains(t, body, `erisk_test_queue_messages_consumed_total{status="success",topic="risk.scoring.request"} 2`)
	assert.Contains(t, body, `erisk_test_queue_dead_lettered_total{topic="risk.scoring.request"} 1`)
	assert.Contains(t, body, `erisk_test_queue_process_duration_seconds_count{topic="risk.scoring.request"} 2`)
}
