package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EntityRisk-Intelligence/pkg/errors"
)

// Topic constants for the screening pipeline.
const (
	// TopicScoringRequest carries completed searches that still need
	// risk analysis; the worker consumes it.
	TopicScoringRequest = "risk.scoring.request"
	// TopicNotification receives a completion event for every stored
	// assessment.
	TopicNotification = "risk.notification"
	// TopicHighRiskAlert receives alerts for HIGH and CRITICAL
	// assessments.
	TopicHighRiskAlert = "risk.alert.high"
	// TopicManualReview queues assessments flagged for human review.
	TopicManualReview = "risk.review.manual"
	// TopicDeadLetter collects messages that exhausted their retries.
	TopicDeadLetter = "dead_letter.screening"
)

// Message attribute header keys attached to notification messages.
const (
	HeaderPriority   = "Priority"
	HeaderRiskLevel  = "RiskLevel"
	HeaderEntityName = "EntityName"
)

// MaxEntityNameHeaderLen bounds the EntityName header value.
const MaxEntityNameHeaderLen = 100

// Event type discriminators carried in envelopes.
const (
	EventTypeScoringRequested    = "SCORING_REQUESTED"
	EventTypeAssessmentCompleted = "RISK_ASSESSMENT_COMPLETED"
	EventTypeHighRiskAlert       = "HIGH_RISK_ENTITY"
	EventTypeManualReview        = "RISK_ASSESSMENT_REVIEW"
)

// EventEnvelope standardizes pipeline event messages.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	TraceID       string            `json:"trace_id,omitempty"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// ScoringRequestPayload asks the worker to analyze a stored search
// record, addressed by its composite key.
type ScoringRequestPayload struct {
	Query       string    `json:"query"`
	Timestamp   time.Time `json:"timestamp"`
	QueryHash   string    `json:"query_hash"`
	EntityName  string    `json:"entity_name,omitempty"`
	ResultCount int       `json:"result_count"`
}

// AssessmentCompletedPayload announces a stored risk assessment.
type AssessmentCompletedPayload struct {
	RecordID         string    `json:"record_id"`
	EntityName       string    `json:"entity_name"`
	Query            string    `json:"query"`
	OverallRiskScore float64   `json:"overall_risk_score"`
	RiskLevel        string    `json:"risk_level"`
	ConfidenceLevel  float64   `json:"confidence_level"`
	RequiresReview   bool      `json:"requires_review"`
	CompletedAt      time.Time `json:"completed_at"`
}

// HighRiskAlertPayload flags an entity for immediate attention.
type HighRiskAlertPayload struct {
	AlertType        string  `json:"alert_type"`
	RecordID         string  `json:"record_id"`
	EntityName       string  `json:"entity_name"`
	RiskLevel        string  `json:"risk_level"`
	OverallRiskScore float64 `json:"overall_risk_score"`
	ActionRequired   string  `json:"action_required"`
}

// ManualReviewPayload enqueues an assessment for human review.
type ManualReviewPayload struct {
	ReviewType      string  `json:"review_type"`
	RecordID        string  `json:"record_id"`
	EntityName      string  `json:"entity_name"`
	RiskLevel       string  `json:"risk_level"`
	ConfidenceLevel float64 `json:"confidence_level"`
	Reason          string  `json:"reason"`
}

func NewEventEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: "v1",
		Payload:       data,
	}, nil
}

func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return errors.New(errors.ErrCodeValidation, "empty payload")
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode payload")
	}
	return nil
}

// ToMessage wraps the envelope in a producer message. Extra headers
// are merged on top of the envelope's own routing headers; the
// EntityName header is truncated to its bound.
func (e *EventEnvelope) ToMessage(topic string, headers map[string]string) (*ProducerMessage, error) {
	val, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal envelope")
	}
	merged := map[string]string{
		"event_type":     e.EventType,
		"source_service": e.Source,
		"schema_version": e.SchemaVersion,
	}
	if e.TraceID != "" {
		merged["trace_id"] = e.TraceID
	}
	for k, v := range headers {
		if k == HeaderEntityName && len(v) > MaxEntityNameHeaderLen {
			v = v[:MaxEntityNameHeaderLen]
		}
		merged[k] = v
	}
	return &ProducerMessage{
		Topic:     topic,
		Value:     val,
		Headers:   merged,
		Timestamp: e.Timestamp,
	}, nil
}

func MessageToEventEnvelope(msg *Message) (*EventEnvelope, error) {
	if len(msg.Value) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal envelope")
	}
	return &env, nil
}

// ConnInterface abstracts kafka.Conn for testing.
type ConnInterface interface {
	CreateTopics(topics ...kafka.TopicConfig) error
	DeleteTopics(topics ...string) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	Close() error
}

// TopicManager provisions and inspects pipeline topics.
type TopicManager struct {
	conn   ConnInterface
	logger logging.Logger
}

func NewTopicManager(brokers []string, logger logging.Logger) (*TopicManager, error) {
	if len(brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "brokers required")
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeQueuePublishFailed, "failed to dial kafka")
	}
	return &TopicManager{conn: conn, logger: logger}, nil
}

func (m *TopicManager) CreateTopic(ctx context.Context, cfg TopicConfig) error {
	if cfg.Name == "" {
		return errors.New(errors.ErrCodeValidation, "topic name required")
	}
	if cfg.NumPartitions <= 0 {
		return errors.New(errors.ErrCodeValidation, "partitions must be > 0")
	}
	if cfg.ReplicationFactor <= 0 {
		return errors.New(errors.ErrCodeValidation, "replication factor must be > 0")
	}

	kCfg := kafka.TopicConfig{
		Topic:             cfg.Name,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
		ConfigEntries:     make([]kafka.ConfigEntry, 0),
	}
	if cfg.RetentionMs > 0 {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "retention.ms", ConfigValue: fmt.Sprintf("%d", cfg.RetentionMs)})
	}
	if cfg.CleanupPolicy != "" {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "cleanup.policy", ConfigValue: cfg.CleanupPolicy})
	}
	if cfg.MaxMessageBytes > 0 {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "max.message.bytes", ConfigValue: fmt.Sprintf("%d", cfg.MaxMessageBytes)})
	}
	for k, v := range cfg.Configs {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: k, ConfigValue: v})
	}

	if err := m.conn.CreateTopics(kCfg); err != nil {
		exists, _ := m.TopicExists(ctx, cfg.Name)
		if exists {
			return nil
		}
		return errors.Wrap(err, errors.ErrCodeQueuePublishFailed, "failed to create topic")
	}
	m.logger.Info("topic created", logging.String("topic", cfg.Name))
	return nil
}

func (m *TopicManager) DeleteTopic(ctx context.Context, name string) error {
	if err := m.conn.DeleteTopics(name); err != nil {
		return errors.Wrap(err, errors.ErrCodeQueuePublishFailed, "failed to delete topic")
	}
	m.logger.Warn("topic deleted", logging.String("topic", name))
	return nil
}

func (m *TopicManager) TopicExists(ctx context.Context, name string) (bool, error) {
	partitions, err := m.conn.ReadPartitions(name)
	if err != nil {
		return false, nil
	}
	return len(partitions) > 0, nil
}

func (m *TopicManager) ListTopics(ctx context.Context) ([]string, error) {
	partitions, err := m.conn.ReadPartitions()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeQueueConsumeFailed, "failed to read partitions")
	}
	seen := make(map[string]bool)
	var topics []string
	for _, p := range partitions {
		if !seen[p.Topic] {
			seen[p.Topic] = true
			topics = append(topics, p.Topic)
		}
	}
	return topics, nil
}

func (m *TopicManager) EnsureTopics(ctx context.Context, topics []TopicConfig) error {
	for _, topic := range topics {
		if err := m.CreateTopic(ctx, topic); err != nil {
			return err
		}
	}
	return nil
}

func (m *TopicManager) EnsureDefaultTopics(ctx context.Context) error {
	return m.EnsureTopics(ctx, DefaultTopics())
}

func (m *TopicManager) Close() error {
	return m.conn.Close()
}

func DefaultTopics() []TopicConfig {
	const day = int64(24 * 3600 * 1000)
	return []TopicConfig{
		{Name: TopicScoringRequest, NumPartitions: 6, ReplicationFactor: 3, RetentionMs: 7 * day},
		{Name: TopicNotification, NumPartitions: 6, ReplicationFactor: 3, RetentionMs: 7 * day},
		{Name: TopicHighRiskAlert, NumPartitions: 3, ReplicationFactor: 3, RetentionMs: 30 * day},
		{Name: TopicManualReview, NumPartitions: 3, ReplicationFactor: 3, RetentionMs: 90 * day},
		{Name: TopicDeadLetter, NumPartitions: 3, ReplicationFactor: 3, RetentionMs: 30 * day},
	}
}
