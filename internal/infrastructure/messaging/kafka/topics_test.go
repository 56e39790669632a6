package kafka

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/logging"
)

func TestEventEnvelopeRoundTrip(t *testing.T) {
	payload := AssessmentCompletedPayload{
		RecordID:         "rec-1",
		EntityName:       "Acme Corp",
		Query:            "Acme Corp fraud",
		OverallRiskScore: 0.82,
		RiskLevel:        "HIGH",
		ConfidenceLevel:  0.9,
		RequiresReview:   true,
	}

	env, err := NewEventEnvelope(EventTypeAssessmentCompleted, "worker", payload)
	require.NoError(t, err)
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, "v1", env.SchemaVersion)

	msg, err := env.ToMessage(TopicNotification, map[string]string{
		HeaderPriority:   "HIGH",
		HeaderRiskLevel:  "HIGH",
		HeaderEntityName: "Acme Corp",
	})
	require.NoError(t, err)
	assert.Equal(t, TopicNotification, msg.Topic)
	assert.Equal(t, EventTypeAssessmentCompleted, msg.Headers["event_type"])
	assert.Equal(t, "HIGH", msg.Headers[HeaderPriority])

	decoded, err := MessageToEventEnvelope(&Message{Value: msg.Value})
	require.NoError(t, err)

	var got AssessmentCompletedPayload
	require.NoError(t, decoded.DecodePayload(&got))
	assert.Equal(t, payload.RecordID, got.RecordID)
	assert.Equal(t, payload.OverallRiskScore, got.OverallRiskScore)
	assert.True(t, got.RequiresReview)
}

func TestToMessage_EntityNameHeaderTruncated(t *testing.T) {
	env, err := NewEventEnvelope(EventTypeHighRiskAlert, "worker", HighRiskAlertPayload{})
	require.NoError(t, err)

	long := strings.Repeat("x", 150)
	msg, err := env.ToMessage(TopicHighRiskAlert, map[string]string{HeaderEntityName: long})
	require.NoError(t, err)
	assert.Len(t, msg.Headers[HeaderEntityName], MaxEntityNameHeaderLen)
}

func TestDecodePayload_Empty(t *testing.T) {
	env := &EventEnvelope{}
	var out ScoringRequestPayload
	assert.Error(t, env.DecodePayload(&out))
}

func TestMessageToEventEnvelope_Invalid(t *testing.T) {
	_, err := MessageToEventEnvelope(&Message{})
	assert.Error(t, err)

	_, err = MessageToEventEnvelope(&Message{Value: []byte("{broken")})
	assert.Error(t, err)
}

type fakeConn struct {
	created    []kafka.TopicConfig
	deleted    []string
	partitions map[string][]kafka.Partition
	createErr  error
	closed     bool
}

func (c *fakeConn) CreateTopics(topics ...kafka.TopicConfig) error {
	if c.createErr != nil {
		return c.createErr
	}
	c.created = append(c.created, topics...)
	return nil
}

func (c *fakeConn) DeleteTopics(topics ...string) error {
	c.deleted = append(c.deleted, topics...)
	return nil
}

func (c *fakeConn) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	if len(topics) == 0 {
		var all []kafka.Partition
		for _, ps := range c.partitions {
			all = append(all, ps...)
		}
		return all, nil
	}
	var out []kafka.Partition
	for _, topic := range topics {
		out = append(out, c.partitions[topic]...)
	}
	return out, nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func newTestTopicManager(conn ConnInterface) *TopicManager {
	return &TopicManager{conn: conn, logger: logging.NewNopLogger()}
}

func TestTopicManagerCreateTopic(t *testing.T) {
	conn := &fakeConn{partitions: map[string][]kafka.Partition{}}
	m := newTestTopicManager(conn)

	err := m.CreateTopic(context.Background(), TopicConfig{
		Name:              TopicScoringRequest,
		NumPartitions:     6,
		ReplicationFactor: 3,
		RetentionMs:       1000,
	})
	require.NoError(t, err)
	require.Len(t, conn.created, 1)
	assert.Equal(t, TopicScoringRequest, conn.created[0].Topic)
}

func TestTopicManagerCreateTopic_AlreadyExists(t *testing.T) {
	conn := &fakeConn{
		createErr: errors.New("topic already exists"),
		partitions: map[string][]kafka.Partition{
			TopicNotification: {{Topic: TopicNotification, ID: 0}},
		},
	}
	m := newTestTopicManager(conn)

	err := m.CreateTopic(context.Background(), TopicConfig{
		Name:              TopicNotification,
		NumPartitions:     6,
		ReplicationFactor: 3,
	})
	assert.NoError(t, err)
}

func TestTopicManagerCreateTopic_Validation(t *testing.T) {
	m := newTestTopicManager(&fakeConn{})
	ctx := context.Background()

	assert.Error(t, m.CreateTopic(ctx, TopicConfig{NumPartitions: 1, ReplicationFactor: 1}))
	assert.Error(t, m.CreateTopic(ctx, TopicConfig{Name: "t", ReplicationFactor: 1}))
	assert.Error(t, m.CreateTopic(ctx, TopicConfig{Name: "t", NumPartitions: 1}))
}

func TestTopicManagerListTopics(t *testing.T) {
	conn := &fakeConn{partitions: map[string][]kafka.Partition{
		TopicScoringRequest: {{Topic: TopicScoringRequest, ID: 0}, {Topic: TopicScoringRequest, ID: 1}},
		TopicNotification:   {{Topic: TopicNotification, ID: 0}},
	}}
	m := newTestTopicManager(conn)

	topics, err := m.ListTopics(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{TopicScoringRequest, TopicNotification}, topics)
}

func TestDefaultTopics(t *testing.T) {
	topics := DefaultTopics()
	names := make([]string, len(topics))
	for i, tc := range topics {
		names[i] = tc.Name
		assert.Positive(t, tc.NumPartitions)
		assert.Positive(t, tc.ReplicationFactor)
	}
	assert.ElementsMatch(t, []string{
		TopicScoringRequest,
		TopicNotification,
		TopicHighRiskAlert,
		TopicManualReview,
		TopicDeadLetter,
	}, names)
}

func TestEnsureDefaultTopicsCreatesAll(t *testing.T) {
	conn := &fakeConn{partitions: map[string][]kafka.Partition{}}
	m := newTestTopicManager(conn)

	require.NoError(t, m.EnsureDefaultTopics(context.Background()))

	names := make([]string, len(conn.created))
	for i, tc := range conn.created {
		names[i] = tc.Topic
	}
	assert.ElementsMatch(t, []string{
		TopicScoringRequest,
		TopicNotification,
		TopicHighRiskAlert,
		TopicManualReview,
		TopicDeadLetter,
	}, names)
}
