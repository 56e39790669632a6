package notification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/EntityRisk-Intelligence/internal/domain/risk"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/EntityRisk-Intelligence/pkg/errors"
)

type fakePublisher struct {
	messages []*kafka.ProducerMessage
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, msg *kafka.ProducerMessage) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakePublisher) byTopic(topic string) []*kafka.ProducerMessage {
	var out []*kafka.ProducerMessage
	for _, m := range f.messages {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}

func completedRecord(level risk.Level, score, confidence float64) *risk.Record {
	rec := risk.NewRecord("Acme Corp fraud", "Acme Corp", "", "", "serper_api")
	rec.RiskLevel = level
	rec.OverallRiskScore = score
	rec.ConfidenceLevel = confidence
	rec.Assessment = risk.Assessment{OverallRiskScore: score, RiskLevel: level}
	return &rec
}

func decodeEnvelope(t *testing.T, msg *kafka.ProducerMessage) *kafka.EventEnvelope {
	t.Helper()
	envelope, err := kafka.MessageToEventEnvelope(&kafka.Message{
		Topic:   msg.Topic,
		Value:   msg.Value,
		Headers: msg.Headers,
	})
	require.NoError(t, err)
	return envelope
}

func TestRouteAssessment(t *testing.T) {
	pub := &fakePublisher{}
	router := NewRouter(pub, logging.NewNopLogger())

	rec := completedRecord(risk.LevelHigh, 0.85, 0.9)
	ok := router.RouteAssessment(context.Background(), rec)
	require.True(t, ok)
	require.Len(t, pub.messages, 1)

	msg := pub.messages[0]
	assert.Equal(t, kafka.TopicNotification, msg.Topic)
	assert.Equal(t, "HIGH", msg.Headers[kafka.HeaderPriority])
	assert.Equal(t, "HIGH", msg.Headers[kafka.HeaderRiskLevel])
	assert.Equal(t, "Acme Corp", msg.Headers[kafka.HeaderEntityName])

	envelope := decodeEnvelope(t, msg)
	assert.Equal(t, kafka.EventTypeAssessmentCompleted, envelope.EventType)

	var payload kafka.AssessmentCompletedPayload
	require.NoError(t, envelope.DecodePayload(&payload))
	assert.Equal(t, rec.RecordID, payload.RecordID)
	assert.True(t, payload.RequiresReview)
	assert.InDelta(t, 0.85, payload.OverallRiskScore, 0.001)
}

func TestRouteAssessmentPriorityMapping(t *testing.T) {
	tests := []struct {
		level    risk.Level
		priority string
	}{
		{risk.LevelCritical, "HIGH"},
		{risk.LevelHigh, "HIGH"},
		{risk.LevelMedium, "NORMAL"},
		{risk.LevelLow, "LOW"},
		{risk.Level("WEIRD"), "NORMAL"},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			pub := &fakePublisher{}
			router := NewRouter(pub, logging.NewNopLogger())

			require.True(t, router.RouteAssessment(context.Background(), completedRecord(tt.level, 0.5, 0.9)))
			require.Len(t, pub.messages, 1)
			assert.Equal(t, tt.priority, pub.messages[0].Headers[kafka.HeaderPriority])
		})
	}
}

func TestRouteAssessmentPublishFailure(t *testing.T) {
	pub := &fakePublisher{err: pkgerrors.New(pkgerrors.ErrCodeQueuePublishFailed, "broker down")}
	router := NewRouter(pub, logging.NewNopLogger())

	ok := router.RouteAssessment(context.Background(), completedRecord(risk.LevelLow, 0.1, 0.9))
	assert.False(t, ok)
}

func TestRouteAssessmentNilRecord(t *testing.T) {
	router := NewRouter(&fakePublisher{}, logging.NewNopLogger())
	assert.False(t, router.RouteAssessment(context.Background(), nil))
}

func notificationMessage(t *testing.T, payload kafka.AssessmentCompletedPayload) *kafka.Message {
	t.Helper()
	envelope, err := kafka.NewEventEnvelope(kafka.EventTypeAssessmentCompleted, "test", payload)
	require.NoError(t, err)
	msg, err := envelope.ToMessage(kafka.TopicNotification, nil)
	require.NoError(t, err)
	return &kafka.Message{Topic: msg.Topic, Value: msg.Value, Headers: msg.Headers}
}

func TestProcessorHighRiskTriggersAlertAndReview(t *testing.T) {
	pub := &fakePublisher{}
	processor := NewProcessor(pub, logging.NewNopLogger())

	payload := kafka.AssessmentCompletedPayload{
		RecordID:         "rec-1",
		EntityName:       "Acme Corp",
		RiskLevel:        "CRITICAL",
		OverallRiskScore: 0.95,
		ConfidenceLevel:  0.9,
		RequiresReview:   true,
		CompletedAt:      time.Now().UTC(),
	}
	require.NoError(t, processor.HandleMessage(context.Background(), notificationMessage(t, payload)))

	alerts := pub.byTopic(kafka.TopicHighRiskAlert)
	require.Len(t, alerts, 1)
	var alert kafka.HighRiskAlertPayload
	require.NoError(t, decodeEnvelope(t, alerts[0]).DecodePayload(&alert))
	assert.Equal(t, kafka.EventTypeHighRiskAlert, alert.AlertType)
	assert.Equal(t, ActionImmediateReview, alert.ActionRequired)
	assert.Equal(t, "rec-1", alert.RecordID)

	reviews := pub.byTopic(kafka.TopicManualReview)
	require.Len(t, reviews, 1)
	var review kafka.ManualReviewPayload
	require.NoError(t, decodeEnvelope(t, reviews[0]).DecodePayload(&review))
	assert.Equal(t, kafka.EventTypeManualReview, review.ReviewType)
	assert.Equal(t, ReviewReason, review.Reason)
}

func TestProcessorLowRiskNoActions(t *testing.T) {
	pub := &fakePublisher{}
	processor := NewProcessor(pub, logging.NewNopLogger())

	payload := kafka.AssessmentCompletedPayload{
		RecordID:       "rec-2",
		EntityName:     "Quiet Co",
		RiskLevel:      "LOW",
		RequiresReview: false,
	}
	require.NoError(t, processor.HandleMessage(context.Background(), notificationMessage(t, payload)))
	assert.Empty(t, pub.messages)
}

func TestProcessorReviewOnlyWithoutAlert(t *testing.T) {
	pub := &fakePublisher{}
	processor := NewProcessor(pub, logging.NewNopLogger())

	// Medium level but low confidence: review yes, alert no.
	payload := kafka.AssessmentCompletedPayload{
		RecordID:        "rec-3",
		EntityName:      "Murky Ltd",
		RiskLevel:       "MEDIUM",
		ConfidenceLevel: 0.4,
		RequiresReview:  true,
	}
	require.NoError(t, processor.HandleMessage(context.Background(), notificationMessage(t, payload)))

	assert.Empty(t, pub.byTopic(kafka.TopicHighRiskAlert))
	assert.Len(t, pub.byTopic(kafka.TopicManualReview), 1)
}

func TestProcessorUndecodableMessage(t *testing.T) {
	processor := NewProcessor(&fakePublisher{}, logging.NewNopLogger())

	err := processor.HandleMessage(context.Background(), &kafka.Message{
		Topic: kafka.TopicNotification,
		Value: []byte("not json"),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeQueueConsumeFailed))
}

func TestProcessorPublishFailureIsAbsorbed(t *testing.T) {
	pub := &fakePublisher{err: pkgerrors.New(pkgerrors.ErrCodeQueuePublishFailed, "broker down")}
	processor := NewProcessor(pub, logging.NewNopLogger())

	payload := kafka.AssessmentCompletedPayload{
		RecordID:       "rec-4",
		EntityName:     "Acme Corp",
		RiskLevel:      "HIGH",
		RequiresReview: true,
	}
	assert.NoError(t, processor.HandleMessage(context.Background(), notificationMessage(t, payload)))
}
