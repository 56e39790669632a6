package notification

import (
	"context"

	"github.com/turtacn/EntityRisk-Intelligence/internal/domain/risk"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EntityRisk-Intelligence/pkg/errors"
)

// ActionRequired value carried on high-risk alerts.
const ActionImmediateReview = "IMMEDIATE_REVIEW"

// ReviewReason carried on manual-review requests.
const ReviewReason = "Low confidence or high risk"

// Processor consumes notification messages on the worker side. A HIGH or
// CRITICAL assessment triggers an alert event; a requires-review
// assessment triggers a manual-review request. The two actions are
// independent: one failing does not suppress the other.
type Processor struct {
	publisher Publisher
	logger    logging.Logger
}

func NewProcessor(publisher Publisher, log logging.Logger) *Processor {
	return &Processor{publisher: publisher, logger: log}
}

// HandleMessage is the consumer handler for the notification topic. A
// decode failure is a hard error so the message retries and eventually
// dead-letters; downstream publish failures are logged and absorbed.
func (p *Processor) HandleMessage(ctx context.Context, msg *kafka.Message) error {
	envelope, err := kafka.MessageToEventEnvelope(msg)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeQueueConsumeFailed, "undecodable notification message")
	}

	var payload kafka.AssessmentCompletedPayload
	if err := envelope.DecodePayload(&payload); err != nil {
		return errors.Wrap(err, errors.ErrCodeQueueConsumeFailed, "undecodable notification payload")
	}

	level := risk.Level(payload.RiskLevel)
	actions := make([]string, 0, 2)

	if risk.IsHighRisk(level) {
		if p.publishHighRiskAlert(ctx, payload) {
			actions = append(actions, "HIGH_RISK_ALERT")
		}
	}
	if payload.RequiresReview {
		if p.publishManualReview(ctx, payload) {
			actions = append(actions, "MANUAL_REVIEW_REQUIRED")
		}
	}

	p.logger.Info("risk notification processed",
		logging.String("entity", payload.EntityName),
		logging.String("risk_level", payload.RiskLevel),
		logging.Any("actions", actions),
	)
	return nil
}

func (p *Processor) publishHighRiskAlert(ctx context.Context, payload kafka.AssessmentCompletedPayload) bool {
	alert := kafka.HighRiskAlertPayload{
		AlertType:        kafka.EventTypeHighRiskAlert,
		RecordID:         payload.RecordID,
		EntityName:       payload.EntityName,
		RiskLevel:        payload.RiskLevel,
		OverallRiskScore: payload.OverallRiskScore,
		ActionRequired:   ActionImmediateReview,
	}
	return p.publishEvent(ctx, kafka.EventTypeHighRiskAlert, kafka.TopicHighRiskAlert, payload.EntityName, alert)
}

func (p *Processor) publishManualReview(ctx context.Context, payload kafka.AssessmentCompletedPayload) bool {
	review := kafka.ManualReviewPayload{
		ReviewType:      kafka.EventTypeManualReview,
		RecordID:        payload.RecordID,
		EntityName:      payload.EntityName,
		RiskLevel:       payload.RiskLevel,
		ConfidenceLevel: payload.ConfidenceLevel,
		Reason:          ReviewReason,
	}
	return p.publishEvent(ctx, kafka.EventTypeManualReview, kafka.TopicManualReview, payload.EntityName, review)
}

func (p *Processor) publishEvent(ctx context.Context, eventType, topic, entityName string, payload interface{}) bool {
	envelope, err := kafka.NewEventEnvelope(eventType, sourceService, payload)
	if err != nil {
		p.logger.Error("failed to build event envelope",
			logging.String("event_type", eventType),
			logging.Err(err),
		)
		return false
	}
	msg, err := envelope.ToMessage(topic, map[string]string{
		kafka.HeaderEntityName: entityName,
	})
	if err != nil {
		p.logger.Error("failed to build event message",
			logging.String("event_type", eventType),
			logging.Err(err),
		)
		return false
	}
	if err := p.publisher.Publish(ctx, msg); err != nil {
		p.logger.Error("failed to publish event",
			logging.String("event_type", eventType),
			logging.String("topic", topic),
			logging.Err(err),
		)
		return false
	}
	return true
}
