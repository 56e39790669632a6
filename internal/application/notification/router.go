// Package notification decides what happens after a risk assessment is
// stored: the router (producer side) emits exactly one notification per
// record, and the processor (worker side) turns notifications into
// high-risk alerts and manual-review requests.
package notification

import (
	"context"

	"github.com/turtacn/EntityRisk-Intelligence/internal/domain/risk"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/logging"
)

const sourceService = "entity-risk-intelligence"

// Publisher is the queue port the router and processor emit through.
type Publisher interface {
	Publish(ctx context.Context, msg *kafka.ProducerMessage) error
}

// Router emits one assessment-completed notification per stored risk
// record. Emission is an outcome, never a failure: persistence has
// already happened and is not rolled back.
type Router struct {
	publisher Publisher
	logger    logging.Logger
}

func NewRouter(publisher Publisher, log logging.Logger) *Router {
	return &Router{publisher: publisher, logger: log}
}

// RouteAssessment publishes the notification for a stored record and
// reports whether it was accepted by the queue.
func (r *Router) RouteAssessment(ctx context.Context, rec *risk.Record) bool {
	if rec == nil {
		return false
	}

	payload := kafka.AssessmentCompletedPayload{
		RecordID:         rec.RecordID,
		EntityName:       rec.EntityName,
		Query:            rec.Query,
		OverallRiskScore: rec.OverallRiskScore,
		RiskLevel:        string(rec.RiskLevel),
		ConfidenceLevel:  rec.ConfidenceLevel,
		RequiresReview:   rec.RequiresReview(),
		CompletedAt:      rec.CreatedAt,
	}

	envelope, err := kafka.NewEventEnvelope(kafka.EventTypeAssessmentCompleted, sourceService, payload)
	if err != nil {
		r.logger.Error("failed to build notification envelope",
			logging.String("record_id", rec.RecordID),
			logging.Err(err),
		)
		return false
	}

	msg, err := envelope.ToMessage(kafka.TopicNotification, map[string]string{
		kafka.HeaderPriority:   string(risk.PriorityFor(rec.RiskLevel)),
		kafka.HeaderRiskLevel:  string(rec.RiskLevel),
		kafka.HeaderEntityName: rec.EntityName,
	})
	if err != nil {
		r.logger.Error("failed to build notification message",
			logging.String("record_id", rec.RecordID),
			logging.Err(err),
		)
		return false
	}

	if err := r.publisher.Publish(ctx, msg); err != nil {
		r.logger.Error("failed to publish risk notification",
			logging.String("record_id", rec.RecordID),
			logging.String("entity", rec.EntityName),
			logging.Err(err),
		)
		return false
	}

	r.logger.Info("risk notification sent",
		logging.String("record_id", rec.RecordID),
		logging.String("entity", rec.EntityName),
		logging.String("risk_level", string(rec.RiskLevel)),
	)
	return true
}
