package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/school-portal-api/internal/middleware"
	"github.com/noah-isme/school-portal-api/internal/observability"
)

// Event types published by the gradebook.
const (
	EventGradeRecorded        = "grades.updated"
	EventGradeSettingsUpdated = "grade_settings.updated"
	EventAssignmentCreated    = "assignments.created"
	EventAssignmentDeleted    = "assignments.deleted"
	EventSubmissionCreated    = "submissions.created"
)

// Event is a domain notification emitted after a successful write.
type Event struct {
	Type         string    `json:"type"`
	ClassroomID  string    `json:"classroomId"`
	AssignmentID string    `json:"assignmentId,omitempty"`
	StudentID    string    `json:"studentId,omitempty"`
	ActorID      string    `json:"actorId,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// EventPublisher fans domain events out to interested consumers. Publishing
// is best effort and never fails the originating request.
type EventPublisher interface {
	Publish(ctx context.Context, event Event)
}

// msgPublisher is the part of *nats.Conn the publisher needs.
type msgPublisher interface {
	PublishMsg(msg *nats.Msg) error
}

type natsPublisher struct {
	conn    msgPublisher
	subject string
	logger  zerolog.Logger
}

// NewNATSPublisher publishes events on "<subject>.<event type>". A nil
// connection yields a publisher that drops events.
func NewNATSPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) EventPublisher {
	if conn == nil {
		return NopPublisher()
	}
	return newMsgPublisher(conn, subject, logger)
}

func newMsgPublisher(conn msgPublisher, subject string, logger zerolog.Logger) *natsPublisher {
	subject = strings.Trim(strings.TrimSpace(subject), ".")
	if subject == "" {
		subject = "portal"
	}
	return &natsPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsPublisher) message(ctx context.Context, event Event) (*nats.Msg, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	msg := nats.NewMsg(p.subject + "." + event.Type)
	msg.Data = payload
	if correlation := middleware.CorrelationIDFromContext(ctx); correlation != "" {
		msg.Header.Set(middleware.HeaderCorrelationID, correlation)
	}
	return msg, nil
}

func (p *natsPublisher) Publish(ctx context.Context, event Event) {
	correlation := middleware.CorrelationIDFromContext(ctx)
	msg, err := p.message(ctx, event)
	if err != nil {
		observability.EventsPublished().WithLabelValues(event.Type, "error").Inc()
		p.logger.Warn().Err(err).Str("event_type", event.Type).Str("correlation_id", correlation).Msg("failed to encode event")
		return
	}

	if err := p.conn.PublishMsg(msg); err != nil {
		observability.EventsPublished().WithLabelValues(event.Type, "error").Inc()
		p.logger.Warn().Err(err).Str("event_type", event.Type).Str("correlation_id", correlation).Msg("failed to publish event")
		return
	}
	observability.EventsPublished().WithLabelValues(event.Type, "ok").Inc()
}

type nopPublisher struct{}

// NopPublisher discards every event.
func NopPublisher() EventPublisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, Event) {}
