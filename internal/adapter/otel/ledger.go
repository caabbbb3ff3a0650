package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/leadcascade/internal/domain"
)

const tracerName = "github.com/neomorfeo/leadcascade/internal/adapter/otel"

// TracingLedger wraps a domain.AssignmentLedger with OpenTelemetry tracing.
type TracingLedger struct {
	next   domain.AssignmentLedger
	tracer trace.Tracer
}

var _ domain.AssignmentLedger = (*TracingLedger)(nil)

// NewTracingLedger creates a tracing decorator around the given ledger.
func NewTracingLedger(next domain.AssignmentLedger) *TracingLedger {
	return &TracingLedger{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

// end records err on span, if any, and ends it.
func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func assignmentAttrs(a domain.Assignment) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("assignment.id", a.ID),
		attribute.String("lead.ref", a.LeadRef),
		attribute.Int64("participant.id", a.ParticipantID),
		attribute.Int("assignment.sequence", a.Sequence),
	}
}

func (l *TracingLedger) Create(ctx context.Context, a domain.Assignment) (err error) {
	ctx, span := l.tracer.Start(ctx, "AssignmentLedger.Create", trace.WithAttributes(assignmentAttrs(a)...))
	defer func() { end(span, err) }()

	return l.next.Create(ctx, a)
}

func (l *TracingLedger) GetActive(ctx context.Context, leadRef string) (a domain.Assignment, err error) {
	ctx, span := l.tracer.Start(ctx, "AssignmentLedger.GetActive",
		trace.WithAttributes(attribute.String("lead.ref", leadRef)),
	)
	defer func() { end(span, err) }()

	return l.next.GetActive(ctx, leadRef)
}

func (l *TracingLedger) ListExpired(ctx context.Context, now time.Time) (out []domain.Assignment, err error) {
	ctx, span := l.tracer.Start(ctx, "AssignmentLedger.ListExpired",
		trace.WithAttributes(attribute.String("sweep.now", now.UTC().Format(time.RFC3339Nano))),
	)
	defer func() { end(span, err) }()

	out, err = l.next.ListExpired(ctx, now)
	span.SetAttributes(attribute.Int("result.count", len(out)))
	return out, err
}

func (l *TracingLedger) ListActiveByParticipant(ctx context.Context, participantID int64) (out []domain.Assignment, err error) {
	ctx, span := l.tracer.Start(ctx, "AssignmentLedger.ListActiveByParticipant",
		trace.WithAttributes(attribute.Int64("participant.id", participantID)),
	)
	defer func() { end(span, err) }()

	out, err = l.next.ListActiveByParticipant(ctx, participantID)
	span.SetAttributes(attribute.Int("result.count", len(out)))
	return out, err
}

func (l *TracingLedger) ListByLead(ctx context.Context, leadRef string) (out []domain.Assignment, err error) {
	ctx, span := l.tracer.Start(ctx, "AssignmentLedger.ListByLead",
		trace.WithAttributes(attribute.String("lead.ref", leadRef)),
	)
	defer func() { end(span, err) }()

	out, err = l.next.ListByLead(ctx, leadRef)
	span.SetAttributes(attribute.Int("result.count", len(out)))
	return out, err
}

func (l *TracingLedger) Close(ctx context.Context, c domain.Closure) (err error) {
	ctx, span := l.tracer.Start(ctx, "AssignmentLedger.Close",
		trace.WithAttributes(
			attribute.String("assignment.id", c.AssignmentID),
			attribute.String("assignment.status", string(c.Status)),
			attribute.String("assignment.close_reason", string(c.Reason)),
		),
	)
	defer func() { end(span, err) }()

	return l.next.Close(ctx, c)
}

func (l *TracingLedger) Escalate(ctx context.Context, c domain.Closure, next domain.Assignment) (err error) {
	ctx, span := l.tracer.Start(ctx, "AssignmentLedger.Escalate",
		trace.WithAttributes(append(assignmentAttrs(next),
			attribute.String("assignment.closed_id", c.AssignmentID),
		)...),
	)
	defer func() { end(span, err) }()

	return l.next.Escalate(ctx, c, next)
}
