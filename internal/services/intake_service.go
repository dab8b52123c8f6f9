// Package services – IntakeService
//
// This file implements IntakeService, the component that owns the lifecycle
// of a form submission. In strict mode it validates and normalizes the
// name/email pair before anything touches the store; in lax mode values are
// stored verbatim. Store failures are wrapped in *StorageError so handlers can
// answer with a generic 500 while logging the cause.
//
// Observability: all public methods are OpenTelemetry-instrumented and Submit
// feeds the form_submissions_total counter.
package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-form-collector/internal/domain"
	"github.com/tbourn/go-form-collector/internal/repo"
)

// IntakeService accepts and lists submissions.
type IntakeService struct {
	Store repo.Store

	// Strict enables validation and normalization.
	Strict bool

	// Now stamps accepted submissions; defaults to time.Now.
	Now func() time.Time
}

// NewIntakeService wires a service to st.
func NewIntakeService(st repo.Store, strict bool) *IntakeService {
	return &IntakeService{Store: st, Strict: strict, Now: time.Now}
}

func (s *IntakeService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Submit validates (strict mode), timestamps and appends one submission.
//
// Errors:
//   - *ValidationError when strict checks fail; nothing is stored.
//   - *StorageError when the store rejects the append.
func (s *IntakeService) Submit(ctx context.Context, name, email string) (*domain.Submission, error) {
	tr := otel.Tracer("services/IntakeService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(attribute.Bool("intake.strict", s.Strict)),
	)
	defer span.End()

	if s.Strict {
		var err error
		name, email, err = validateStrict(name, email)
		if err != nil {
			submissionsTotal.WithLabelValues(OutcomeRejected).Inc()
			span.SetStatus(codes.Error, "validation failed")
			return nil, err
		}
	}

	sub := domain.NewSubmission(name, email, s.now())
	if err := s.Store.Append(ctx, sub); err != nil {
		submissionsTotal.WithLabelValues(OutcomeFailed).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "append failed")
		return nil, &StorageError{Op: "append", Err: err}
	}

	submissionsTotal.WithLabelValues(OutcomeAccepted).Inc()
	span.SetAttributes(attribute.String("submission.id", sub.ID))
	return sub, nil
}

// List returns every stored submission in the store's order.
func (s *IntakeService) List(ctx context.Context) ([]domain.Submission, error) {
	tr := otel.Tracer("services/IntakeService")
	ctx, span := tr.Start(ctx, "List")
	defer span.End()

	items, err := s.Store.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return nil, &StorageError{Op: "list", Err: err}
	}
	span.SetAttributes(attribute.Int("submissions.count", len(items)))
	return items, nil
}

// Stats returns the submission count and newest time for conditional GETs.
func (s *IntakeService) Stats(ctx context.Context) (int64, *time.Time, error) {
	tr := otel.Tracer("services/IntakeService")
	ctx, span := tr.Start(ctx, "Stats")
	defer span.End()

	n, latest, err := s.Store.Stats(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stats failed")
		return 0, nil, &StorageError{Op: "stats", Err: err}
	}
	return n, latest, nil
}
