package scheduling

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Detector decides whether a candidate assignment would double-book a
// machine or operator. It is read-only; committing a schedule is the
// Service's job.
type Detector struct {
	repo CommitmentRepository
}

func NewDetector(repo CommitmentRepository) *Detector {
	return &Detector{repo: repo}
}

// CheckConflicts checks the candidate against each supplied resource. The
// machine is checked before the operator and the first overlapping slot wins,
// so a candidate conflicting on both only ever reports the machine conflict:
// machines are the scarcer resource in this domain and block first.
func (d *Detector) CheckConflicts(ctx context.Context, c Candidate) (ConflictResult, error) {
	fields := []zap.Field{
		zap.Time("scheduled_at", c.ScheduledAt),
		zap.Int("duration_min", c.DurationMin),
	}
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		fields = append(fields, zap.String("trace_id", sc.TraceID().String()))
	}
	zapLog := zap.L().With(fields...)

	candidate := c.Interval()

	checks := []struct {
		kind ResourceKind
		id   *string
	}{
		{KindMachine, c.MachineID},
		{KindOperator, c.OperatorID},
	}

	for _, check := range checks {
		if check.id == nil || *check.id == "" {
			continue
		}

		slots, err := d.repo.FindCandidateSlots(ctx, check.kind, *check.id, candidate.End, c.ExcludeTaskID, c.ExcludeSlotID)
		if err != nil {
			zapLog.Error("failed to load candidate slots",
				zap.String("resource_kind", check.kind.String()),
				zap.String("resource_id", *check.id),
				zap.Error(err),
			)
			return ConflictResult{}, err
		}

		for _, slot := range slots {
			existing := Interval{Start: slot.StartAt, End: slot.EffectiveEnd()}
			if !candidate.Overlaps(existing) {
				continue
			}

			result := conflictFrom(check.kind, *check.id, slot)
			zapLog.Info("scheduling conflict detected",
				zap.String("resource_kind", check.kind.String()),
				zap.String("resource_id", *check.id),
				zap.String("conflicting_task_id", result.Conflict.TaskID),
				zap.String("conflicting_slot_id", slot.ID),
			)
			return result, nil
		}
	}

	return ConflictResult{HasConflict: false}, nil
}
