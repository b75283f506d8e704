package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"workshop-backend/services/task"
)

type mockCommitmentRepo struct {
	findFn func(ctx context.Context, kind ResourceKind, resourceID string, before time.Time, excludeTaskID, excludeSlotID string) ([]task.TimeSlot, error)
}

func (m *mockCommitmentRepo) FindCandidateSlots(ctx context.Context, kind ResourceKind, resourceID string, before time.Time, excludeTaskID, excludeSlotID string) ([]task.TimeSlot, error) {
	if m.findFn != nil {
		return m.findFn(ctx, kind, resourceID, before, excludeTaskID, excludeSlotID)
	}
	return nil, nil
}

func slotFor(t *testing.T, id, taskID, title, start string, durationMin int) task.TimeSlot {
	t.Helper()
	return task.TimeSlot{
		ID:          id,
		TaskID:      taskID,
		StartAt:     mustTime(t, start),
		DurationMin: durationMin,
		Task:        &task.Task{ID: taskID, Title: title},
	}
}

func TestCheckConflictsNoResources(t *testing.T) {
	d := NewDetector(&mockCommitmentRepo{findFn: func(context.Context, ResourceKind, string, time.Time, string, string) ([]task.TimeSlot, error) {
		t.Fatal("repository must not be queried without a resource id")
		return nil, nil
	}})

	result, err := d.CheckConflicts(context.Background(), Candidate{
		ScheduledAt: mustTime(t, "2024-01-08T09:00:00Z"),
		DurationMin: 60,
	})
	require.NoError(t, err)
	require.False(t, result.HasConflict)
}

func TestCheckConflictsNullEndResolvedViaDuration(t *testing.T) {
	// Stored slot has no explicit end: 09:00 + 90min covers [09:00, 10:30).
	repo := &mockCommitmentRepo{findFn: func(_ context.Context, _ ResourceKind, _ string, _ time.Time, _, _ string) ([]task.TimeSlot, error) {
		return []task.TimeSlot{slotFor(t, "s-1", "t-b", "Task B", "2024-01-08T09:00:00Z", 90)}, nil
	}}
	d := NewDetector(repo)

	inside, err := d.CheckConflicts(context.Background(), Candidate{
		ScheduledAt: mustTime(t, "2024-01-08T10:15:00Z"),
		DurationMin: 30,
		OperatorID:  strPtr("o-1"),
	})
	require.NoError(t, err)
	require.True(t, inside.HasConflict)
	require.Equal(t, KindOperator, inside.Kind)
	require.Equal(t, "t-b", inside.Conflict.TaskID)
	require.Equal(t, mustTime(t, "2024-01-08T10:30:00Z"), inside.Conflict.Slot.EndAt)

	beyond, err := d.CheckConflicts(context.Background(), Candidate{
		ScheduledAt: mustTime(t, "2024-01-08T10:30:00Z"),
		DurationMin: 30,
		OperatorID:  strPtr("o-1"),
	})
	require.NoError(t, err)
	require.False(t, beyond.HasConflict)
}

func TestCheckConflictsMachineBeforeOperator(t *testing.T) {
	// Both resources collide; only the machine conflict surfaces.
	repo := &mockCommitmentRepo{findFn: func(_ context.Context, kind ResourceKind, _ string, _ time.Time, _, _ string) ([]task.TimeSlot, error) {
		switch kind {
		case KindMachine:
			return []task.TimeSlot{slotFor(t, "s-m", "t-m", "Machine blocker", "2024-01-08T09:00:00Z", 60)}, nil
		default:
			return []task.TimeSlot{slotFor(t, "s-o", "t-o", "Operator blocker", "2024-01-08T09:00:00Z", 60)}, nil
		}
	}}
	d := NewDetector(repo)

	result, err := d.CheckConflicts(context.Background(), Candidate{
		ScheduledAt: mustTime(t, "2024-01-08T09:30:00Z"),
		DurationMin: 30,
		MachineID:   strPtr("m-1"),
		OperatorID:  strPtr("o-1"),
	})
	require.NoError(t, err)
	require.True(t, result.HasConflict)
	require.Equal(t, KindMachine, result.Kind)
	require.Equal(t, "t-m", result.Conflict.TaskID)
	require.Equal(t, "m-1", result.Conflict.ResourceID)
}

func TestCheckConflictsExplicitEndWins(t *testing.T) {
	end := mustTime(t, "2024-01-08T10:00:00Z")
	slot := slotFor(t, "s-1", "t-1", "Task", "2024-01-08T09:00:00Z", 60)
	slot.EndAt = &end

	repo := &mockCommitmentRepo{findFn: func(_ context.Context, _ ResourceKind, _ string, _ time.Time, _, _ string) ([]task.TimeSlot, error) {
		return []task.TimeSlot{slot}, nil
	}}
	d := NewDetector(repo)

	// Adjacent at the stored end: no conflict.
	result, err := d.CheckConflicts(context.Background(), Candidate{
		ScheduledAt: end,
		DurationMin: 30,
		MachineID:   strPtr("m-1"),
	})
	require.NoError(t, err)
	require.False(t, result.HasConflict)
}

func TestCheckConflictsRepositoryError(t *testing.T) {
	repo := &mockCommitmentRepo{findFn: func(_ context.Context, _ ResourceKind, _ string, _ time.Time, _, _ string) ([]task.TimeSlot, error) {
		return nil, errors.New("boom")
	}}
	d := NewDetector(repo)

	_, err := d.CheckConflicts(context.Background(), Candidate{
		ScheduledAt: mustTime(t, "2024-01-08T09:00:00Z"),
		DurationMin: 60,
		MachineID:   strPtr("m-1"),
	})
	require.Error(t, err)
}

func TestCheckConflictsTraceIDOnlyWhenSpanActive(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	prev := zap.L()
	zap.ReplaceGlobals(zap.New(core))
	defer zap.ReplaceGlobals(prev)

	repo := &mockCommitmentRepo{findFn: func(_ context.Context, _ ResourceKind, _ string, _ time.Time, _, _ string) ([]task.TimeSlot, error) {
		return []task.TimeSlot{slotFor(t, "s-1", "t-1", "Task", "2024-01-08T09:00:00Z", 60)}, nil
	}}
	d := NewDetector(repo)
	candidate := Candidate{
		ScheduledAt: mustTime(t, "2024-01-08T09:30:00Z"),
		DurationMin: 30,
		MachineID:   strPtr("m-1"),
	}

	// No span on the context: the conflict line carries no trace_id at all.
	_, err := d.CheckConflicts(context.Background(), candidate)
	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	require.NotContains(t, logs.All()[0].ContextMap(), "trace_id")

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{0x01},
		SpanID:  trace.SpanID{0x02},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	_, err = d.CheckConflicts(ctx, candidate)
	require.NoError(t, err)
	require.Equal(t, 2, logs.Len())
	require.Equal(t, sc.TraceID().String(), logs.All()[1].ContextMap()["trace_id"])
}

func TestCheckConflictsPassesExclusions(t *testing.T) {
	var gotTask, gotSlot string
	repo := &mockCommitmentRepo{findFn: func(_ context.Context, _ ResourceKind, _ string, _ time.Time, excludeTaskID, excludeSlotID string) ([]task.TimeSlot, error) {
		gotTask, gotSlot = excludeTaskID, excludeSlotID
		return nil, nil
	}}
	d := NewDetector(repo)

	_, err := d.CheckConflicts(context.Background(), Candidate{
		ScheduledAt:   mustTime(t, "2024-01-08T09:00:00Z"),
		DurationMin:   60,
		MachineID:     strPtr("m-1"),
		ExcludeTaskID: "t-1",
		ExcludeSlotID: "s-1",
	})
	require.NoError(t, err)
	require.Equal(t, "t-1", gotTask)
	require.Equal(t, "s-1", gotSlot)
}
