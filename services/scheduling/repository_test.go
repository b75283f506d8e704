package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"workshop-backend/services/task"
	"workshop-backend/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func strPtr(s string) *string { return &s }

func TestFindCandidateSlotsFiltersByResource(t *testing.T) {
	db := testutil.NewTestDB(t, &task.Task{}, &task.TimeSlot{})
	start := mustTime(t, "2024-01-08T09:00:00Z")

	onM1 := task.Task{ID: "t-1", Title: "Mill bracket", Status: task.StatusScheduled, MachineID: strPtr("m-1")}
	onM2 := task.Task{ID: "t-2", Title: "Turn shaft", Status: task.StatusScheduled, MachineID: strPtr("m-2")}
	require.NoError(t, db.Create(&onM1).Error)
	require.NoError(t, db.Create(&onM2).Error)
	require.NoError(t, db.Create(&task.TimeSlot{ID: "s-1", TaskID: "t-1", StartAt: start, DurationMin: 60}).Error)
	require.NoError(t, db.Create(&task.TimeSlot{ID: "s-2", TaskID: "t-2", StartAt: start, DurationMin: 60}).Error)

	repo := NewRepository(db)
	slots, err := repo.FindCandidateSlots(context.Background(), KindMachine, "m-1", start.Add(2*time.Hour), "", "")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	require.Equal(t, "s-1", slots[0].ID)
	require.NotNil(t, slots[0].Task)
	require.Equal(t, "Mill bracket", slots[0].Task.Title)
}

func TestFindCandidateSlotsCoarseTimeBound(t *testing.T) {
	db := testutil.NewTestDB(t, &task.Task{}, &task.TimeSlot{})
	start := mustTime(t, "2024-01-08T09:00:00Z")

	owner := task.Task{ID: "t-1", Title: "Mill bracket", Status: task.StatusScheduled, OperatorID: strPtr("o-1")}
	require.NoError(t, db.Create(&owner).Error)
	require.NoError(t, db.Create(&task.TimeSlot{ID: "s-early", TaskID: "t-1", StartAt: start, DurationMin: 30}).Error)
	require.NoError(t, db.Create(&task.TimeSlot{ID: "s-late", TaskID: "t-1", StartAt: start.Add(4 * time.Hour), DurationMin: 30}).Error)

	repo := NewRepository(db)
	// Candidate ends at 10:00; the 13:00 slot cannot possibly overlap and
	// must be excluded by the prefilter.
	slots, err := repo.FindCandidateSlots(context.Background(), KindOperator, "o-1", start.Add(time.Hour), "", "")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	require.Equal(t, "s-early", slots[0].ID)
}

func TestFindCandidateSlotsExclusions(t *testing.T) {
	db := testutil.NewTestDB(t, &task.Task{}, &task.TimeSlot{})
	start := mustTime(t, "2024-01-08T09:00:00Z")

	a := task.Task{ID: "t-a", Title: "Task A", Status: task.StatusScheduled, MachineID: strPtr("m-1")}
	b := task.Task{ID: "t-b", Title: "Task B", Status: task.StatusScheduled, MachineID: strPtr("m-1")}
	require.NoError(t, db.Create(&a).Error)
	require.NoError(t, db.Create(&b).Error)
	require.NoError(t, db.Create(&task.TimeSlot{ID: "s-a1", TaskID: "t-a", StartAt: start, DurationMin: 60}).Error)
	require.NoError(t, db.Create(&task.TimeSlot{ID: "s-a2", TaskID: "t-a", StartAt: start.Add(time.Hour), DurationMin: 60}).Error)
	require.NoError(t, db.Create(&task.TimeSlot{ID: "s-b1", TaskID: "t-b", StartAt: start, DurationMin: 60}).Error)

	repo := NewRepository(db)
	before := start.Add(3 * time.Hour)

	// Excluding the task drops both of its slots.
	slots, err := repo.FindCandidateSlots(context.Background(), KindMachine, "m-1", before, "t-a", "")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	require.Equal(t, "s-b1", slots[0].ID)

	// Excluding one slot keeps the task's other slot.
	slots, err = repo.FindCandidateSlots(context.Background(), KindMachine, "m-1", before, "", "s-a1")
	require.NoError(t, err)
	require.Len(t, slots, 2)

	// Both exclusions intersect.
	slots, err = repo.FindCandidateSlots(context.Background(), KindMachine, "m-1", before, "t-b", "s-a1")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	require.Equal(t, "s-a2", slots[0].ID)
}
