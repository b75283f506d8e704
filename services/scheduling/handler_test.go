package scheduling

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"workshop-backend/pkg/middleware"
	"workshop-backend/services/task"
	"workshop-backend/services/testutil"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t, &task.Task{}, &task.TimeSlot{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	svc := NewService(ServiceParams{DB: db, Node: node})

	r := gin.New()
	r.Use(middleware.Error())
	NewHandler(svc).Register(r.Group("/api/v1"))
	return r, svc
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestScheduleEndpoint(t *testing.T) {
	r, svc := newTestRouter(t)
	require.NoError(t, svc.db.Create(&task.Task{ID: "t-1", Title: "Mill bracket", Status: task.StatusPending}).Error)

	w := doJSON(t, r, http.MethodPost, "/api/v1/tasks/t-1/schedule",
		`{"machineId":"m-1","scheduledAt":"2024-01-08T09:00:00Z","durationMin":60}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got task.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, task.StatusScheduled, got.Status)
	require.Len(t, got.TimeSlots, 1)
}

func TestScheduleEndpointConflictShape(t *testing.T) {
	r, svc := newTestRouter(t)
	require.NoError(t, svc.db.Create(&task.Task{ID: "t-a", Title: "Task A", Status: task.StatusPending}).Error)
	require.NoError(t, svc.db.Create(&task.Task{ID: "t-b", Title: "Task B", Status: task.StatusPending}).Error)

	w := doJSON(t, r, http.MethodPost, "/api/v1/tasks/t-b/schedule",
		`{"operatorId":"o-1","scheduledAt":"2024-01-08T09:00:00Z","durationMin":60}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/tasks/t-a/schedule",
		`{"operatorId":"o-1","scheduledAt":"2024-01-08T09:30:00Z","durationMin":60}`)
	require.Equal(t, http.StatusConflict, w.Code)

	var resp struct {
		Error        string `json:"error"`
		ConflictType string `json:"conflictType"`
		Conflict     struct {
			TaskID string `json:"taskId"`
			Title  string `json:"title"`
			Slot   struct {
				StartAt     time.Time `json:"startDateTime"`
				EndAt       time.Time `json:"endDateTime"`
				DurationMin int       `json:"durationMin"`
			} `json:"timeSlot"`
		} `json:"conflict"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "Operator scheduling conflict detected", resp.Error)
	require.Equal(t, "operator", resp.ConflictType)
	require.Equal(t, "t-b", resp.Conflict.TaskID)
	require.Equal(t, "Task B", resp.Conflict.Title)
	require.Equal(t, 60, resp.Conflict.Slot.DurationMin)
	require.Equal(t, time.Hour, resp.Conflict.Slot.EndAt.Sub(resp.Conflict.Slot.StartAt))
}

func TestScheduleEndpointPassesThroughProject(t *testing.T) {
	r, svc := newTestRouter(t)
	require.NoError(t, svc.db.Create(&task.Task{ID: "t-1", Title: "Mill bracket", Status: task.StatusPending}).Error)

	w := doJSON(t, r, http.MethodPost, "/api/v1/tasks/t-1/schedule",
		`{"projectId":"p-1","itemId":"i-1","machineId":"m-1","scheduledAt":"2024-01-08T09:00:00Z","durationMin":60}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got task.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.NotNil(t, got.ProjectID)
	require.Equal(t, "p-1", *got.ProjectID)
	require.Equal(t, "i-1", *got.ItemID)
}

func TestScheduleEndpointValidation(t *testing.T) {
	r, svc := newTestRouter(t)
	require.NoError(t, svc.db.Create(&task.Task{ID: "t-1", Title: "Mill bracket", Status: task.StatusPending}).Error)

	w := doJSON(t, r, http.MethodPost, "/api/v1/tasks/t-1/schedule",
		`{"scheduledAt":"not-a-time","durationMin":60}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/tasks/t-1/schedule", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleEndpointTaskNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/tasks/missing/schedule",
		`{"scheduledAt":"2024-01-08T09:00:00Z","durationMin":60}`)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnscheduleEndpoint(t *testing.T) {
	r, svc := newTestRouter(t)
	require.NoError(t, svc.db.Create(&task.Task{ID: "t-1", Title: "Mill bracket", Status: task.StatusPending}).Error)

	w := doJSON(t, r, http.MethodPost, "/api/v1/tasks/t-1/schedule",
		`{"machineId":"m-1","scheduledAt":"2024-01-08T09:00:00Z","durationMin":60}`)
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/tasks/t-1/schedule", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var got task.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, task.StatusPending, got.Status)
	require.Empty(t, got.TimeSlots)
}

func TestCheckEndpoint(t *testing.T) {
	r, svc := newTestRouter(t)
	require.NoError(t, svc.db.Create(&task.Task{ID: "t-b", Title: "Task B", Status: task.StatusPending}).Error)

	w := doJSON(t, r, http.MethodPost, "/api/v1/tasks/t-b/schedule",
		`{"machineId":"m-1","scheduledAt":"2024-01-08T09:00:00Z","durationMin":60}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/scheduling/check",
		`{"machineId":"m-1","scheduledAt":"2024-01-08T09:30:00Z","durationMin":30}`)
	require.Equal(t, http.StatusOK, w.Code)

	var result ConflictResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.True(t, result.HasConflict)
	require.Equal(t, KindMachine, result.Kind)

	// Excluding the owning task clears the conflict.
	w = doJSON(t, r, http.MethodPost, "/api/v1/scheduling/check",
		`{"machineId":"m-1","scheduledAt":"2024-01-08T09:30:00Z","durationMin":30,"excludeTaskId":"t-b"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.False(t, result.HasConflict)
}
