package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/careman/internal/middleware"
	"github.com/hitoshi/careman/internal/model"
)

// ActivityLogServiceInterface は活動記録ハンドラーが必要とするサービスインターフェース。
type ActivityLogServiceInterface interface {
	Create(ctx context.Context, appointmentID string, tasks []string) (*model.ActivityLog, error)
	UpdateStatus(ctx context.Context, id string, status model.ActivityLogStatus, reason string) (*model.ActivityLog, error)
	ListByAppointment(ctx context.Context, appointmentID string) ([]*model.ActivityLog, error)
}

// ActivityLogHandler は活動記録のHTTPハンドラー。
type ActivityLogHandler struct {
	service ActivityLogServiceInterface
}

// NewActivityLogHandler はActivityLogHandlerを生成する。
func NewActivityLogHandler(service ActivityLogServiceInterface) *ActivityLogHandler {
	return &ActivityLogHandler{service: service}
}

// activityLogResponse は活動記録のAPIレスポンス。
type activityLogResponse struct {
	ID            string    `json:"id"`
	AppointmentID string    `json:"appointment_id"`
	Tasks         []string  `json:"tasks"`
	Status        string    `json:"status"`
	Reason        string    `json:"reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// createActivityLogRequest は活動記録作成リクエストのボディ。
type createActivityLogRequest struct {
	AppointmentID string   `json:"appointment_id"`
	Tasks         []string `json:"tasks"`
}

// updateActivityLogRequest は活動記録の承認・却下リクエストのボディ。
type updateActivityLogRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// Create は活動記録を作成する。作成時のステータスは常にpending。
// POST /api/activity-logs
func (h *ActivityLogHandler) Create(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorized(w)
		return
	}

	var req createActivityLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	created, err := h.service.Create(r.Context(), req.AppointmentID, req.Tasks)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toActivityLogResponse(created))
}

// UpdateStatus は活動記録を承認または却下する。
// PATCH /api/activity-logs/:id
func (h *ActivityLogHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorized(w)
		return
	}

	var req updateActivityLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), model.ActivityLogStatus(req.Status), req.Reason)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toActivityLogResponse(updated))
}

// ListByAppointment は予約に紐づく活動記録の一覧を返す。
// GET /api/appointments/:id/activity-logs
func (h *ActivityLogHandler) ListByAppointment(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorized(w)
		return
	}

	logs, err := h.service.ListByAppointment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]activityLogResponse, len(logs))
	for i, l := range logs {
		responses[i] = toActivityLogResponse(l)
	}
	writeJSON(w, http.StatusOK, responses)
}

// toActivityLogResponse はmodel.ActivityLogからAPIレスポンスに変換する。
func toActivityLogResponse(l *model.ActivityLog) activityLogResponse {
	tasks := l.Tasks
	if tasks == nil {
		tasks = []string{}
	}
	return activityLogResponse{
		ID:            l.ID,
		AppointmentID: l.AppointmentID,
		Tasks:         tasks,
		Status:        string(l.Status),
		Reason:        l.Reason,
		CreatedAt:     l.CreatedAt,
	}
}
