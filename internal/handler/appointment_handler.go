package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/careman/internal/appointment"
	"github.com/hitoshi/careman/internal/middleware"
	"github.com/hitoshi/careman/internal/model"
)

// AppointmentServiceInterface は予約ハンドラーが必要とするサービスインターフェース。
type AppointmentServiceInterface interface {
	Create(ctx context.Context, params appointment.CreateParams) (*model.Appointment, error)
	Get(ctx context.Context, id string) (*model.Appointment, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Appointment, error)
	UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus, adminOverride bool) (*model.Appointment, error)
	Update(ctx context.Context, id string, params appointment.UpdateParams) (*model.Appointment, error)
}

// UserGetter はユーザーの役割確認に必要なインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserGetter interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// AppointmentHandler は予約管理のHTTPハンドラー。
type AppointmentHandler struct {
	service AppointmentServiceInterface
	users   UserGetter
}

// NewAppointmentHandler はAppointmentHandlerを生成する。
func NewAppointmentHandler(service AppointmentServiceInterface, users UserGetter) *AppointmentHandler {
	return &AppointmentHandler{
		service: service,
		users:   users,
	}
}

// appointmentResponse は予約のAPIレスポンス。
type appointmentResponse struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	CaregiverInfoID string    `json:"caregiver_info_id"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	Status          string    `json:"status"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	Weekdays        []string  `json:"weekdays"`
	Timezone        string    `json:"timezone"`
	Payment         int64     `json:"payment"`
	CreatedAt       time.Time `json:"created_at"`
}

// createAppointmentRequest は予約作成リクエストのボディ。
type createAppointmentRequest struct {
	CaregiverInfoID string    `json:"caregiver_info_id"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	Weekdays        []string  `json:"weekdays"`
	Timezone        string    `json:"timezone"`
}

// updateAppointmentRequest は予約更新リクエストのボディ。
// statusが指定された場合は状態遷移、それ以外の項目はスケジュール更新。
type updateAppointmentRequest struct {
	Status    *string    `json:"status"`
	Override  bool       `json:"override"`
	Name      *string    `json:"name"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Weekdays  []string   `json:"weekdays"`
	Timezone  *string    `json:"timezone"`
}

// Create は新しい予約を作成する。
// POST /api/appointments
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	appointmentType := model.AppointmentType(req.Type)
	if appointmentType != model.AppointmentTypeOneTime && appointmentType != model.AppointmentTypeRecurring {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "予約種別はone_timeまたはrecurringを指定してください。",
			Category: "validation",
			Action:   "typeフィールドを確認してください。",
		})
		return
	}

	created, err := h.service.Create(r.Context(), appointment.CreateParams{
		UserID:          userID,
		CaregiverInfoID: req.CaregiverInfoID,
		Name:            req.Name,
		Type:            appointmentType,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Weekdays:        req.Weekdays,
		Timezone:        req.Timezone,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAppointmentResponse(created))
}

// Get は予約を取得する。
// GET /api/appointments/:id
func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorized(w)
		return
	}

	found, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(found))
}

// List はログインユーザーの予約一覧を取得する。
// GET /api/appointments
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	appointments, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]appointmentResponse, len(appointments))
	for i, a := range appointments {
		responses[i] = toAppointmentResponse(a)
	}
	writeJSON(w, http.StatusOK, responses)
}

// Update は予約の状態またはスケジュール項目を更新する。
// overrideはライフサイクル検証を省略する管理者向けフラグで、
// admin/superadmin以外の指定は無視される。
// PATCH /api/appointments/:id
func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req updateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	id := chi.URLParam(r, "id")

	if req.Status != nil {
		override := req.Override && h.isAdmin(r.Context(), userID)
		updated, err := h.service.UpdateStatus(r.Context(), id, model.AppointmentStatus(*req.Status), override)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(updated))
		return
	}

	updated, err := h.service.Update(r.Context(), id, appointment.UpdateParams{
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Weekdays:  req.Weekdays,
		Timezone:  req.Timezone,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(updated))
}

// isAdmin はユーザーが管理者権限を持つかを返す。
func (h *AppointmentHandler) isAdmin(ctx context.Context, userID string) bool {
	user, err := h.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		return false
	}
	return user.Role == model.RoleAdmin || user.Role == model.RoleSuperAdmin
}

// toAppointmentResponse はmodel.AppointmentからAPIレスポンスに変換する。
func toAppointmentResponse(a *model.Appointment) appointmentResponse {
	weekdays := a.Weekdays
	if weekdays == nil {
		weekdays = []string{}
	}
	return appointmentResponse{
		ID:              a.ID,
		UserID:          a.UserID,
		CaregiverInfoID: a.CaregiverInfoID,
		Name:            a.Name,
		Type:            string(a.Type),
		Status:          string(a.Status),
		StartDate:       a.StartDate,
		EndDate:         a.EndDate,
		Weekdays:        weekdays,
		Timezone:        a.Timezone,
		Payment:         a.Payment,
		CreatedAt:       a.CreatedAt,
	}
}
