package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/careman/internal/appointment"
	"github.com/hitoshi/careman/internal/middleware"
	"github.com/hitoshi/careman/internal/model"
)

// --- モック定義 ---

// mockAppointmentService はAppointmentServiceInterfaceのモック実装。
type mockAppointmentService struct {
	createFn       func(ctx context.Context, params appointment.CreateParams) (*model.Appointment, error)
	getFn          func(ctx context.Context, id string) (*model.Appointment, error)
	listByUserFn   func(ctx context.Context, userID string) ([]*model.Appointment, error)
	updateStatusFn func(ctx context.Context, id string, status model.AppointmentStatus, adminOverride bool) (*model.Appointment, error)
	updateFn       func(ctx context.Context, id string, params appointment.UpdateParams) (*model.Appointment, error)
}

func (m *mockAppointmentService) Create(ctx context.Context, params appointment.CreateParams) (*model.Appointment, error) {
	if m.createFn != nil {
		return m.createFn(ctx, params)
	}
	return nil, nil
}

func (m *mockAppointmentService) Get(ctx context.Context, id string) (*model.Appointment, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}

func (m *mockAppointmentService) ListByUser(ctx context.Context, userID string) ([]*model.Appointment, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockAppointmentService) UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus, adminOverride bool) (*model.Appointment, error) {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status, adminOverride)
	}
	return nil, nil
}

func (m *mockAppointmentService) Update(ctx context.Context, id string, params appointment.UpdateParams) (*model.Appointment, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, params)
	}
	return nil, nil
}

// mockUserGetter はUserGetterのモック実装。
type mockUserGetter struct {
	findByIDFn func(ctx context.Context, id string) (*model.User, error)
}

func (m *mockUserGetter) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

// --- テストヘルパー ---

// withUserID はテスト用にリクエストコンテキストにユーザーIDを注入するヘルパー。
func withUserID(r *http.Request, userID string) *http.Request {
	ctx := middleware.ContextWithUserID(r.Context(), userID)
	return r.WithContext(ctx)
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

func testAppointment() *model.Appointment {
	return &model.Appointment{
		ID:              "appt-1",
		UserID:          "user-123",
		CaregiverInfoID: "cg-1",
		Name:            "平日の朝の介助",
		Type:            model.AppointmentTypeRecurring,
		Status:          model.AppointmentStatusPending,
		StartDate:       time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC),
		Weekdays:        []string{"monday", "wednesday"},
		Timezone:        "UTC",
		Payment:         20,
		CreatedAt:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// --- POST /api/appointments テスト ---

func TestAppointmentHandler_Create_Success(t *testing.T) {
	svc := &mockAppointmentService{
		createFn: func(ctx context.Context, params appointment.CreateParams) (*model.Appointment, error) {
			if params.UserID != "user-123" {
				t.Errorf("UserID = %q, want %q", params.UserID, "user-123")
			}
			if params.Type != model.AppointmentTypeRecurring {
				t.Errorf("Type = %q, want %q", params.Type, model.AppointmentTypeRecurring)
			}
			return testAppointment(), nil
		},
	}

	h := NewAppointmentHandler(svc, &mockUserGetter{})

	body := bytes.NewBufferString(`{
		"caregiver_info_id": "cg-1",
		"name": "平日の朝の介助",
		"type": "recurring",
		"start_date": "2024-01-08T10:00:00Z",
		"end_date": "2024-03-08T12:00:00Z",
		"weekdays": ["monday", "wednesday"],
		"timezone": "UTC"
	}`)
	req := httptest.NewRequest(http.MethodPost, "/api/appointments", body)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var resp appointmentResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "appt-1" {
		t.Errorf("ID = %q, want %q", resp.ID, "appt-1")
	}
	if resp.Status != "pending" {
		t.Errorf("Status = %q, want %q", resp.Status, "pending")
	}
}

func TestAppointmentHandler_Create_InvalidType(t *testing.T) {
	h := NewAppointmentHandler(&mockAppointmentService{}, &mockUserGetter{})

	body := bytes.NewBufferString(`{"caregiver_info_id": "cg-1", "type": "biweekly"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/appointments", body)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAppointmentHandler_Create_Unauthorized(t *testing.T) {
	h := NewAppointmentHandler(&mockAppointmentService{}, &mockUserGetter{})

	req := httptest.NewRequest(http.MethodPost, "/api/appointments", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// --- PATCH /api/appointments/{id} テスト ---

func TestAppointmentHandler_Update_StatusTransition(t *testing.T) {
	svc := &mockAppointmentService{
		updateStatusFn: func(ctx context.Context, id string, status model.AppointmentStatus, adminOverride bool) (*model.Appointment, error) {
			if id != "appt-1" {
				t.Errorf("id = %q, want %q", id, "appt-1")
			}
			if status != model.AppointmentStatusAccepted {
				t.Errorf("status = %q, want %q", status, model.AppointmentStatusAccepted)
			}
			if adminOverride {
				t.Error("adminOverride must be false for non-admin user")
			}
			a := testAppointment()
			a.Status = model.AppointmentStatusAccepted
			return a, nil
		},
	}
	users := &mockUserGetter{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Role: model.RoleSeeker}, nil
		},
	}

	h := NewAppointmentHandler(svc, users)

	body := bytes.NewBufferString(`{"status": "accepted"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/appointments/appt-1", body)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "appt-1")
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
}

// TestAppointmentHandler_Update_OverrideIgnoredForNonAdmin は管理者以外の
// overrideフラグが無視されることを検証する。
func TestAppointmentHandler_Update_OverrideIgnoredForNonAdmin(t *testing.T) {
	var gotOverride bool
	svc := &mockAppointmentService{
		updateStatusFn: func(ctx context.Context, id string, status model.AppointmentStatus, adminOverride bool) (*model.Appointment, error) {
			gotOverride = adminOverride
			return testAppointment(), nil
		},
	}
	users := &mockUserGetter{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Role: model.RoleCaregiver}, nil
		},
	}

	h := NewAppointmentHandler(svc, users)

	body := bytes.NewBufferString(`{"status": "finished", "override": true}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/appointments/appt-1", body)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "appt-1")
	w := httptest.NewRecorder()

	h.Update(w, req)

	if gotOverride {
		t.Error("override must be ignored for non-admin user")
	}
}

// TestAppointmentHandler_Update_OverrideAllowedForAdmin は管理者の
// overrideフラグがサービスに伝わることを検証する。
func TestAppointmentHandler_Update_OverrideAllowedForAdmin(t *testing.T) {
	var gotOverride bool
	svc := &mockAppointmentService{
		updateStatusFn: func(ctx context.Context, id string, status model.AppointmentStatus, adminOverride bool) (*model.Appointment, error) {
			gotOverride = adminOverride
			return testAppointment(), nil
		},
	}
	users := &mockUserGetter{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Role: model.RoleAdmin}, nil
		},
	}

	h := NewAppointmentHandler(svc, users)

	body := bytes.NewBufferString(`{"status": "finished", "override": true}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/appointments/appt-1", body)
	req = withUserID(req, "admin-1")
	req = withChiURLParam(req, "id", "appt-1")
	w := httptest.NewRecorder()

	h.Update(w, req)

	if !gotOverride {
		t.Error("override must pass through for admin user")
	}
}

func TestAppointmentHandler_Update_InvalidTransitionConflict(t *testing.T) {
	svc := &mockAppointmentService{
		updateStatusFn: func(ctx context.Context, id string, status model.AppointmentStatus, adminOverride bool) (*model.Appointment, error) {
			return nil, model.NewInvalidTransitionError(
				string(model.AppointmentStatusPending), string(model.AppointmentStatusFinished))
		},
	}
	users := &mockUserGetter{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Role: model.RoleSeeker}, nil
		},
	}

	h := NewAppointmentHandler(svc, users)

	body := bytes.NewBufferString(`{"status": "finished"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/appointments/appt-1", body)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "appt-1")
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestAppointmentHandler_Update_ScheduleFields(t *testing.T) {
	svc := &mockAppointmentService{
		updateFn: func(ctx context.Context, id string, params appointment.UpdateParams) (*model.Appointment, error) {
			if params.Name == nil || *params.Name != "新しい名前" {
				t.Errorf("Name = %v, want 新しい名前", params.Name)
			}
			if params.StartDate != nil {
				t.Error("StartDate must be nil when not specified")
			}
			return testAppointment(), nil
		},
	}

	h := NewAppointmentHandler(svc, &mockUserGetter{})

	body := bytes.NewBufferString(`{"name": "新しい名前"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/appointments/appt-1", body)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "appt-1")
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
}

// --- GET /api/appointments/{id} テスト ---

func TestAppointmentHandler_Get_NotFound(t *testing.T) {
	svc := &mockAppointmentService{
		getFn: func(ctx context.Context, id string) (*model.Appointment, error) {
			return nil, model.NewAppointmentNotFoundError(id)
		},
	}

	h := NewAppointmentHandler(svc, &mockUserGetter{})

	req := httptest.NewRequest(http.MethodGet, "/api/appointments/missing", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "missing")
	w := httptest.NewRecorder()

	h.Get(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// --- GET /api/appointments テスト ---

func TestAppointmentHandler_List_Success(t *testing.T) {
	svc := &mockAppointmentService{
		listByUserFn: func(ctx context.Context, userID string) ([]*model.Appointment, error) {
			return []*model.Appointment{testAppointment()}, nil
		},
	}

	h := NewAppointmentHandler(svc, &mockUserGetter{})

	req := httptest.NewRequest(http.MethodGet, "/api/appointments", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.List(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp []appointmentResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 1 {
		t.Errorf("len(resp) = %d, want 1", len(resp))
	}
}
