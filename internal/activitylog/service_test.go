package activitylog

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/careman/internal/model"
	"github.com/hitoshi/careman/internal/security"
)

type mockActivityLogRepo struct {
	findByIDFn            func(ctx context.Context, id string) (*model.ActivityLog, error)
	createFn              func(ctx context.Context, log *model.ActivityLog) error
	updateStatusFn        func(ctx context.Context, id string, status model.ActivityLogStatus, reason string) error
	listByAppointmentIDFn func(ctx context.Context, appointmentID string) ([]*model.ActivityLog, error)
}

func (m *mockActivityLogRepo) FindByID(ctx context.Context, id string) (*model.ActivityLog, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockActivityLogRepo) Create(ctx context.Context, log *model.ActivityLog) error {
	return m.createFn(ctx, log)
}
func (m *mockActivityLogRepo) UpdateStatus(ctx context.Context, id string, status model.ActivityLogStatus, reason string) error {
	return m.updateStatusFn(ctx, id, status, reason)
}
func (m *mockActivityLogRepo) ListByAppointmentID(ctx context.Context, appointmentID string) ([]*model.ActivityLog, error) {
	return m.listByAppointmentIDFn(ctx, appointmentID)
}
func (m *mockActivityLogRepo) CountByStatuses(ctx context.Context, appointmentID string, statuses ...model.ActivityLogStatus) (int, error) {
	return 0, nil
}

type mockAppointmentRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Appointment, error)
}

func (m *mockAppointmentRepo) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockAppointmentRepo) Create(ctx context.Context, appointment *model.Appointment) error {
	return nil
}
func (m *mockAppointmentRepo) Update(ctx context.Context, appointment *model.Appointment) error {
	return nil
}
func (m *mockAppointmentRepo) UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus) error {
	return nil
}
func (m *mockAppointmentRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Appointment, error) {
	return nil, nil
}
func (m *mockAppointmentRepo) ListActionable(ctx context.Context) ([]*model.Appointment, error) {
	return nil, nil
}

func existingAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Appointment, error) {
			return &model.Appointment{ID: id, Status: model.AppointmentStatusOngoing}, nil
		},
	}
}

// TestService_Create は活動記録がpending状態・サニタイズ済みタスクで
// 作成されることを検証する。
func TestService_Create(t *testing.T) {
	var created *model.ActivityLog
	logRepo := &mockActivityLogRepo{
		createFn: func(ctx context.Context, log *model.ActivityLog) error {
			created = log
			return nil
		},
	}
	service := NewService(logRepo, existingAppointmentRepo(), security.NewTextSanitizer())

	log, err := service.Create(context.Background(), "appt-1", []string{
		"入浴介助",
		`<script>alert("x")</script>買い物代行`,
		"   ",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if log.Status != model.ActivityLogStatusPending {
		t.Errorf("status = %s, want %s", log.Status, model.ActivityLogStatusPending)
	}
	if len(log.Tasks) != 2 {
		t.Fatalf("tasks = %v, want 2 entries", log.Tasks)
	}
	if log.Tasks[1] != "買い物代行" {
		t.Errorf("task not sanitized: %q", log.Tasks[1])
	}
	if created == nil || created.ID == "" {
		t.Error("activity log must be persisted with a generated ID")
	}
}

// TestService_Create_AppointmentNotFound は存在しない予約への記録作成が
// 拒否されることを検証する。
func TestService_Create_AppointmentNotFound(t *testing.T) {
	apptRepo := &mockAppointmentRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Appointment, error) {
			return nil, nil
		},
	}
	service := NewService(&mockActivityLogRepo{}, apptRepo, security.NewTextSanitizer())

	_, err := service.Create(context.Background(), "missing", []string{"入浴介助"})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeAppointmentNotFound {
		t.Fatalf("error = %v, want APIError with code %s", err, model.ErrCodeAppointmentNotFound)
	}
}

// TestService_UpdateStatus は承認・却下の反映を検証する。
func TestService_UpdateStatus(t *testing.T) {
	tests := []struct {
		name   string
		status model.ActivityLogStatus
		reason string
	}{
		{"承認", model.ActivityLogStatusApproved, ""},
		{"理由付き却下", model.ActivityLogStatusRejected, "タスクが未実施でした"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotStatus model.ActivityLogStatus
			var gotReason string
			logRepo := &mockActivityLogRepo{
				findByIDFn: func(ctx context.Context, id string) (*model.ActivityLog, error) {
					return &model.ActivityLog{ID: id, Status: model.ActivityLogStatusPending}, nil
				},
				updateStatusFn: func(ctx context.Context, id string, status model.ActivityLogStatus, reason string) error {
					gotStatus = status
					gotReason = reason
					return nil
				},
			}
			service := NewService(logRepo, existingAppointmentRepo(), security.NewTextSanitizer())

			log, err := service.UpdateStatus(context.Background(), "log-1", tt.status, tt.reason)
			if err != nil {
				t.Fatalf("UpdateStatus returned error: %v", err)
			}
			if gotStatus != tt.status || log.Status != tt.status {
				t.Errorf("status = %s/%s, want %s", gotStatus, log.Status, tt.status)
			}
			if gotReason != tt.reason {
				t.Errorf("reason = %q, want %q", gotReason, tt.reason)
			}
		})
	}
}

// TestService_UpdateStatus_RejectsClosedTransition はclosedへの手動遷移と
// closed済み記録の再遷移が拒否されることを検証する。
func TestService_UpdateStatus_RejectsClosedTransition(t *testing.T) {
	logRepo := &mockActivityLogRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.ActivityLog, error) {
			return &model.ActivityLog{ID: id, Status: model.ActivityLogStatusClosed}, nil
		},
	}
	service := NewService(logRepo, existingAppointmentRepo(), security.NewTextSanitizer())

	// closedへの手動遷移
	_, err := service.UpdateStatus(context.Background(), "log-1", model.ActivityLogStatusClosed, "")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidTransition {
		t.Fatalf("closed transition: error = %v, want invalid transition", err)
	}

	// closed済み記録の承認
	_, err = service.UpdateStatus(context.Background(), "log-1", model.ActivityLogStatusApproved, "")
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidTransition {
		t.Fatalf("approve closed log: error = %v, want invalid transition", err)
	}
}

// TestService_UpdateStatus_NotFound は存在しない記録の更新がエラーになることを検証する。
func TestService_UpdateStatus_NotFound(t *testing.T) {
	logRepo := &mockActivityLogRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.ActivityLog, error) {
			return nil, nil
		},
	}
	service := NewService(logRepo, existingAppointmentRepo(), security.NewTextSanitizer())

	_, err := service.UpdateStatus(context.Background(), "missing", model.ActivityLogStatusApproved, "")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeActivityLogNotFound {
		t.Fatalf("error = %v, want APIError with code %s", err, model.ErrCodeActivityLogNotFound)
	}
}
