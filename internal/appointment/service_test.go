package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/careman/internal/model"
)

type mockAppointmentRepo struct {
	findByIDFn     func(ctx context.Context, id string) (*model.Appointment, error)
	createFn       func(ctx context.Context, appointment *model.Appointment) error
	updateFn       func(ctx context.Context, appointment *model.Appointment) error
	updateStatusFn func(ctx context.Context, id string, status model.AppointmentStatus) error
	listByUserIDFn func(ctx context.Context, userID string) ([]*model.Appointment, error)
}

func (m *mockAppointmentRepo) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockAppointmentRepo) Create(ctx context.Context, appointment *model.Appointment) error {
	return m.createFn(ctx, appointment)
}
func (m *mockAppointmentRepo) Update(ctx context.Context, appointment *model.Appointment) error {
	return m.updateFn(ctx, appointment)
}
func (m *mockAppointmentRepo) UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus) error {
	return m.updateStatusFn(ctx, id, status)
}
func (m *mockAppointmentRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Appointment, error) {
	return m.listByUserIDFn(ctx, userID)
}
func (m *mockAppointmentRepo) ListActionable(ctx context.Context) ([]*model.Appointment, error) {
	return nil, nil
}

type mockCaregiverRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.CaregiverInfo, error)
}

func (m *mockCaregiverRepo) FindByID(ctx context.Context, id string) (*model.CaregiverInfo, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockCaregiverRepo) FindByUserID(ctx context.Context, userID string) (*model.CaregiverInfo, error) {
	return nil, nil
}

type mockCharger struct {
	payForHourOfWorkFn func(ctx context.Context, userID, caregiverInfoID string) (int64, error)
}

func (m *mockCharger) PayForHourOfWork(ctx context.Context, userID, caregiverInfoID string) (int64, error) {
	return m.payForHourOfWorkFn(ctx, userID, caregiverInfoID)
}

// TestCanTransition はライフサイクルグラフの辺を検証する。
func TestCanTransition(t *testing.T) {
	tests := []struct {
		from model.AppointmentStatus
		to   model.AppointmentStatus
		want bool
	}{
		{model.AppointmentStatusPending, model.AppointmentStatusAccepted, true},
		{model.AppointmentStatusPending, model.AppointmentStatusRejected, true},
		{model.AppointmentStatusAccepted, model.AppointmentStatusVirtual, true},
		{model.AppointmentStatusVirtual, model.AppointmentStatusSignedCaregiver, true},
		{model.AppointmentStatusSignedCaregiver, model.AppointmentStatusSignedSeeker, true},
		{model.AppointmentStatusSignedSeeker, model.AppointmentStatusActive, true},
		{model.AppointmentStatusActive, model.AppointmentStatusOngoing, true},
		{model.AppointmentStatusActive, model.AppointmentStatusPaused, true},
		{model.AppointmentStatusPaused, model.AppointmentStatusActive, true},
		{model.AppointmentStatusOngoing, model.AppointmentStatusActive, true},
		{model.AppointmentStatusOngoing, model.AppointmentStatusCompleted, true},
		{model.AppointmentStatusCompleted, model.AppointmentStatusFinished, true},
		// 辺を飛ばす遷移は無効
		{model.AppointmentStatusPending, model.AppointmentStatusActive, false},
		{model.AppointmentStatusAccepted, model.AppointmentStatusSignedSeeker, false},
		{model.AppointmentStatusActive, model.AppointmentStatusFinished, false},
		// 終端状態からの遷移は無効
		{model.AppointmentStatusRejected, model.AppointmentStatusPending, false},
		{model.AppointmentStatusFinished, model.AppointmentStatusActive, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

// TestService_Create は予約作成時に時給がスナップショットされることを検証する。
func TestService_Create(t *testing.T) {
	var created *model.Appointment
	apptRepo := &mockAppointmentRepo{
		createFn: func(ctx context.Context, appointment *model.Appointment) error {
			created = appointment
			return nil
		},
	}
	cgRepo := &mockCaregiverRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.CaregiverInfo, error) {
			return &model.CaregiverInfo{ID: id, UserID: "caregiver-1", HourlyRate: 25}, nil
		},
	}
	service := NewService(apptRepo, cgRepo, nil)

	appointment, err := service.Create(context.Background(), CreateParams{
		UserID:          "seeker-1",
		CaregiverInfoID: "cg-info-1",
		Name:            "週次訪問ケア",
		Type:            model.AppointmentTypeRecurring,
		StartDate:       time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Weekdays:        []string{"Monday", "Wednesday"},
		Timezone:        "Asia/Tokyo",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if appointment.Status != model.AppointmentStatusPending {
		t.Errorf("status = %s, want %s", appointment.Status, model.AppointmentStatusPending)
	}
	if appointment.Payment != 25 {
		t.Errorf("payment snapshot = %d, want 25", appointment.Payment)
	}
	if appointment.ID == "" {
		t.Error("ID must be generated")
	}
	if created == nil || created.ID != appointment.ID {
		t.Error("appointment must be persisted via repository")
	}
}

// TestService_Create_CaregiverNotFound は存在しない介護者への予約作成が
// 拒否されることを検証する。
func TestService_Create_CaregiverNotFound(t *testing.T) {
	cgRepo := &mockCaregiverRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.CaregiverInfo, error) {
			return nil, nil
		},
	}
	service := NewService(&mockAppointmentRepo{}, cgRepo, nil)

	_, err := service.Create(context.Background(), CreateParams{CaregiverInfoID: "missing"})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeCaregiverInfoNotFound {
		t.Fatalf("error = %v, want APIError with code %s", err, model.ErrCodeCaregiverInfoNotFound)
	}
}

// TestService_UpdateStatus は有効な遷移が適用されることを検証する。
func TestService_UpdateStatus(t *testing.T) {
	var updatedStatus model.AppointmentStatus
	apptRepo := &mockAppointmentRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Appointment, error) {
			return &model.Appointment{ID: id, Status: model.AppointmentStatusPending}, nil
		},
		updateStatusFn: func(ctx context.Context, id string, status model.AppointmentStatus) error {
			updatedStatus = status
			return nil
		},
	}
	service := NewService(apptRepo, &mockCaregiverRepo{}, nil)

	appointment, err := service.UpdateStatus(context.Background(), "appt-1", model.AppointmentStatusAccepted, false)
	if err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	if updatedStatus != model.AppointmentStatusAccepted {
		t.Errorf("persisted status = %s, want %s", updatedStatus, model.AppointmentStatusAccepted)
	}
	if appointment.Status != model.AppointmentStatusAccepted {
		t.Errorf("returned status = %s, want %s", appointment.Status, model.AppointmentStatusAccepted)
	}
}

// TestService_UpdateStatus_InvalidTransition は辺を飛ばす遷移が
// InvalidTransitionエラーで拒否されることを検証する。
func TestService_UpdateStatus_InvalidTransition(t *testing.T) {
	apptRepo := &mockAppointmentRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Appointment, error) {
			return &model.Appointment{ID: id, Status: model.AppointmentStatusPending}, nil
		},
		updateStatusFn: func(ctx context.Context, id string, status model.AppointmentStatus) error {
			t.Fatal("UpdateStatus must not be called for an invalid transition")
			return nil
		},
	}
	service := NewService(apptRepo, &mockCaregiverRepo{}, nil)

	_, err := service.UpdateStatus(context.Background(), "appt-1", model.AppointmentStatusActive, false)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidTransition {
		t.Fatalf("error = %v, want APIError with code %s", err, model.ErrCodeInvalidTransition)
	}
}

// TestService_UpdateStatus_AdminOverride は管理者オーバーライドで
// 遷移検証が省略されることを検証する。
func TestService_UpdateStatus_AdminOverride(t *testing.T) {
	apptRepo := &mockAppointmentRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Appointment, error) {
			return &model.Appointment{ID: id, Status: model.AppointmentStatusPending}, nil
		},
		updateStatusFn: func(ctx context.Context, id string, status model.AppointmentStatus) error {
			return nil
		},
	}
	service := NewService(apptRepo, &mockCaregiverRepo{}, nil)

	appointment, err := service.UpdateStatus(context.Background(), "appt-1", model.AppointmentStatusFinished, true)
	if err != nil {
		t.Fatalf("UpdateStatus with override returned error: %v", err)
	}
	if appointment.Status != model.AppointmentStatusFinished {
		t.Errorf("status = %s, want %s", appointment.Status, model.AppointmentStatusFinished)
	}
}

// TestService_UpdateStatus_VirtualChargesHour はvirtual遷移時に
// 1時間分の課金が行われることを検証する。
func TestService_UpdateStatus_VirtualChargesHour(t *testing.T) {
	apptRepo := &mockAppointmentRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Appointment, error) {
			return &model.Appointment{
				ID:              id,
				UserID:          "seeker-1",
				CaregiverInfoID: "cg-info-1",
				Status:          model.AppointmentStatusAccepted,
			}, nil
		},
		updateStatusFn: func(ctx context.Context, id string, status model.AppointmentStatus) error {
			return nil
		},
	}
	charged := false
	charger := &mockCharger{
		payForHourOfWorkFn: func(ctx context.Context, userID, caregiverInfoID string) (int64, error) {
			charged = true
			return 20, nil
		},
	}
	service := NewService(apptRepo, &mockCaregiverRepo{}, charger)

	if _, err := service.UpdateStatus(context.Background(), "appt-1", model.AppointmentStatusVirtual, false); err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	if !charged {
		t.Error("transition to virtual must charge one hour of work")
	}
}

// TestService_UpdateStatus_VirtualChargeFails は課金失敗時に
// 状態遷移が行われないことを検証する。
func TestService_UpdateStatus_VirtualChargeFails(t *testing.T) {
	apptRepo := &mockAppointmentRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Appointment, error) {
			return &model.Appointment{ID: id, Status: model.AppointmentStatusAccepted}, nil
		},
		updateStatusFn: func(ctx context.Context, id string, status model.AppointmentStatus) error {
			t.Fatal("status must not change when the charge fails")
			return nil
		},
	}
	charger := &mockCharger{
		payForHourOfWorkFn: func(ctx context.Context, userID, caregiverInfoID string) (int64, error) {
			return 0, model.NewInsufficientFundsError()
		},
	}
	service := NewService(apptRepo, &mockCaregiverRepo{}, charger)

	_, err := service.UpdateStatus(context.Background(), "appt-1", model.AppointmentStatusVirtual, false)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInsufficientFunds {
		t.Fatalf("error = %v, want insufficient funds", err)
	}
}

// TestService_Update はnilでない項目だけが更新されることを検証する。
func TestService_Update(t *testing.T) {
	var updated *model.Appointment
	apptRepo := &mockAppointmentRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Appointment, error) {
			return &model.Appointment{
				ID:       id,
				Name:     "旧名称",
				Status:   model.AppointmentStatusActive,
				Weekdays: []string{"Monday"},
				Timezone: "UTC",
			}, nil
		},
		updateFn: func(ctx context.Context, appointment *model.Appointment) error {
			updated = appointment
			return nil
		},
	}
	service := NewService(apptRepo, &mockCaregiverRepo{}, nil)

	name := "新名称"
	appointment, err := service.Update(context.Background(), "appt-1", UpdateParams{
		Name:     &name,
		Weekdays: []string{"Monday", "Friday"},
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if appointment.Name != "新名称" {
		t.Errorf("name = %s, want 新名称", appointment.Name)
	}
	if len(appointment.Weekdays) != 2 {
		t.Errorf("weekdays = %v, want 2 entries", appointment.Weekdays)
	}
	if appointment.Timezone != "UTC" {
		t.Errorf("timezone changed unexpectedly: %s", appointment.Timezone)
	}
	if updated == nil {
		t.Fatal("appointment must be persisted via repository")
	}
	if updated.Status != model.AppointmentStatusActive {
		t.Errorf("status must not change via Update: %s", updated.Status)
	}
}
