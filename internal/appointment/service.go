package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/careman/internal/model"
	"github.com/hitoshi/careman/internal/repository"
)

// HourlyCharger はバーチャル面談への遷移時に1時間分を課金するインターフェース。
// payment.Engineの部分集合として定義する。
type HourlyCharger interface {
	PayForHourOfWork(ctx context.Context, userID, caregiverInfoID string) (int64, error)
}

// CreateParams は予約作成の入力。
type CreateParams struct {
	UserID          string
	CaregiverInfoID string
	Name            string
	Type            model.AppointmentType
	StartDate       time.Time
	EndDate         time.Time
	Weekdays        []string
	Timezone        string
}

// UpdateParams は予約のスケジュール項目更新の入力。nilの項目は変更しない。
type UpdateParams struct {
	Name      *string
	StartDate *time.Time
	EndDate   *time.Time
	Weekdays  []string
	Timezone  *string
}

// Service は予約管理のサービス層。
// 予約の作成・参照・状態遷移のビジネスロジックを提供する。
type Service struct {
	appointmentRepo repository.AppointmentRepository
	caregiverRepo   repository.CaregiverInfoRepository
	charger         HourlyCharger
}

// NewService はServiceの新しいインスタンスを生成する。
// chargerはnilを許容する（virtual遷移時の課金なし）。
func NewService(
	appointmentRepo repository.AppointmentRepository,
	caregiverRepo repository.CaregiverInfoRepository,
	charger HourlyCharger,
) *Service {
	return &Service{
		appointmentRepo: appointmentRepo,
		caregiverRepo:   caregiverRepo,
		charger:         charger,
	}
}

// Create は新しい予約をpending状態で作成する。
// paymentには依頼時点の介護者の時給を記録する。精算は介護者情報の
// 現在のレートで行われるため、この値は依頼時の提示額の履歴として残る。
func (s *Service) Create(ctx context.Context, params CreateParams) (*model.Appointment, error) {
	info, err := s.caregiverRepo.FindByID(ctx, params.CaregiverInfoID)
	if err != nil {
		return nil, fmt.Errorf("介護者情報の取得に失敗しました: %w", err)
	}
	if info == nil {
		return nil, model.NewCaregiverInfoNotFoundError(params.CaregiverInfoID)
	}

	appointment := &model.Appointment{
		ID:              uuid.New().String(),
		UserID:          params.UserID,
		CaregiverInfoID: params.CaregiverInfoID,
		Name:            params.Name,
		Type:            params.Type,
		Status:          model.AppointmentStatusPending,
		StartDate:       params.StartDate,
		EndDate:         params.EndDate,
		Weekdays:        params.Weekdays,
		Timezone:        params.Timezone,
		Payment:         info.HourlyRate,
	}

	if err := s.appointmentRepo.Create(ctx, appointment); err != nil {
		return nil, fmt.Errorf("予約の作成に失敗しました: %w", err)
	}

	return appointment, nil
}

// Get は予約を取得する。存在しない場合はAppointmentNotFoundエラーを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Appointment, error) {
	appointment, err := s.appointmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("予約の取得に失敗しました: %w", err)
	}
	if appointment == nil {
		return nil, model.NewAppointmentNotFoundError(id)
	}
	return appointment, nil
}

// ListByUser はユーザーに紐づく予約一覧を返す。
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*model.Appointment, error) {
	appointments, err := s.appointmentRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("予約一覧の取得に失敗しました: %w", err)
	}
	return appointments, nil
}

// UpdateStatus は予約の状態を遷移させる。
// ライフサイクルグラフ上で無効な遷移はInvalidTransitionエラーで拒否する。
// adminOverrideが真の場合は検証を省略する（管理者による手動修正用）。
// virtualへの遷移時は面談1時間分を利用者の残高から課金する。
func (s *Service) UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus, adminOverride bool) (*model.Appointment, error) {
	appointment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !adminOverride && !CanTransition(appointment.Status, status) {
		return nil, model.NewInvalidTransitionError(string(appointment.Status), string(status))
	}

	if status == model.AppointmentStatusVirtual && s.charger != nil {
		if _, err := s.charger.PayForHourOfWork(ctx, appointment.UserID, appointment.CaregiverInfoID); err != nil {
			return nil, err
		}
	}

	if err := s.appointmentRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("予約状態の更新に失敗しました: %w", err)
	}

	appointment.Status = status
	return appointment, nil
}

// Update は予約のスケジュール項目を更新する。
// 状態遷移はUpdateStatus経由でのみ行い、ここでは変更しない。
func (s *Service) Update(ctx context.Context, id string, params UpdateParams) (*model.Appointment, error) {
	appointment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		appointment.Name = *params.Name
	}
	if params.StartDate != nil {
		appointment.StartDate = *params.StartDate
	}
	if params.EndDate != nil {
		appointment.EndDate = *params.EndDate
	}
	if params.Weekdays != nil {
		appointment.Weekdays = params.Weekdays
	}
	if params.Timezone != nil {
		appointment.Timezone = *params.Timezone
	}

	if err := s.appointmentRepo.Update(ctx, appointment); err != nil {
		return nil, fmt.Errorf("予約の更新に失敗しました: %w", err)
	}

	return appointment, nil
}
