// Package activitylog は活動記録のドメインロジックを提供する。
// 活動記録は介護者が提出し、利用者が承認・却下する。承認済みの記録だけが
// 決済エンジンの精算対象になり、精算後はclosedに遷移して再計上されない。
package activitylog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/careman/internal/model"
	"github.com/hitoshi/careman/internal/repository"
	"github.com/hitoshi/careman/internal/security"
)

// Service は活動記録のサービス層。
type Service struct {
	activityLogRepo repository.ActivityLogRepository
	appointmentRepo repository.AppointmentRepository
	sanitizer       security.TextSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	activityLogRepo repository.ActivityLogRepository,
	appointmentRepo repository.AppointmentRepository,
	sanitizer security.TextSanitizerService,
) *Service {
	return &Service{
		activityLogRepo: activityLogRepo,
		appointmentRepo: appointmentRepo,
		sanitizer:       sanitizer,
	}
}

// Create は予約に対する活動記録をpending状態で作成する。
// タスクはサニタイズされ、空のタスクは取り除かれる。
func (s *Service) Create(ctx context.Context, appointmentID string, tasks []string) (*model.ActivityLog, error) {
	appointment, err := s.appointmentRepo.FindByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("予約の取得に失敗しました: %w", err)
	}
	if appointment == nil {
		return nil, model.NewAppointmentNotFoundError(appointmentID)
	}

	log := &model.ActivityLog{
		ID:            uuid.New().String(),
		AppointmentID: appointmentID,
		Status:        model.ActivityLogStatusPending,
		Tasks:         s.sanitizer.SanitizeAll(tasks),
	}

	if err := s.activityLogRepo.Create(ctx, log); err != nil {
		return nil, fmt.Errorf("活動記録の作成に失敗しました: %w", err)
	}

	return log, nil
}

// UpdateStatus は活動記録を承認または却下する。
// closedへの遷移は決済エンジンの精算トランザクション専用のため、ここでは受け付けない。
// 却下時のreasonは慣習上期待されるが必須ではない。
func (s *Service) UpdateStatus(ctx context.Context, id string, status model.ActivityLogStatus, reason string) (*model.ActivityLog, error) {
	if status != model.ActivityLogStatusApproved && status != model.ActivityLogStatusRejected {
		return nil, model.NewInvalidTransitionError("", string(status))
	}

	log, err := s.activityLogRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("活動記録の取得に失敗しました: %w", err)
	}
	if log == nil {
		return nil, model.NewActivityLogNotFoundError(id)
	}
	if log.Status == model.ActivityLogStatusClosed {
		return nil, model.NewInvalidTransitionError(string(log.Status), string(status))
	}

	reason = s.sanitizer.Sanitize(reason)

	if err := s.activityLogRepo.UpdateStatus(ctx, id, status, reason); err != nil {
		return nil, fmt.Errorf("活動記録状態の更新に失敗しました: %w", err)
	}

	log.Status = status
	log.Reason = reason
	return log, nil
}

// ListByAppointment は予約に紐づく活動記録一覧を返す。
func (s *Service) ListByAppointment(ctx context.Context, appointmentID string) ([]*model.ActivityLog, error) {
	logs, err := s.activityLogRepo.ListByAppointmentID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("活動記録一覧の取得に失敗しました: %w", err)
	}
	return logs, nil
}
