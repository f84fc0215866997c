// Package review は予約に対するレビューのドメインロジックを提供する。
package review

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/careman/internal/model"
	"github.com/hitoshi/careman/internal/repository"
	"github.com/hitoshi/careman/internal/security"
)

// Service はレビューのサービス層。
type Service struct {
	reviewRepo      repository.ReviewRepository
	appointmentRepo repository.AppointmentRepository
	sanitizer       security.TextSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	reviewRepo repository.ReviewRepository,
	appointmentRepo repository.AppointmentRepository,
	sanitizer security.TextSanitizerService,
) *Service {
	return &Service{
		reviewRepo:      reviewRepo,
		appointmentRepo: appointmentRepo,
		sanitizer:       sanitizer,
	}
}

// Create は予約に対するレビューを作成する。評価は1〜5の範囲。
func (s *Service) Create(ctx context.Context, appointmentID, userID string, rating int, comment string) (*model.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, model.NewInvalidRatingError(rating)
	}

	appointment, err := s.appointmentRepo.FindByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("予約の取得に失敗しました: %w", err)
	}
	if appointment == nil {
		return nil, model.NewAppointmentNotFoundError(appointmentID)
	}

	review := &model.Review{
		ID:            uuid.New().String(),
		AppointmentID: appointmentID,
		UserID:        userID,
		Rating:        rating,
		Comment:       s.sanitizer.Sanitize(comment),
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("レビューの作成に失敗しました: %w", err)
	}

	return review, nil
}

// ListByCaregiver は介護者に紐づくレビュー一覧を返す。
func (s *Service) ListByCaregiver(ctx context.Context, caregiverInfoID string) ([]*model.Review, error) {
	reviews, err := s.reviewRepo.ListByCaregiverInfoID(ctx, caregiverInfoID)
	if err != nil {
		return nil, fmt.Errorf("レビュー一覧の取得に失敗しました: %w", err)
	}
	return reviews, nil
}
