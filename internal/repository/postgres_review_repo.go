package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/careman/internal/model"
)

// PostgresReviewRepo はPostgreSQLを使用したレビューリポジトリ。
type PostgresReviewRepo struct {
	db *sql.DB
}

// NewPostgresReviewRepo はPostgresReviewRepoを生成する。
func NewPostgresReviewRepo(db *sql.DB) *PostgresReviewRepo {
	return &PostgresReviewRepo{db: db}
}

// Create はレビューを作成する。
func (r *PostgresReviewRepo) Create(ctx context.Context, review *model.Review) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reviews (id, appointment_id, user_id, rating, comment, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		review.ID, review.AppointmentID, review.UserID, review.Rating,
		nullString(review.Comment), review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("レビューの作成に失敗しました: %w", err)
	}
	return nil
}

// ListByCaregiverInfoID は介護者に対するレビュー一覧を作成日時降順で返す。
// 予約経由で介護者情報に紐付くレビューをJOINで取得する。
func (r *PostgresReviewRepo) ListByCaregiverInfoID(ctx context.Context, caregiverInfoID string) ([]*model.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT rv.id, rv.appointment_id, rv.user_id, rv.rating, rv.comment, rv.created_at
		 FROM reviews rv
		 JOIN appointments ap ON ap.id = rv.appointment_id
		 WHERE ap.caregiver_info_id = $1
		 ORDER BY rv.created_at DESC`,
		caregiverInfoID,
	)
	if err != nil {
		return nil, fmt.Errorf("レビュー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var reviews []*model.Review
	for rows.Next() {
		review := &model.Review{}
		var comment sql.NullString

		if err := rows.Scan(&review.ID, &review.AppointmentID, &review.UserID, &review.Rating, &comment, &review.CreatedAt); err != nil {
			return nil, fmt.Errorf("レビュー行の読み取りに失敗しました: %w", err)
		}
		review.Comment = nullStringValue(comment)

		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("レビュー一覧の走査に失敗しました: %w", err)
	}
	return reviews, nil
}

// compile-time interface check
var _ ReviewRepository = (*PostgresReviewRepo)(nil)
