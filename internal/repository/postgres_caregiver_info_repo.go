package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/careman/internal/model"
)

// PostgresCaregiverInfoRepo はPostgreSQLを使用した介護者情報リポジトリ。
type PostgresCaregiverInfoRepo struct {
	db *sql.DB
}

// NewPostgresCaregiverInfoRepo はPostgresCaregiverInfoRepoを生成する。
func NewPostgresCaregiverInfoRepo(db *sql.DB) *PostgresCaregiverInfoRepo {
	return &PostgresCaregiverInfoRepo{db: db}
}

// FindByID は指定IDの介護者情報を取得する。見つからない場合はnilを返す。
func (r *PostgresCaregiverInfoRepo) FindByID(ctx context.Context, id string) (*model.CaregiverInfo, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

// FindByUserID は指定ユーザーに紐付く介護者情報を取得する。見つからない場合はnilを返す。
func (r *PostgresCaregiverInfoRepo) FindByUserID(ctx context.Context, userID string) (*model.CaregiverInfo, error) {
	return r.findOne(ctx, `WHERE user_id = $1`, userID)
}

func (r *PostgresCaregiverInfoRepo) findOne(ctx context.Context, where string, arg any) (*model.CaregiverInfo, error) {
	info := &model.CaregiverInfo{}
	var description sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, hourly_rate, description, created_at, updated_at
		 FROM caregiver_infos `+where,
		arg,
	).Scan(&info.ID, &info.UserID, &info.HourlyRate, &description, &info.CreatedAt, &info.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("介護者情報の取得に失敗しました: %w", err)
	}

	info.Description = nullStringValue(description)
	return info, nil
}

// compile-time interface check
var _ CaregiverInfoRepository = (*PostgresCaregiverInfoRepo)(nil)
