package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/careman/internal/model"
)

// PostgresTransactionHistoryRepo はPostgreSQLを使用した取引履歴リポジトリ。
// 履歴の書き込みはPaymentRepositoryのトランザクション内でのみ行われるため、
// 本リポジトリは読み取り専用の監査クエリだけを提供する。
type PostgresTransactionHistoryRepo struct {
	db *sql.DB
}

// NewPostgresTransactionHistoryRepo はPostgresTransactionHistoryRepoを生成する。
func NewPostgresTransactionHistoryRepo(db *sql.DB) *PostgresTransactionHistoryRepo {
	return &PostgresTransactionHistoryRepo{db: db}
}

// ListByUserID はユーザーの取引履歴を作成日時降順で返す。
func (r *PostgresTransactionHistoryRepo) ListByUserID(ctx context.Context, userID string) ([]*model.TransactionHistory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, appointment_id, type, amount, created_at
		 FROM transaction_histories WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("取引履歴の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var histories []*model.TransactionHistory
	for rows.Next() {
		history := &model.TransactionHistory{}
		var appointmentID sql.NullString

		if err := rows.Scan(&history.ID, &history.UserID, &appointmentID, &history.Type, &history.Amount, &history.CreatedAt); err != nil {
			return nil, fmt.Errorf("取引履歴行の読み取りに失敗しました: %w", err)
		}
		history.AppointmentID = nullStringValue(appointmentID)

		histories = append(histories, history)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("取引履歴の走査に失敗しました: %w", err)
	}
	return histories, nil
}

// compile-time interface check
var _ TransactionHistoryRepository = (*PostgresTransactionHistoryRepo)(nil)
