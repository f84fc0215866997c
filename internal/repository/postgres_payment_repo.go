package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/careman/internal/model"
)

// PostgresPaymentRepo はPostgreSQLを使用した残高移動リポジトリ。
// 残高の更新・取引履歴の追記・活動記録のクローズを単一トランザクションで行い、
// 引き落としだけが適用された状態が観測されないことを保証する。
type PostgresPaymentRepo struct {
	db *sql.DB
}

// NewPostgresPaymentRepo はPostgresPaymentRepoを生成する。
func NewPostgresPaymentRepo(db *sql.DB) *PostgresPaymentRepo {
	return &PostgresPaymentRepo{db: db}
}

// Transfer は利用者の残高から介護者の残高へ金額を原子的に移動する。
// 利用者残高をFOR UPDATEでロックして残高不足を判定し、不足時は
// InsufficientFundsエラーを返して一切書き込まない。
// CloseActivityLogsが指定された場合、同一トランザクション内で予約の
// approved活動記録をclosedへ遷移させる（再精算時に二重計上されないゲート）。
func (r *PostgresPaymentRepo) Transfer(ctx context.Context, params TransferParams) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	// 利用者残高をロックして不足判定
	var balance int64
	err = tx.QueryRowContext(ctx,
		`SELECT balance FROM users WHERE id = $1 FOR UPDATE`,
		params.SeekerID,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return model.NewUserNotFoundError()
	}
	if err != nil {
		return fmt.Errorf("利用者残高の取得に失敗しました: %w", err)
	}

	if balance-params.Amount < 0 {
		return model.NewInsufficientFundsError()
	}

	// 引き落としと振り込み。移動額は鏡像で、金額の生成・消失はない。
	if err := updateBalance(ctx, tx, params.SeekerID, -params.Amount); err != nil {
		return err
	}
	if err := updateBalance(ctx, tx, params.CaregiverUserID, params.Amount); err != nil {
		return err
	}

	now := time.Now()
	if err := insertHistory(ctx, tx, params.SeekerID, params.AppointmentID, model.TransactionTypeOutcome, params.Amount, now); err != nil {
		return err
	}
	if err := insertHistory(ctx, tx, params.CaregiverUserID, params.AppointmentID, model.TransactionTypeIncome, params.Amount, now); err != nil {
		return err
	}

	if params.CloseActivityLogs {
		_, err = tx.ExecContext(ctx,
			`UPDATE activity_logs SET status = $2, updated_at = now()
			 WHERE appointment_id = $1 AND status = $3`,
			params.AppointmentID, model.ActivityLogStatusClosed, model.ActivityLogStatusApproved,
		)
		if err != nil {
			return fmt.Errorf("活動記録のクローズに失敗しました: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// Debit は利用者の残高から金額を引き落とし、取引履歴を追記する。
// 残高が不足する場合はInsufficientFundsエラーを返して一切書き込まない。
func (r *PostgresPaymentRepo) Debit(ctx context.Context, userID, appointmentID string, amount int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	var balance int64
	err = tx.QueryRowContext(ctx,
		`SELECT balance FROM users WHERE id = $1 FOR UPDATE`,
		userID,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return model.NewUserNotFoundError()
	}
	if err != nil {
		return fmt.Errorf("残高の取得に失敗しました: %w", err)
	}

	if balance-amount < 0 {
		return model.NewInsufficientFundsError()
	}

	if err := updateBalance(ctx, tx, userID, -amount); err != nil {
		return err
	}
	if err := insertHistory(ctx, tx, userID, appointmentID, model.TransactionTypeOutcome, amount, time.Now()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// Credit はユーザーの残高へ金額を加算し、取引履歴を追記する。
func (r *PostgresPaymentRepo) Credit(ctx context.Context, userID, appointmentID string, amount int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	if err := updateBalance(ctx, tx, userID, amount); err != nil {
		return err
	}
	if err := insertHistory(ctx, tx, userID, appointmentID, model.TransactionTypeIncome, amount, time.Now()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// updateBalance はトランザクション内で残高を相対更新する。
func updateBalance(ctx context.Context, tx *sql.Tx, userID string, delta int64) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE users SET balance = balance + $2, updated_at = now() WHERE id = $1`,
		userID, delta,
	)
	if err != nil {
		return fmt.Errorf("残高の更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新件数の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewUserNotFoundError()
	}
	return nil
}

// insertHistory はトランザクション内で追記専用の取引履歴を1件作成する。
func insertHistory(ctx context.Context, tx *sql.Tx, userID, appointmentID string, txType model.TransactionType, amount int64, createdAt time.Time) error {
	var apptID any
	if appointmentID != "" {
		apptID = appointmentID
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO transaction_histories (id, user_id, appointment_id, type, amount, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New().String(), userID, apptID, txType, amount, createdAt,
	)
	if err != nil {
		return fmt.Errorf("取引履歴の作成に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ PaymentRepository = (*PostgresPaymentRepo)(nil)
