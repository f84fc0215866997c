// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/careman/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail は指定メールアドレスのユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// CaregiverInfoRepository は介護者情報の永続化インターフェース。
type CaregiverInfoRepository interface {
	// FindByID は指定IDの介護者情報を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.CaregiverInfo, error)

	// FindByUserID は指定ユーザーに紐付く介護者情報を取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.CaregiverInfo, error)
}

// AppointmentRepository は予約データの永続化インターフェース。
// 予約は物理削除されない（決済・レビューの正当性のため履歴を保持する）。
type AppointmentRepository interface {
	// FindByID は指定IDの予約を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Appointment, error)

	// Create は予約を作成する。
	Create(ctx context.Context, appointment *model.Appointment) error

	// Update は予約のスケジュール関連フィールドを更新する。
	Update(ctx context.Context, appointment *model.Appointment) error

	// UpdateStatus は予約の状態のみを更新する。
	UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus) error

	// ListByUserID は利用者の予約一覧を作成日時降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Appointment, error)

	// ListActionable は終端状態（rejected/finished）以外の全予約を返す。
	// ライフサイクルスケジューラのスキャン対象。
	ListActionable(ctx context.Context) ([]*model.Appointment, error)
}

// ActivityLogRepository は活動記録の永続化インターフェース。
type ActivityLogRepository interface {
	// FindByID は指定IDの活動記録を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.ActivityLog, error)

	// Create は活動記録を作成する。
	Create(ctx context.Context, log *model.ActivityLog) error

	// UpdateStatus は活動記録の状態と差し戻し理由を更新する。
	UpdateStatus(ctx context.Context, id string, status model.ActivityLogStatus, reason string) error

	// ListByAppointmentID は予約に紐付く活動記録を作成日時昇順で返す。
	ListByAppointmentID(ctx context.Context, appointmentID string) ([]*model.ActivityLog, error)

	// CountByStatuses は予約に紐付く活動記録のうち指定状態のものを数える。
	CountByStatuses(ctx context.Context, appointmentID string, statuses ...model.ActivityLogStatus) (int, error)
}

// TransferParams は利用者から介護者への残高移動1件のパラメータ。
type TransferParams struct {
	SeekerID        string // 支払う利用者のユーザーID
	CaregiverUserID string // 受け取る介護者のユーザーID
	AppointmentID   string
	Amount          int64
	// CloseActivityLogs がtrueの場合、同一トランザクション内で
	// 予約のapproved活動記録をすべてclosedに遷移させる（二重請求防止）。
	CloseActivityLogs bool
}

// PaymentRepository は残高移動の永続化インターフェース。
// すべての操作は単一のDBトランザクション内で残高更新と履歴追記を行い、
// 部分的な書き込みが観測されないことを保証する。
type PaymentRepository interface {
	// Transfer は利用者の残高から介護者の残高へ金額を原子的に移動する。
	// 利用者の残高が不足する場合はInsufficientFundsエラーを返し、一切書き込まない。
	Transfer(ctx context.Context, params TransferParams) error

	// Debit は利用者の残高から金額を引き落とす。
	// 残高が不足する場合はInsufficientFundsエラーを返し、一切書き込まない。
	Debit(ctx context.Context, userID, appointmentID string, amount int64) error

	// Credit はユーザーの残高へ金額を加算する。
	Credit(ctx context.Context, userID, appointmentID string, amount int64) error
}

// TransactionHistoryRepository は取引履歴の読み取りインターフェース。
// 履歴は追記専用で、書き込みはPaymentRepositoryのトランザクション内でのみ行われる。
type TransactionHistoryRepository interface {
	// ListByUserID はユーザーの取引履歴を作成日時降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.TransactionHistory, error)
}

// ReviewRepository はレビューの永続化インターフェース。
type ReviewRepository interface {
	// Create はレビューを作成する。
	Create(ctx context.Context, review *model.Review) error

	// ListByCaregiverInfoID は介護者に対するレビュー一覧を作成日時降順で返す。
	ListByCaregiverInfoID(ctx context.Context, caregiverInfoID string) ([]*model.Review, error)
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
