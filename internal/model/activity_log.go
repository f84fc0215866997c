// Package model はドメインモデルを定義する。
package model

import "time"

// ActivityLogStatus は活動記録の承認状態を表す。
type ActivityLogStatus string

const (
	// ActivityLogStatusPending は利用者の確認待ち状態。
	ActivityLogStatusPending ActivityLogStatus = "pending"
	// ActivityLogStatusApproved は利用者が承認した状態。精算対象になる。
	ActivityLogStatusApproved ActivityLogStatus = "approved"
	// ActivityLogStatusRejected は利用者が差し戻した状態。
	ActivityLogStatusRejected ActivityLogStatus = "rejected"
	// ActivityLogStatusClosed は精算済みの状態。二重請求を防ぐゲートとなる。
	ActivityLogStatusClosed ActivityLogStatus = "closed"
)

// ActivityLog は介護者が1回の実施分について提出する活動記録を表す。
// 予約1件に対して実施回ごとに複数行が存在しうる。
// Tasksは実施タスクの順序付きリストで、永続化層でのみJSONエンコードされる。
// ClosedへはPaymentエンジンの精算トランザクション内でのみ遷移する。
type ActivityLog struct {
	ID            string
	AppointmentID string
	Status        ActivityLogStatus
	Tasks         []string
	Reason        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
