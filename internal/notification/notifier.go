// Package notification は予約の状態遷移をユーザーへ通知する機能を提供する。
// 通知はfire-and-forgetの副作用であり、配送失敗が呼び出し元の処理を
// 中断させることはない。
package notification

import (
	"context"

	"github.com/hitoshi/careman/internal/model"
)

// Notifier は状態遷移通知のインターフェース。
type Notifier interface {
	// NotifyTransition は予約の状態遷移を通知する。
	// 配送失敗はログに記録されるのみで、エラーは返さない。
	NotifyTransition(ctx context.Context, appointment *model.Appointment, from, to model.AppointmentStatus)
}

// NopNotifier は何も送信しないNotifier。通知先が未設定の構成で使用する。
type NopNotifier struct{}

// NotifyTransition は何もしない。
func (NopNotifier) NotifyTransition(ctx context.Context, appointment *model.Appointment, from, to model.AppointmentStatus) {
}

var _ Notifier = NopNotifier{}
