// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, payment, appointment, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInsufficientFunds     = "INSUFFICIENT_FUNDS"
	ErrCodeAppointmentNotFound   = "APPOINTMENT_NOT_FOUND"
	ErrCodeCaregiverInfoNotFound = "CAREGIVER_INFO_NOT_FOUND"
	ErrCodeActivityLogNotFound   = "ACTIVITY_LOG_NOT_FOUND"
	ErrCodeUserNotFound          = "USER_NOT_FOUND"
	ErrCodeInvalidTransition     = "INVALID_TRANSITION"
	ErrCodeInvalidCredentials    = "INVALID_CREDENTIALS"
	ErrCodeInvalidRating         = "INVALID_RATING"
	ErrCodeInvalidAmount         = "INVALID_AMOUNT"
)

// NewInsufficientFundsError は残高不足エラーを生成する。
// 残高を負にする決済はすべてこのエラーで拒否され、部分的な書き込みは発生しない。
func NewInsufficientFundsError() *APIError {
	return &APIError{
		Code:     ErrCodeInsufficientFunds,
		Message:  "残高が不足しています。",
		Category: "payment",
		Action:   "残高をチャージしてから再度お試しください。",
	}
}

// NewAppointmentNotFoundError は予約未検出エラーを生成する。
func NewAppointmentNotFoundError(appointmentID string) *APIError {
	return &APIError{
		Code:     ErrCodeAppointmentNotFound,
		Message:  fmt.Sprintf("指定された予約が見つかりません: %s", appointmentID),
		Category: "appointment",
		Action:   "予約IDを確認してください。",
	}
}

// NewCaregiverInfoNotFoundError は介護者情報未検出エラーを生成する。
func NewCaregiverInfoNotFoundError(caregiverInfoID string) *APIError {
	return &APIError{
		Code:     ErrCodeCaregiverInfoNotFound,
		Message:  fmt.Sprintf("指定された介護者情報が見つかりません: %s", caregiverInfoID),
		Category: "appointment",
		Action:   "介護者情報IDを確認してください。",
	}
}

// NewActivityLogNotFoundError は活動記録未検出エラーを生成する。
func NewActivityLogNotFoundError(activityLogID string) *APIError {
	return &APIError{
		Code:     ErrCodeActivityLogNotFound,
		Message:  fmt.Sprintf("指定された活動記録が見つかりません: %s", activityLogID),
		Category: "appointment",
		Action:   "活動記録IDを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewInvalidTransitionError は許可されていない状態遷移エラーを生成する。
// 予約ライフサイクルと活動記録の承認フローで共用するため文字列を受け取る。
func NewInvalidTransitionError(from, to string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTransition,
		Message:  fmt.Sprintf("許可されていない状態遷移です: %s -> %s", from, to),
		Category: "appointment",
		Action:   "現在の予約状態を確認してください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewInvalidRatingError は評価値が範囲外の場合のエラーを生成する。
func NewInvalidRatingError(rating int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRating,
		Message:  fmt.Sprintf("無効な評価値です: %d", rating),
		Category: "validation",
		Action:   "評価は1から5の整数で指定してください。",
	}
}

// NewInvalidAmountError は取引金額が不正な場合のエラーを生成する。
func NewInvalidAmountError(amount int64) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidAmount,
		Message:  fmt.Sprintf("無効な取引金額です: %d", amount),
		Category: "validation",
		Action:   "金額は正の整数で指定してください。",
	}
}
