// Package model はドメインモデルを定義する。
package model

import "time"

// TransactionType は残高移動の向きを表す。
type TransactionType string

const (
	// TransactionTypeIncome は残高への入金（介護者の受取、利用者のチャージ）。
	TransactionTypeIncome TransactionType = "income"
	// TransactionTypeOutcome は残高からの出金（利用者の支払い、引き出し）。
	TransactionTypeOutcome TransactionType = "outcome"
)

// TransactionHistory は残高移動1件の追記専用監査レコードを表す。
// 作成後は変更されない。残高の正本はUser.Balanceであり、本テーブルは監査証跡。
type TransactionHistory struct {
	ID            string
	UserID        string
	AppointmentID string
	Type          TransactionType
	Amount        int64
	CreatedAt     time.Time
}
