// Package model はドメインモデルを定義する。
package model

import "time"

// Review は完了した予約に対する利用者の評価を表す。
type Review struct {
	ID            string
	AppointmentID string
	UserID        string
	Rating        int
	Comment       string
	CreatedAt     time.Time
}
