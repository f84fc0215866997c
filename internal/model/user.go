// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの役割を表す。
type Role string

const (
	// RoleSeeker はケアを依頼する利用者。
	RoleSeeker Role = "seeker"
	// RoleCaregiver はケアを提供する介護者。
	RoleCaregiver Role = "caregiver"
	// RoleAdmin は管理者。
	RoleAdmin Role = "admin"
	// RoleSuperAdmin は最上位管理者。
	RoleSuperAdmin Role = "superadmin"
)

// User はサービス利用ユーザーを表す。
// Balanceは整数通貨単位の残高で、決済エンジンのトランザクション経由でのみ増減する。
type User struct {
	ID           string
	Email        string
	Name         string
	Role         Role
	PasswordHash string
	Balance      int64
	WebhookURL   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CaregiverInfo は介護者の提供情報を表す。Userと1:1で紐付く。
// HourlyRateが決済計算に使われる正本のレートとなる。
type CaregiverInfo struct {
	ID          string
	UserID      string
	HourlyRate  int64
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
