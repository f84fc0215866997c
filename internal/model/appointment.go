// Package model はドメインモデルを定義する。
package model

import "time"

// AppointmentType は予約の種別を表す。
type AppointmentType string

const (
	// AppointmentTypeOneTime は単発予約。
	AppointmentTypeOneTime AppointmentType = "one_time"
	// AppointmentTypeRecurring は曜日指定の定期予約。
	AppointmentTypeRecurring AppointmentType = "recurring"
)

// AppointmentStatus は予約のライフサイクル状態を表す。
type AppointmentStatus string

const (
	// AppointmentStatusPending は依頼直後の承認待ち状態。
	AppointmentStatusPending AppointmentStatus = "pending"
	// AppointmentStatusRejected は介護者が依頼を拒否した終端状態。
	AppointmentStatusRejected AppointmentStatus = "rejected"
	// AppointmentStatusAccepted は介護者が依頼を承認した状態。
	AppointmentStatusAccepted AppointmentStatus = "accepted"
	// AppointmentStatusVirtual はバーチャル面談の段階。
	AppointmentStatusVirtual AppointmentStatus = "virtual"
	// AppointmentStatusSignedCaregiver は介護者が契約に署名した状態。
	AppointmentStatusSignedCaregiver AppointmentStatus = "signed_caregiver"
	// AppointmentStatusSignedSeeker は利用者が契約に署名した状態。
	AppointmentStatusSignedSeeker AppointmentStatus = "signed_seeker"
	// AppointmentStatusActive は開始を待機しているアクティブ状態。
	AppointmentStatusActive AppointmentStatus = "active"
	// AppointmentStatusPaused は手動で一時停止された状態。
	AppointmentStatusPaused AppointmentStatus = "paused"
	// AppointmentStatusOngoing はケア実施中の状態。
	AppointmentStatusOngoing AppointmentStatus = "ongoing"
	// AppointmentStatusCompleted は単発予約が終了時刻に達した状態。
	AppointmentStatusCompleted AppointmentStatus = "completed"
	// AppointmentStatusFinished は精算まで完了した終端状態。
	AppointmentStatusFinished AppointmentStatus = "finished"
)

// IsTerminal は終端状態（これ以上スケジューラが処理しない状態）かどうかを返す。
func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentStatusRejected || s == AppointmentStatusFinished
}

// Appointment はケア予約を表す。
// Paymentは予約作成時点の介護者時給のスナップショット。
// Weekdaysは定期予約の実施曜日（"Monday"等の英語曜日名）の順序付きリストで、
// 永続化層でのみJSONエンコードされる。
type Appointment struct {
	ID              string
	UserID          string
	CaregiverInfoID string
	Name            string
	Type            AppointmentType
	Status          AppointmentStatus
	StartDate       time.Time
	EndDate         time.Time
	Weekdays        []string
	Timezone        string
	Payment         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Location は予約のタイムゾーンを返す。
// 不正・未設定の場合はUTCにフォールバックする。
func (a *Appointment) Location() *time.Location {
	if a.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// HasWeekday は指定曜日が実施曜日に含まれるかを返す。
func (a *Appointment) HasWeekday(d time.Weekday) bool {
	for _, w := range a.Weekdays {
		if w == d.String() {
			return true
		}
	}
	return false
}
