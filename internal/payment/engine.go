// Package payment は決済エンジンを提供する。
// 予約の完了・定期サイクルに応じた支払額の計算と、利用者・介護者間の
// 原子的な残高移動を担う。残高の更新はすべてPaymentRepositoryの
// 単一トランザクション経由で行われ、部分適用は観測されない。
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/careman/internal/model"
	"github.com/hitoshi/careman/internal/repository"
)

// MetricsRecorder は決済メトリクスの記録インターフェース。
// metrics.Collectorの部分集合として定義する。
type MetricsRecorder interface {
	RecordSettlement(amount int64)
	RecordInsufficientFunds()
}

// Engine は決済エンジン。支払額の計算と精算の起動判定を行う。
type Engine struct {
	appointmentRepo repository.AppointmentRepository
	caregiverRepo   repository.CaregiverInfoRepository
	activityLogRepo repository.ActivityLogRepository
	paymentRepo     repository.PaymentRepository
	logger          *slog.Logger
	metrics         MetricsRecorder
	now             func() time.Time
}

// NewEngine はEngineの新しいインスタンスを生成する。
// metricsはnilを許容する（記録なし）。
func NewEngine(
	appointmentRepo repository.AppointmentRepository,
	caregiverRepo repository.CaregiverInfoRepository,
	activityLogRepo repository.ActivityLogRepository,
	paymentRepo repository.PaymentRepository,
	logger *slog.Logger,
	metrics MetricsRecorder,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		appointmentRepo: appointmentRepo,
		caregiverRepo:   caregiverRepo,
		activityLogRepo: activityLogRepo,
		paymentRepo:     paymentRepo,
		logger:          logger,
		metrics:         metrics,
		now:             time.Now,
	}
}

// SetNowFunc は現在時刻の取得関数を差し替える。テスト用。
func (e *Engine) SetNowFunc(now func() time.Time) {
	e.now = now
}

// PayForHourOfWork は1時間分の作業料金を利用者の残高から引き落とし、
// 課金したレートを返す。バーチャル面談予約など、その場で課金するフローで使う。
// 残高が不足する場合はInsufficientFundsエラーを返し、残高は変化しない。
func (e *Engine) PayForHourOfWork(ctx context.Context, userID, caregiverInfoID string) (int64, error) {
	info, err := e.caregiverRepo.FindByID(ctx, caregiverInfoID)
	if err != nil {
		return 0, fmt.Errorf("介護者情報の取得に失敗しました: %w", err)
	}
	if info == nil {
		return 0, model.NewCaregiverInfoNotFoundError(caregiverInfoID)
	}

	if err := e.paymentRepo.Debit(ctx, userID, "", info.HourlyRate); err != nil {
		e.recordPaymentFailure(err)
		return 0, err
	}

	return info.HourlyRate, nil
}

// PayForCompletedOneTimeAppointment は完了した単発予約の料金を精算する。
// 支払額は (実施時間 + 1) * 時給。+1 は最低1時間の課金単位を保証する切り上げ分。
// 引き落としと振り込みは単一トランザクションで行われ、金額は鏡像になる。
func (e *Engine) PayForCompletedOneTimeAppointment(ctx context.Context, appointmentID string) error {
	appointment, info, err := e.loadAppointmentWithCaregiver(ctx, appointmentID)
	if err != nil {
		return err
	}

	durationHours := hoursBetween(appointment.StartDate, appointment.EndDate)
	amountToPay := (durationHours + 1) * info.HourlyRate

	err = e.paymentRepo.Transfer(ctx, repository.TransferParams{
		SeekerID:        appointment.UserID,
		CaregiverUserID: info.UserID,
		AppointmentID:   appointment.ID,
		Amount:          amountToPay,
	})
	if err != nil {
		e.recordPaymentFailure(err)
		return err
	}

	if e.metrics != nil {
		e.metrics.RecordSettlement(amountToPay)
	}
	e.logger.Info("単発予約の精算が完了しました",
		slog.String("appointment_id", appointment.ID),
		slog.Int64("amount", amountToPay),
	)
	return nil
}

// PayForCompletedRecurringAppointment は定期予約の承認済み活動記録分を精算する。
// 支払額は 承認済み件数 * 時給 * 1回あたり実施時間。開始から1週間以上経過した
// 課金サイクルでは調整として時給1時間分を控除する。
// 精算後、承認済み記録は同一トランザクション内でclosedに遷移し、
// 以後の精算で再計上されることはない。承認済み記録が無い場合は何もしない。
func (e *Engine) PayForCompletedRecurringAppointment(ctx context.Context, appointmentID string) error {
	appointment, info, err := e.loadAppointmentWithCaregiver(ctx, appointmentID)
	if err != nil {
		return err
	}
	return e.settleRecurring(ctx, appointment, info)
}

func (e *Engine) settleRecurring(ctx context.Context, appointment *model.Appointment, info *model.CaregiverInfo) error {
	approvedCount, err := e.activityLogRepo.CountByStatuses(ctx, appointment.ID, model.ActivityLogStatusApproved)
	if err != nil {
		return fmt.Errorf("承認済み活動記録の集計に失敗しました: %w", err)
	}
	if approvedCount == 0 {
		// closedゲート: 精算済みの記録はapprovedに数えられないため、
		// 再実行しても追加の残高移動は発生しない。
		return nil
	}

	durationHours := occurrenceHours(appointment)
	amount := int64(approvedCount) * info.HourlyRate * durationHours

	weeksDifference := weeksBetween(e.now(), appointment.StartDate)
	if weeksDifference >= 1 {
		amount -= info.HourlyRate
	}
	if amount < 0 {
		amount = 0
	}

	err = e.paymentRepo.Transfer(ctx, repository.TransferParams{
		SeekerID:          appointment.UserID,
		CaregiverUserID:   info.UserID,
		AppointmentID:     appointment.ID,
		Amount:            amount,
		CloseActivityLogs: true,
	})
	if err != nil {
		e.recordPaymentFailure(err)
		return err
	}

	if e.metrics != nil {
		e.metrics.RecordSettlement(amount)
	}
	e.logger.Info("定期予約の精算が完了しました",
		slog.String("appointment_id", appointment.ID),
		slog.Int("approved_count", approvedCount),
		slog.Int64("amount", amount),
	)
	return nil
}

// ChargeForOneTimeAppointment は単発予約を精算し、予約をfinishedにする。
func (e *Engine) ChargeForOneTimeAppointment(ctx context.Context, appointmentID string) error {
	if err := e.PayForCompletedOneTimeAppointment(ctx, appointmentID); err != nil {
		return err
	}
	if err := e.appointmentRepo.UpdateStatus(ctx, appointmentID, model.AppointmentStatusFinished); err != nil {
		return err
	}
	return nil
}

// ChargeRecurringPaymentTask は定期予約の精算起動判定を行う。
// スケジューラから毎ティック呼ばれ、以下のいずれかの場合に精算する。
//   - 今日が設定曜日の先頭曜日で、かつレビュー済み（approved/rejected）件数が
//     設定曜日数に達している（1サイクル分のレビュー完了）
//   - 予約の終了日時に達している（この場合は予約もfinishedにする）
//
// それ以外の呼び出しでは何もしない。戻り値は精算を実行したかどうか。
func (e *Engine) ChargeRecurringPaymentTask(ctx context.Context, appointmentID string) (bool, error) {
	appointment, info, err := e.loadAppointmentWithCaregiver(ctx, appointmentID)
	if err != nil {
		return false, err
	}

	now := e.now().In(appointment.Location())

	if len(appointment.Weekdays) > 0 && now.Weekday().String() == appointment.Weekdays[0] {
		reviewedCount, err := e.activityLogRepo.CountByStatuses(ctx, appointment.ID,
			model.ActivityLogStatusApproved, model.ActivityLogStatusRejected)
		if err != nil {
			return false, fmt.Errorf("レビュー済み活動記録の集計に失敗しました: %w", err)
		}
		if reviewedCount == len(appointment.Weekdays) {
			if err := e.settleRecurring(ctx, appointment, info); err != nil {
				return false, err
			}
			return true, nil
		}
	}

	if !now.Before(appointment.EndDate) {
		if err := e.settleRecurring(ctx, appointment, info); err != nil {
			return false, err
		}
		if err := e.appointmentRepo.UpdateStatus(ctx, appointment.ID, model.AppointmentStatusFinished); err != nil {
			return false, err
		}
		return true, nil
	}

	return false, nil
}

// loadAppointmentWithCaregiver は予約と対応する介護者情報を取得する。
func (e *Engine) loadAppointmentWithCaregiver(ctx context.Context, appointmentID string) (*model.Appointment, *model.CaregiverInfo, error) {
	appointment, err := e.appointmentRepo.FindByID(ctx, appointmentID)
	if err != nil {
		return nil, nil, fmt.Errorf("予約の取得に失敗しました: %w", err)
	}
	if appointment == nil {
		return nil, nil, model.NewAppointmentNotFoundError(appointmentID)
	}

	info, err := e.caregiverRepo.FindByID(ctx, appointment.CaregiverInfoID)
	if err != nil {
		return nil, nil, fmt.Errorf("介護者情報の取得に失敗しました: %w", err)
	}
	if info == nil {
		return nil, nil, model.NewCaregiverInfoNotFoundError(appointment.CaregiverInfoID)
	}

	return appointment, info, nil
}

// recordPaymentFailure は残高不足をメトリクスに記録する。
func (e *Engine) recordPaymentFailure(err error) {
	if e.metrics == nil {
		return
	}
	if apiErr, ok := err.(*model.APIError); ok && apiErr.Code == model.ErrCodeInsufficientFunds {
		e.metrics.RecordInsufficientFunds()
	}
}

// hoursBetween はstartからendまでの時間数を返す（切り捨て）。
func hoursBetween(start, end time.Time) int64 {
	if end.Before(start) {
		return 0
	}
	return int64(end.Sub(start).Hours())
}

// weeksBetween はstartからnowまでの経過週数を返す（切り捨て、負は0）。
func weeksBetween(now, start time.Time) int64 {
	if now.Before(start) {
		return 0
	}
	return int64(now.Sub(start).Hours() / (24 * 7))
}

// occurrenceHours は1回の実施あたりの課金時間数を返す。
// 単発予約は開始から終了までの全時間、定期予約は開始・終了時刻の
// 時刻差（日をまたぐ場合は24時間を加算して補正）で計算する。
func occurrenceHours(a *model.Appointment) int64 {
	if a.Type == model.AppointmentTypeOneTime {
		return hoursBetween(a.StartDate, a.EndDate)
	}

	loc := a.Location()
	start := a.StartDate.In(loc)
	end := a.EndDate.In(loc)

	startMinutes := start.Hour()*60 + start.Minute()
	endMinutes := end.Hour()*60 + end.Minute()

	diff := endMinutes - startMinutes
	if diff < 0 {
		diff += 24 * 60
	}
	return int64(diff / 60)
}
