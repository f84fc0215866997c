// Package lifecycle は予約ライフサイクルのバックグラウンド駆動を提供する。
// 1分間隔のティッカーで非終端状態の予約を走査し、開始・終了時刻や
// 実施曜日に応じた状態遷移と精算の起動を行う。
package lifecycle

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/careman/internal/metrics"
	"github.com/hitoshi/careman/internal/model"
	"github.com/hitoshi/careman/internal/notification"
	"github.com/hitoshi/careman/internal/repository"
)

// PaymentEngine は精算起動のインターフェース。payment.Engineの部分集合。
type PaymentEngine interface {
	// ChargeForOneTimeAppointment は単発予約を精算し、予約をfinishedにする。
	ChargeForOneTimeAppointment(ctx context.Context, appointmentID string) error
	// ChargeRecurringPaymentTask は定期予約の精算起動判定を行う。
	// 精算を実行した場合はtrueを返す。
	ChargeRecurringPaymentTask(ctx context.Context, appointmentID string) (bool, error)
}

// Scheduler は予約ライフサイクルのスケジューリングと並列制御を行う。
// 1分間隔のティッカーで処理対象予約を取得し、semaphoreパターンで
// 最大並列数を制御しながら予約ごとの遷移判定を実行する。
type Scheduler struct {
	appointmentRepo repository.AppointmentRepository
	sessionRepo     repository.SessionRepository
	engine          PaymentEngine
	notifier        notification.Notifier
	metrics         metrics.MetricsCollector
	logger          *slog.Logger
	maxConcurrency  int
	now             func() time.Time
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// maxConcurrencyが0以下の場合はデフォルト値10を使用する。
// notifier・metricsはnilを許容する。
func NewScheduler(
	appointmentRepo repository.AppointmentRepository,
	sessionRepo repository.SessionRepository,
	engine PaymentEngine,
	notifier notification.Notifier,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	maxConcurrency int,
) *Scheduler {
	if maxConcurrency <= 0 {
		maxConcurrency = 10
	}
	if notifier == nil {
		notifier = notification.NopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		appointmentRepo: appointmentRepo,
		sessionRepo:     sessionRepo,
		engine:          engine,
		notifier:        notifier,
		metrics:         collector,
		logger:          logger,
		maxConcurrency:  maxConcurrency,
		now:             time.Now,
	}
}

// SetNowFunc は現在時刻の取得関数を差し替える。テスト用。
func (s *Scheduler) SetNowFunc(now func() time.Time) {
	s.now = now
}

// Start は指定間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("ライフサイクルスケジューラを開始しました",
		slog.Duration("interval", interval),
		slog.Int("max_concurrency", s.maxConcurrency),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("ライフサイクルスケジューラを停止しました")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("ライフサイクルティックの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は処理対象予約を1回取得し、並列で遷移判定を実行する。
// 予約ごとの失敗は他の予約の処理を止めない。ティックの最後に
// 期限切れセッションの掃除も行う。
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()

	appointments, err := s.appointmentRepo.ListActionable(ctx)
	if err != nil {
		return err
	}

	if len(appointments) > 0 {
		sem := make(chan struct{}, s.maxConcurrency)
		var wg sync.WaitGroup

		for _, appointment := range appointments {
			wg.Add(1)
			sem <- struct{}{} // semaphore取得（ブロック）

			go func(a *model.Appointment) {
				defer wg.Done()
				defer func() { <-sem }() // semaphore解放

				if err := s.processAppointment(ctx, a); err != nil {
					if s.metrics != nil {
						s.metrics.RecordProcessFailure()
					}
					s.logger.Error("予約の処理に失敗しました",
						slog.String("appointment_id", a.ID),
						slog.String("status", string(a.Status)),
						slog.String("error", err.Error()),
					)
				}
			}(appointment)
		}

		wg.Wait()
	}

	s.sweepExpiredSessions(ctx)

	duration := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordTickLatency(duration)
	}
	s.logger.Debug("ライフサイクルティックが完了しました",
		slog.Int("appointment_count", len(appointments)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// processAppointment は1予約の遷移判定を行う。
// 条件は固定順で評価され、最初に一致した1つだけが発火する
// （1ティックで2段遷移しない）。定期予約は遷移の有無に関わらず
// 精算起動判定を毎ティック行う（エンジン側のガードで冪等）。
func (s *Scheduler) processAppointment(ctx context.Context, a *model.Appointment) error {
	now := s.now().In(a.Location())

	switch {
	// 1. 開始時刻に達したactiveな予約はongoingへ
	case a.Status == model.AppointmentStatusActive && sameMinute(now, a.StartDate.In(a.Location())):
		if err := s.transition(ctx, a, model.AppointmentStatusOngoing); err != nil {
			return err
		}

	// 2. 終了時刻に達したongoingな単発予約はcompletedにして精算
	case a.Status == model.AppointmentStatusOngoing &&
		a.Type == model.AppointmentTypeOneTime &&
		sameMinute(now, a.EndDate.In(a.Location())):
		if err := s.transition(ctx, a, model.AppointmentStatusCompleted); err != nil {
			return err
		}
		if err := s.engine.ChargeForOneTimeAppointment(ctx, a.ID); err != nil {
			return err
		}
		s.recordTransition(ctx, a, model.AppointmentStatusCompleted, model.AppointmentStatusFinished)

	// 3. 終了時刻（時・分）に達したongoingな定期予約は次回実施に備えてactiveへ
	case a.Status == model.AppointmentStatusOngoing &&
		a.Type == model.AppointmentTypeRecurring &&
		sameClock(now, a.EndDate.In(a.Location())):
		if err := s.transition(ctx, a, model.AppointmentStatusActive); err != nil {
			return err
		}

	// 4. 開始日時を過ぎたactiveな定期予約は実施曜日ならongoingへ
	case a.Status == model.AppointmentStatusActive &&
		a.Type == model.AppointmentTypeRecurring &&
		now.After(a.StartDate) &&
		a.HasWeekday(now.Weekday()):
		if err := s.transition(ctx, a, model.AppointmentStatusOngoing); err != nil {
			return err
		}
	}

	// 精算の起動判定はライフサイクルが開始した予約のみ対象。
	// pendingやpausedの予約は終了日を過ぎていても精算しない。
	if a.Type == model.AppointmentTypeRecurring &&
		(a.Status == model.AppointmentStatusActive || a.Status == model.AppointmentStatusOngoing) {
		settled, err := s.engine.ChargeRecurringPaymentTask(ctx, a.ID)
		if err != nil {
			return err
		}
		if settled {
			s.logger.Info("定期予約の精算を起動しました",
				slog.String("appointment_id", a.ID),
			)
		}
	}

	return nil
}

// transition は予約の状態を更新し、メトリクスと通知を発行する。
// 引数のaは更新後の状態を反映するよう書き換えられる。
func (s *Scheduler) transition(ctx context.Context, a *model.Appointment, to model.AppointmentStatus) error {
	from := a.Status
	if err := s.appointmentRepo.UpdateStatus(ctx, a.ID, to); err != nil {
		return err
	}
	a.Status = to
	s.recordTransition(ctx, a, from, to)
	return nil
}

// recordTransition は遷移のメトリクス記録・ログ出力・通知を行う。
func (s *Scheduler) recordTransition(ctx context.Context, a *model.Appointment, from, to model.AppointmentStatus) {
	if s.metrics != nil {
		s.metrics.RecordTransition(string(from), string(to))
	}
	s.logger.Info("予約の状態を遷移しました",
		slog.String("appointment_id", a.ID),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
	s.notifier.NotifyTransition(ctx, a, from, to)
}

// sweepExpiredSessions は期限切れセッションを削除する。
// 失敗してもティック自体は成功扱いにする。
func (s *Scheduler) sweepExpiredSessions(ctx context.Context) {
	if s.sessionRepo == nil {
		return
	}
	count, err := s.sessionRepo.DeleteExpired(ctx)
	if err != nil {
		s.logger.Error("期限切れセッションの掃除に失敗しました",
			slog.String("error", err.Error()),
		)
		return
	}
	if count > 0 {
		if s.metrics != nil {
			s.metrics.RecordSessionsSwept(count)
		}
		s.logger.Info("期限切れセッションを掃除しました",
			slog.Int64("deleted_count", count),
		)
	}
}

// sameMinute は2つの時刻が同一の分に属するかを返す。
// ティックは1分間隔のため、秒単位の一致ではなく分単位で比較する。
func sameMinute(a, b time.Time) bool {
	return a.Truncate(time.Minute).Equal(b.Truncate(time.Minute))
}

// sameClock は2つの時刻の時・分が一致するかを返す。日付は比較しない。
// 定期予約のサイクル終了判定に使う。
func sameClock(a, b time.Time) bool {
	return a.Hour() == b.Hour() && a.Minute() == b.Minute()
}
