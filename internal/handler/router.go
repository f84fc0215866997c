package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/careman/internal/metrics"
	"github.com/hitoshi/careman/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 予約
	AppointmentService AppointmentServiceInterface
	UserGetter         UserGetter

	// 活動記録
	ActivityLogService ActivityLogServiceInterface

	// 決済
	PaymentService PaymentServiceInterface

	// レビュー
	ReviewService ReviewServiceInterface

	// メトリクス
	MetricsGatherer prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → SessionMiddleware → RateLimitMiddleware(GeneralMiddleware)
//
// 認証ルート（/auth/*）とヘルスチェック、メトリクスはミドルウェアチェーンの外に配置する。
// 決済ルートは決済専用のレート制限を追加で通す。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルート共通のミドルウェア。Recoveryを最上位に置き、
	// 後続ミドルウェアのpanicも捕捉する。
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	appointmentHandler := NewAppointmentHandler(deps.AppointmentService, deps.UserGetter)
	activityLogHandler := NewActivityLogHandler(deps.ActivityLogService)
	paymentHandler := NewPaymentHandler(deps.PaymentService)
	reviewHandler := NewReviewHandler(deps.ReviewService)

	// --- 認証不要のルート ---

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 予約管理
		r.Route("/api/appointments", func(r chi.Router) {
			r.Post("/", appointmentHandler.Create)
			r.Get("/", appointmentHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", appointmentHandler.Get)
				r.Patch("/", appointmentHandler.Update)

				// GET /api/appointments/{id}/activity-logs - 予約ごとの活動記録一覧
				r.Get("/activity-logs", activityLogHandler.ListByAppointment)
			})
		})

		// 活動記録
		r.Route("/api/activity-logs", func(r chi.Router) {
			r.Post("/", activityLogHandler.Create)
			r.Patch("/{id}", activityLogHandler.UpdateStatus)
		})

		// 決済（決済専用レート制限を追加）
		r.Route("/api/payment", func(r chi.Router) {
			r.With(deps.RateLimiter.PaymentMiddleware()).Post("/", paymentHandler.CreateTransaction)
			r.Get("/transaction-history/{userID}", paymentHandler.ListTransactionHistory)
		})

		// レビュー
		r.Post("/api/reviews", reviewHandler.Create)
		r.Get("/api/caregivers/{id}/reviews", reviewHandler.ListByCaregiver)
	})

	return r
}
