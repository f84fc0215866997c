package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/careman/internal/model"
	"github.com/hitoshi/careman/internal/repository"
	"github.com/hitoshi/careman/internal/security"
)

// transitionPayload はWebhookに送信されるJSONボディ。
type transitionPayload struct {
	AppointmentID   string `json:"appointment_id"`
	AppointmentName string `json:"appointment_name"`
	FromStatus      string `json:"from_status"`
	ToStatus        string `json:"to_status"`
	OccurredAt      string `json:"occurred_at"`
}

// WebhookNotifier は利用者が登録したWebhook URLへ状態遷移を通知する。
// URLはユーザー入力のため、SSRF防止付きのHTTPクライアントで送信する。
type WebhookNotifier struct {
	userRepo   repository.UserRepository
	client     *http.Client
	defaultURL string
	logger     *slog.Logger
}

// NewWebhookNotifier はWebhookNotifierの新しいインスタンスを生成する。
// defaultURLはユーザー個別のWebhook URLが未登録の場合の送信先（空なら送信しない）。
func NewWebhookNotifier(
	userRepo repository.UserRepository,
	guard security.WebhookGuardService,
	defaultURL string,
	timeout time.Duration,
	logger *slog.Logger,
) *WebhookNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookNotifier{
		userRepo:   userRepo,
		client:     guard.NewSafeClient(timeout),
		defaultURL: defaultURL,
		logger:     logger,
	}
}

// NotifyTransition は予約の利用者のWebhook URLへ遷移イベントをPOSTする。
// 配送失敗はWARNログに記録されるのみで、呼び出し元には伝搬しない。
func (n *WebhookNotifier) NotifyTransition(ctx context.Context, appointment *model.Appointment, from, to model.AppointmentStatus) {
	url, err := n.resolveURL(ctx, appointment.UserID)
	if err != nil {
		n.logger.Warn("通知先の解決に失敗しました",
			slog.String("appointment_id", appointment.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	if url == "" {
		return
	}

	payload := transitionPayload{
		AppointmentID:   appointment.ID,
		AppointmentName: appointment.Name,
		FromStatus:      string(from),
		ToStatus:        string(to),
		OccurredAt:      time.Now().UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Warn("通知ペイロードの生成に失敗しました", slog.String("error", err.Error()))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		n.logger.Warn("通知リクエストの生成に失敗しました", slog.String("error", err.Error()))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("通知の送信に失敗しました",
			slog.String("appointment_id", appointment.ID),
			slog.String("to_status", string(to)),
			slog.String("error", err.Error()),
		)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		n.logger.Warn("通知先がエラーを返しました",
			slog.String("appointment_id", appointment.ID),
			slog.Int("status_code", resp.StatusCode),
		)
		return
	}

	n.logger.Debug("状態遷移を通知しました",
		slog.String("appointment_id", appointment.ID),
		slog.String("from_status", string(from)),
		slog.String("to_status", string(to)),
	)
}

// resolveURL は通知先URLを決定する。ユーザー個別のWebhook URLを優先し、
// 未登録ならデフォルトURLを使う。
func (n *WebhookNotifier) resolveURL(ctx context.Context, userID string) (string, error) {
	user, err := n.userRepo.FindByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user != nil && user.WebhookURL != "" {
		return user.WebhookURL, nil
	}
	return n.defaultURL, nil
}

var _ Notifier = (*WebhookNotifier)(nil)
