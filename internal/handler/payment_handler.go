package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/careman/internal/middleware"
	"github.com/hitoshi/careman/internal/model"
)

// PaymentServiceInterface は決済ハンドラーが必要とするサービスインターフェース。
type PaymentServiceInterface interface {
	CreateTransaction(ctx context.Context, userID string, txType model.TransactionType, amount int64) error
	ListTransactionHistory(ctx context.Context, userID string) ([]*model.TransactionHistory, error)
}

// PaymentHandler は入出金操作のHTTPハンドラー。
type PaymentHandler struct {
	service PaymentServiceInterface
}

// NewPaymentHandler はPaymentHandlerを生成する。
func NewPaymentHandler(service PaymentServiceInterface) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// createTransactionRequest は入出金リクエストのボディ。
type createTransactionRequest struct {
	Type   string `json:"type"`
	Amount int64  `json:"amount"`
}

// transactionHistoryResponse は取引履歴のAPIレスポンス。
type transactionHistoryResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateTransaction はログインユーザーの入金または出金を実行する。
// POST /api/payment
func (h *PaymentHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	txType := model.TransactionType(req.Type)
	if txType != model.TransactionTypeIncome && txType != model.TransactionTypeOutcome {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "取引種別はincomeまたはoutcomeを指定してください。",
			Category: "validation",
			Action:   "typeフィールドを確認してください。",
		})
		return
	}

	if err := h.service.CreateTransaction(r.Context(), userID, txType, req.Amount); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListTransactionHistory はユーザーの取引履歴を新しい順に返す。
// 自分以外の履歴は参照できない。
// GET /api/payment/transaction-history/:userID
func (h *PaymentHandler) ListTransactionHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	targetID := chi.URLParam(r, "userID")
	if targetID != userID {
		writeAPIErrorResponse(w, http.StatusForbidden, &model.APIError{
			Code:     "FORBIDDEN",
			Message:  "他のユーザーの取引履歴は参照できません。",
			Category: "auth",
			Action:   "自分のユーザーIDを指定してください。",
		})
		return
	}

	histories, err := h.service.ListTransactionHistory(r.Context(), targetID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]transactionHistoryResponse, len(histories))
	for i, th := range histories {
		responses[i] = transactionHistoryResponse{
			ID:        th.ID,
			UserID:    th.UserID,
			Type:      string(th.Type),
			Amount:    th.Amount,
			CreatedAt: th.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, responses)
}
