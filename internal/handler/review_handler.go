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

// ReviewServiceInterface はレビューハンドラーが必要とするサービスインターフェース。
type ReviewServiceInterface interface {
	Create(ctx context.Context, appointmentID, userID string, rating int, comment string) (*model.Review, error)
	ListByCaregiver(ctx context.Context, caregiverInfoID string) ([]*model.Review, error)
}

// ReviewHandler はレビューのHTTPハンドラー。
type ReviewHandler struct {
	service ReviewServiceInterface
}

// NewReviewHandler はReviewHandlerを生成する。
func NewReviewHandler(service ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// reviewResponse はレビューのAPIレスポンス。
type reviewResponse struct {
	ID            string    `json:"id"`
	AppointmentID string    `json:"appointment_id"`
	UserID        string    `json:"user_id"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// createReviewRequest はレビュー投稿リクエストのボディ。
type createReviewRequest struct {
	AppointmentID string `json:"appointment_id"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
}

// Create は予約に対するレビューを投稿する。
// POST /api/reviews
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	created, err := h.service.Create(r.Context(), req.AppointmentID, userID, req.Rating, req.Comment)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toReviewResponse(created))
}

// ListByCaregiver は介護者に紐づくレビューの一覧を返す。
// GET /api/caregivers/:id/reviews
func (h *ReviewHandler) ListByCaregiver(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorized(w)
		return
	}

	reviews, err := h.service.ListByCaregiver(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]reviewResponse, len(reviews))
	for i, rv := range reviews {
		responses[i] = toReviewResponse(rv)
	}
	writeJSON(w, http.StatusOK, responses)
}

// toReviewResponse はmodel.ReviewからAPIレスポンスに変換する。
func toReviewResponse(rv *model.Review) reviewResponse {
	return reviewResponse{
		ID:            rv.ID,
		AppointmentID: rv.AppointmentID,
		UserID:        rv.UserID,
		Rating:        rv.Rating,
		Comment:       rv.Comment,
		CreatedAt:     rv.CreatedAt,
	}
}
