package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/careman/internal/model"
)

type mockHistoryRepo struct {
	listByUserIDFn func(ctx context.Context, userID string) ([]*model.TransactionHistory, error)
}

func (m *mockHistoryRepo) ListByUserID(ctx context.Context, userID string) ([]*model.TransactionHistory, error) {
	return m.listByUserIDFn(ctx, userID)
}

// TestService_CreateTransaction は手動取引の残高反映を検証する。
func TestService_CreateTransaction(t *testing.T) {
	tests := []struct {
		name        string
		txType      model.TransactionType
		amount      int64
		wantBalance int64
	}{
		{"チャージ", model.TransactionTypeIncome, 50, 150},
		{"引き出し", model.TransactionTypeOutcome, 30, 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paymentRepo := newFakePaymentRepo(map[string]int64{"user-1": 100})
			service := NewService(paymentRepo, &mockHistoryRepo{})

			if err := service.CreateTransaction(context.Background(), "user-1", tt.txType, tt.amount); err != nil {
				t.Fatalf("CreateTransaction returned error: %v", err)
			}
			if got := paymentRepo.balances["user-1"]; got != tt.wantBalance {
				t.Errorf("balance = %d, want %d", got, tt.wantBalance)
			}
		})
	}
}

// TestService_CreateTransaction_InvalidAmount は0以下の金額が拒否されることを検証する。
func TestService_CreateTransaction_InvalidAmount(t *testing.T) {
	paymentRepo := newFakePaymentRepo(map[string]int64{"user-1": 100})
	service := NewService(paymentRepo, &mockHistoryRepo{})

	for _, amount := range []int64{0, -10} {
		err := service.CreateTransaction(context.Background(), "user-1", model.TransactionTypeIncome, amount)
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidAmount {
			t.Errorf("amount=%d: error = %v, want APIError with code %s", amount, err, model.ErrCodeInvalidAmount)
		}
	}
	if got := paymentRepo.balances["user-1"]; got != 100 {
		t.Errorf("balance = %d, want 100", got)
	}
}

// TestService_CreateTransaction_InsufficientFunds は残高を超える引き出しが
// 拒否されることを検証する。
func TestService_CreateTransaction_InsufficientFunds(t *testing.T) {
	paymentRepo := newFakePaymentRepo(map[string]int64{"user-1": 20})
	service := NewService(paymentRepo, &mockHistoryRepo{})

	err := service.CreateTransaction(context.Background(), "user-1", model.TransactionTypeOutcome, 50)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInsufficientFunds {
		t.Fatalf("error = %v, want insufficient funds", err)
	}
	if got := paymentRepo.balances["user-1"]; got != 20 {
		t.Errorf("balance = %d, want 20", got)
	}
}

// TestService_ListTransactionHistory は取引履歴の取得を検証する。
func TestService_ListTransactionHistory(t *testing.T) {
	historyRepo := &mockHistoryRepo{
		listByUserIDFn: func(ctx context.Context, userID string) ([]*model.TransactionHistory, error) {
			return []*model.TransactionHistory{
				{ID: "tx-1", UserID: userID, Type: model.TransactionTypeOutcome, Amount: 60},
				{ID: "tx-2", UserID: userID, Type: model.TransactionTypeIncome, Amount: 100},
			}, nil
		},
	}
	service := NewService(newFakePaymentRepo(nil), historyRepo)

	histories, err := service.ListTransactionHistory(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListTransactionHistory returned error: %v", err)
	}
	if len(histories) != 2 {
		t.Fatalf("len(histories) = %d, want 2", len(histories))
	}
}
