package payment

import (
	"context"
	"fmt"

	"github.com/hitoshi/careman/internal/model"
	"github.com/hitoshi/careman/internal/repository"
)

// Service は手動取引と取引履歴参照のサービス層。
// 残高のチャージ・引き出しもPaymentRepositoryのトランザクション経由で行い、
// 監査証跡を必ず残す。
type Service struct {
	paymentRepo repository.PaymentRepository
	historyRepo repository.TransactionHistoryRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	paymentRepo repository.PaymentRepository,
	historyRepo repository.TransactionHistoryRepository,
) *Service {
	return &Service{
		paymentRepo: paymentRepo,
		historyRepo: historyRepo,
	}
}

// CreateTransaction は手動取引を作成する。
// incomeは残高へのチャージ、outcomeは残高からの引き出し。
// outcomeで残高が不足する場合はInsufficientFundsエラーを返す。
func (s *Service) CreateTransaction(ctx context.Context, userID string, txType model.TransactionType, amount int64) error {
	if amount <= 0 {
		return model.NewInvalidAmountError(amount)
	}

	switch txType {
	case model.TransactionTypeIncome:
		if err := s.paymentRepo.Credit(ctx, userID, "", amount); err != nil {
			return err
		}
	case model.TransactionTypeOutcome:
		if err := s.paymentRepo.Debit(ctx, userID, "", amount); err != nil {
			return err
		}
	default:
		return fmt.Errorf("未知の取引種別です: %s", txType)
	}

	return nil
}

// ListTransactionHistory はユーザーの取引履歴を返す。
func (s *Service) ListTransactionHistory(ctx context.Context, userID string) ([]*model.TransactionHistory, error) {
	histories, err := s.historyRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("取引履歴の取得に失敗しました: %w", err)
	}
	return histories, nil
}
