package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmnkosi/bankgate/internal/models"
)

// PaymentRepository defines payment persistence operations
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*models.Payment, error)
}

// PaymentService records payment orders submitted by authenticated customers
type PaymentService struct {
	payments PaymentRepository
	accounts AccountRepository
	logger   *slog.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(payments PaymentRepository, accounts AccountRepository, logger *slog.Logger) *PaymentService {
	return &PaymentService{
		payments: payments,
		accounts: accounts,
		logger:   logger,
	}
}

// SubmitInput carries the validated payment fields
type SubmitInput struct {
	Amount      string
	Currency    string
	SwiftBic    string
	Beneficiary string
}

// Submit records a payment order for the identity's account
func (s *PaymentService) Submit(ctx context.Context, accountNumber string, input SubmitInput) (*models.Payment, error) {
	account, err := s.accounts.GetByAccountNumber(ctx, accountNumber)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to resolve account for payment", slog.Any("error", err))
		return nil, models.ErrStoreUnavailable
	}

	payment := &models.Payment{
		AccountID:   account.ID,
		Amount:      input.Amount,
		Currency:    strings.ToUpper(input.Currency),
		SwiftBic:    strings.ToUpper(input.SwiftBic),
		Beneficiary: strings.TrimSpace(input.Beneficiary),
		Reference:   newPaymentReference(),
		Status:      "accepted",
	}

	created, err := s.payments.Create(ctx, payment)
	if err != nil {
		s.logger.Error("failed to record payment", slog.Any("error", err))
		return nil, models.ErrStoreUnavailable
	}

	s.logger.Info("payment accepted",
		slog.String("payment_id", created.ID),
		slog.String("account_id", account.ID),
		slog.String("currency", created.Currency))

	return created, nil
}

// List returns the identity's payment orders, newest first
func (s *PaymentService) List(ctx context.Context, accountNumber string, limit, offset int) ([]*models.Payment, error) {
	account, err := s.accounts.GetByAccountNumber(ctx, accountNumber)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, models.ErrStoreUnavailable
	}

	return s.payments.ListByAccount(ctx, account.ID, limit, offset)
}

// newPaymentReference builds a customer-visible reference from the submission time
func newPaymentReference() string {
	return fmt.Sprintf("PAY-%d", time.Now().UnixNano())
}
