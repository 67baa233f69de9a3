package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tmnkosi/bankgate/internal/models"
)

// AccountService serves profile lookups for authenticated customers
type AccountService struct {
	repo   AccountRepository
	logger *slog.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(repo AccountRepository, logger *slog.Logger) *AccountService {
	return &AccountService{repo: repo, logger: logger}
}

// Profile returns the credential record for an identity, without the hash.
func (s *AccountService) Profile(ctx context.Context, accountNumber string) (*models.Account, error) {
	account, err := s.repo.GetByAccountNumber(ctx, accountNumber)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load profile", slog.Any("error", err))
		return nil, models.ErrStoreUnavailable
	}

	account.PasswordHash = ""
	return account, nil
}
