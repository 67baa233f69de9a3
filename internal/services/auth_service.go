package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/tmnkosi/bankgate/internal/auth"
	"github.com/tmnkosi/bankgate/internal/models"
	pkgauth "github.com/tmnkosi/bankgate/pkg/auth"
	pkglogger "github.com/tmnkosi/bankgate/pkg/logger"
)

// AccountRepository defines the credential store operations the gateway needs
type AccountRepository interface {
	GetByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
}

// dummyHash is compared against when the identity does not exist, so lookup
// misses and password mismatches take comparable time.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// AuthService composes the credential store, password hasher, and token
// issuer into the register and login flows.
type AuthService struct {
	repo   AccountRepository
	tm     *auth.TokenManager
	logger *slog.Logger
	audit  *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(repo AccountRepository, tm *auth.TokenManager, logger *slog.Logger, audit *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		repo:   repo,
		tm:     tm,
		logger: logger,
		audit:  audit,
	}
}

// RegisterInput carries the validated registration fields
type RegisterInput struct {
	AccountNumber string
	FullName      string
	IDNumber      string
	Password      string
}

// LoginResult is the successful login outcome
type LoginResult struct {
	Token string
}

// Register creates a credential record. Registration does not auto-login;
// no token is issued. Returns models.ErrConflict when the identity is taken.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.Account, error) {
	input.AccountNumber = strings.TrimSpace(input.AccountNumber)
	input.FullName = strings.TrimSpace(input.FullName)

	if err := pkgauth.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	// Check identity not already present before hashing; the unique
	// constraint still backstops a concurrent duplicate.
	_, err := s.repo.GetByAccountNumber(ctx, input.AccountNumber)
	if err == nil {
		s.logger.Info("registration failed: identity already exists")
		return nil, models.ErrConflict
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check identity", slog.Any("error", err))
		return nil, models.ErrStoreUnavailable
	}

	hashedPassword, err := pkgauth.HashPassword(input.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	account := &models.Account{
		AccountNumber: input.AccountNumber,
		FullName:      input.FullName,
		IDNumber:      input.IDNumber,
		PasswordHash:  hashedPassword,
		Role:          models.RoleCustomer,
	}

	created, err := s.repo.Create(ctx, account)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create account", slog.Any("error", err))
		return nil, models.ErrStoreUnavailable
	}

	s.logger.Info("account registered", slog.String("account_id", created.ID))
	s.audit.LogAccountAction("account_registered", created.ID, "", nil)

	return created, nil
}

// Login verifies credentials and issues a session token. An unknown identity
// and a wrong password are both models.ErrInvalidCredentials; the caller
// cannot tell which check failed.
func (s *AuthService) Login(ctx context.Context, accountNumber, password string) (*LoginResult, error) {
	accountNumber = strings.TrimSpace(accountNumber)
	if accountNumber == "" || password == "" {
		return nil, models.ErrInvalidCredentials
	}

	account, err := s.repo.GetByAccountNumber(ctx, accountNumber)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkgauth.VerifyPassword(dummyHash, password)
			s.logger.Info("login failed: invalid credentials")
			s.audit.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				FailureReason: "invalid_credentials",
				Success:       false,
			})
			return nil, models.ErrInvalidCredentials
		}
		s.logger.Error("failed to look up identity", slog.Any("error", err))
		return nil, models.ErrStoreUnavailable
	}

	if !pkgauth.VerifyPassword(account.PasswordHash, password) {
		s.logger.Info("login failed: invalid credentials")
		s.audit.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			AccountID:     account.ID,
			FailureReason: "invalid_credentials",
			Success:       false,
		})
		return nil, models.ErrInvalidCredentials
	}

	token, err := s.tm.Issue(account.AccountNumber, account.Role)
	if err != nil {
		s.logger.Error("failed to issue token", slog.String("account_id", account.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("login succeeded", slog.String("account_id", account.ID))
	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		AccountID: account.ID,
		Success:   true,
	})

	return &LoginResult{Token: token}, nil
}
