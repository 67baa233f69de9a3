package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tmnkosi/bankgate/internal/database"
	"github.com/tmnkosi/bankgate/internal/models"
)

// AccountRepository handles credential record persistence
type AccountRepository struct {
	db *database.DB
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// rowScanner interface for scanning account rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccountRow(scanner rowScanner) (*models.Account, error) {
	var account models.Account

	err := scanner.Scan(
		&account.ID, &account.AccountNumber, &account.FullName, &account.IDNumber,
		&account.PasswordHash, &account.Role,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &account, nil
}

// GetByAccountNumber looks up a credential record by identity.
// Returns models.ErrNotFound when no record exists.
func (r *AccountRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	query := `
		SELECT id, account_number, full_name, id_number, password_hash, role, created_at, updated_at
		FROM accounts WHERE account_number = $1
	`

	return scanAccountRow(r.db.Pool.QueryRow(ctx, query, accountNumber))
}

// GetByID looks up a credential record by internal ID
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `
		SELECT id, account_number, full_name, id_number, password_hash, role, created_at, updated_at
		FROM accounts WHERE id = $1
	`

	return scanAccountRow(r.db.Pool.QueryRow(ctx, query, id))
}

// Create inserts a new credential record. The unique constraint on the
// account number makes this insert-if-absent: a duplicate identity comes
// back as models.ErrConflict.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	account.ID = uuid.New().String()

	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	if account.Role == "" {
		account.Role = models.RoleCustomer
	}

	query := `
		INSERT INTO accounts (id, account_number, full_name, id_number, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, account_number, full_name, id_number, password_hash, role, created_at, updated_at
	`

	created, err := scanAccountRow(r.db.Pool.QueryRow(ctx, query,
		account.ID, account.AccountNumber, account.FullName, account.IDNumber,
		account.PasswordHash, account.Role, account.CreatedAt, account.UpdatedAt,
	))
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Delete removes a credential record (administrative action)
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM accounts WHERE id = $1`

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// List returns accounts ordered by creation time (administrative action)
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	query := `
		SELECT id, account_number, full_name, id_number, password_hash, role, created_at, updated_at
		FROM accounts ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]*models.Account, 0)
	for rows.Next() {
		account, err := scanAccountRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return accounts, nil
}
