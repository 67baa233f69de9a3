package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tmnkosi/bankgate/internal/database"
	"github.com/tmnkosi/bankgate/internal/models"
)

// PaymentRepository persists accepted payment orders
type PaymentRepository struct {
	db *database.DB
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db *database.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create records an accepted payment order
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	payment.ID = uuid.New().String()
	payment.CreatedAt = time.Now()
	if payment.Status == "" {
		payment.Status = "accepted"
	}

	query := `
		INSERT INTO payments (id, account_id, amount, currency, swift_bic, beneficiary, reference, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		payment.ID, payment.AccountID, payment.Amount, payment.Currency,
		payment.SwiftBic, payment.Beneficiary, payment.Reference,
		payment.Status, payment.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return payment, nil
}

// ListByAccount returns an account's payment orders, newest first
func (r *PaymentRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*models.Payment, error) {
	query := `
		SELECT id, account_id, amount, currency, swift_bic, beneficiary, reference, status, created_at
		FROM payments WHERE account_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	payments := make([]*models.Payment, 0)
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(
			&p.ID, &p.AccountID, &p.Amount, &p.Currency, &p.SwiftBic,
			&p.Beneficiary, &p.Reference, &p.Status, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return payments, nil
}
