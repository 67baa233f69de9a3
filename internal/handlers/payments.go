package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/tmnkosi/bankgate/internal/auth"
	"github.com/tmnkosi/bankgate/internal/models"
	"github.com/tmnkosi/bankgate/internal/services"
	pkghttp "github.com/tmnkosi/bankgate/pkg/http"
)

// PaymentServiceInterface defines the interface for payment submission
type PaymentServiceInterface interface {
	Submit(ctx context.Context, accountNumber string, input services.SubmitInput) (*models.Payment, error)
	List(ctx context.Context, accountNumber string, limit, offset int) ([]*models.Payment, error)
}

// PaymentHandler handles payment order submission for authenticated customers
type PaymentHandler struct {
	service PaymentServiceInterface
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(service PaymentServiceInterface) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// SubmitPaymentRequest represents the request body for a payment order
type SubmitPaymentRequest struct {
	Amount      string `json:"amount" validate:"required,amount"`
	Currency    string `json:"currency" validate:"required,currency"`
	SwiftBic    string `json:"swift_bic" validate:"required,swift_bic"`
	Beneficiary string `json:"beneficiary" validate:"required,min=2,max=100"`
}

// PaymentResponse represents an accepted payment order
type PaymentResponse struct {
	ID        string `json:"id"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	SwiftBic  string `json:"swift_bic"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// Submit accepts a payment order after field validation
func (h *PaymentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaimsFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	var req SubmitPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	payment, err := h.service.Submit(r.Context(), claims.Identity, services.SubmitInput{
		Amount:      req.Amount,
		Currency:    req.Currency,
		SwiftBic:    req.SwiftBic,
		Beneficiary: req.Beneficiary,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Account not found")
		case errors.Is(err, models.ErrStoreUnavailable):
			pkghttp.WriteStoreUnavailable(w)
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(paymentToResponse(payment))
}

// List returns the caller's payment orders
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaimsFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	payments, err := h.service.List(r.Context(), claims.Identity, limit, offset)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Account not found")
		case errors.Is(err, models.ErrStoreUnavailable):
			pkghttp.WriteStoreUnavailable(w)
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	resp := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		resp = append(resp, paymentToResponse(p))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

func paymentToResponse(p *models.Payment) PaymentResponse {
	return PaymentResponse{
		ID:        p.ID,
		Amount:    p.Amount,
		Currency:  p.Currency,
		SwiftBic:  p.SwiftBic,
		Reference: p.Reference,
		Status:    p.Status,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

func queryInt(r *http.Request, name string, defaultVal int) int {
	if value := r.URL.Query().Get(name); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}
