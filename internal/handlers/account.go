package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/tmnkosi/bankgate/internal/auth"
	"github.com/tmnkosi/bankgate/internal/models"
	pkghttp "github.com/tmnkosi/bankgate/pkg/http"
)

// AccountServiceInterface defines the interface for profile lookups
type AccountServiceInterface interface {
	Profile(ctx context.Context, accountNumber string) (*models.Account, error)
}

// AccountHandler serves profile data for authenticated customers
type AccountHandler struct {
	service AccountServiceInterface
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(service AccountServiceInterface) *AccountHandler {
	return &AccountHandler{service: service}
}

// ProfileResponse represents an account in the HTTP response
type ProfileResponse struct {
	ID            string `json:"id"`
	AccountNumber string `json:"account_number"`
	FullName      string `json:"full_name"`
	Role          string `json:"role"`
	CreatedAt     string `json:"created_at"`
}

// Profile returns the caller's credential record, keyed by the identity in
// the verified token claims.
func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaimsFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	account, err := h.service.Profile(r.Context(), claims.Identity)
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
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(ProfileResponse{
		ID:            account.ID,
		AccountNumber: account.AccountNumber,
		FullName:      account.FullName,
		Role:          account.Role,
		CreatedAt:     account.CreatedAt.Format(time.RFC3339),
	})
}
