package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tmnkosi/bankgate/internal/models"
	"github.com/tmnkosi/bankgate/internal/services"
	pkgauth "github.com/tmnkosi/bankgate/pkg/auth"
	pkghttp "github.com/tmnkosi/bankgate/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Register(ctx context.Context, input services.RegisterInput) (*models.Account, error)
	Login(ctx context.Context, accountNumber, password string) (*services.LoginResult, error)
}

// AuthHandler handles the register and login flows
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// RegisterRequest represents the request body for registration. The identity
// is the customer's account number.
type RegisterRequest struct {
	Identity string `json:"identity" validate:"required,account_number"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"full_name" validate:"required,full_name"`
	IDNumber string `json:"id_number" validate:"required,id_number"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Identity string `json:"identity" validate:"required,account_number"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the session token
type LoginResponse struct {
	Token string `json:"token"`
}

// Register handles user registration. Success is 201 with no token;
// registration does not auto-login.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	account, err := h.service.Register(r.Context(), services.RegisterInput{
		AccountNumber: req.Identity,
		FullName:      req.FullName,
		IDNumber:      req.IDNumber,
		Password:      req.Password,
	})
	if err != nil {
		var pve *pkgauth.PasswordValidationError
		switch {
		case errors.As(err, &pve):
			pkghttp.WriteBadRequest(w, pve.Error())
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Account already registered")
		case errors.Is(err, models.ErrStoreUnavailable):
			pkghttp.WriteStoreUnavailable(w)
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"message":    "Account registered",
		"account_id": account.ID,
	})
}

// Login handles user login, responding with a session token on success.
// Unknown identity and wrong password are indistinguishable to the caller.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.Login(r.Context(), req.Identity, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidCredentials):
			pkghttp.WriteInvalidCredentials(w)
		case errors.Is(err, models.ErrStoreUnavailable):
			pkghttp.WriteStoreUnavailable(w)
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(LoginResponse{Token: result.Token})
}
