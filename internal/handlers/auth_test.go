package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmnkosi/bankgate/internal/auth"
	"github.com/tmnkosi/bankgate/internal/handlers"
	"github.com/tmnkosi/bankgate/internal/ledger"
	"github.com/tmnkosi/bankgate/internal/middleware"
	"github.com/tmnkosi/bankgate/internal/models"
	"github.com/tmnkosi/bankgate/internal/services"
	pkghttp "github.com/tmnkosi/bankgate/pkg/http"
	pkglogger "github.com/tmnkosi/bankgate/pkg/logger"
)

// memoryAccountRepo backs the handler tests with an in-process credential store.
type memoryAccountRepo struct {
	accounts map[string]*models.Account
}

func newMemoryAccountRepo() *memoryAccountRepo {
	return &memoryAccountRepo{accounts: make(map[string]*models.Account)}
}

func (m *memoryAccountRepo) GetByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	account, ok := m.accounts[accountNumber]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *account
	return &copied, nil
}

func (m *memoryAccountRepo) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	if _, exists := m.accounts[account.AccountNumber]; exists {
		return nil, models.ErrConflict
	}
	stored := *account
	stored.ID = "acct-" + account.AccountNumber
	m.accounts[account.AccountNumber] = &stored
	copied := stored
	return &copied, nil
}

// testGateway wires the register and login endpoints the way main does:
// real service, real ledger, throttle guards in front.
func testGateway(t *testing.T) (http.Handler, *auth.TokenManager) {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	audit := pkglogger.NewAuditLogger(logger)
	ipConfig := &pkghttp.IPConfig{}

	tm := auth.NewTokenManager("test-secret-key-at-least-32-chars-long", 2*time.Hour)
	service := services.NewAuthService(newMemoryAccountRepo(), tm, logger, audit)
	handler := handlers.NewAuthHandler(service)

	loginLedger := ledger.New(ledger.NewMemoryStore(), ledger.Config{
		FreeRetries: 5,
		MinWait:     5 * time.Minute,
		MaxWait:     time.Hour,
		Lifetime:    24 * time.Hour,
		OpTimeout:   time.Second,
	}, logger)
	registerLedger := ledger.New(ledger.NewMemoryStore(), ledger.Config{
		FreeRetries: 3,
		MinWait:     10 * time.Minute,
		MaxWait:     24 * time.Hour,
		Lifetime:    7 * 24 * time.Hour,
		OpTimeout:   time.Second,
	}, logger)

	loginGuard := middleware.NewThrottleGuard("login", loginLedger, ipConfig, audit, logger)
	registerGuard := middleware.NewThrottleGuard("register", registerLedger, ipConfig, audit, logger)

	router := chi.NewRouter()
	router.With(loginGuard.Protect).Post("/api/login", handler.Login)
	router.With(registerGuard.Protect).Post("/api/register", handler.Register)
	return router, tm
}

func postJSON(t *testing.T, router http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "10.0.0.1:54321"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func registerBody(identity string) string {
	return fmt.Sprintf(`{"identity":%q,"password":"Str0ng&Pass1234","full_name":"Alice van der Merwe","id_number":"9001015009087"}`, identity)
}

func loginBody(identity, password string) string {
	return fmt.Sprintf(`{"identity":%q,"password":%q}`, identity, password)
}

func TestRegisterThenDuplicate(t *testing.T) {
	router, _ := testGateway(t)

	rec := postJSON(t, router, "/api/register", registerBody("1234567890"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created["account_id"])
	assert.NotContains(t, rec.Body.String(), "token", "registration must not auto-login")

	rec = postJSON(t, router, "/api/register", registerBody("1234567890"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "conflict")
}

func TestRegisterValidation(t *testing.T) {
	router, _ := testGateway(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{not json`},
		{"identity not numeric", `{"identity":"alice","password":"Str0ng&Pass1234","full_name":"Alice","id_number":"9001015009087"}`},
		{"id number wrong length", `{"identity":"1234567890","password":"Str0ng&Pass1234","full_name":"Alice","id_number":"12345"}`},
		{"full name with digits", `{"identity":"1234567890","password":"Str0ng&Pass1234","full_name":"Alice99","id_number":"9001015009087"}`},
		{"missing password", `{"identity":"1234567890","full_name":"Alice","id_number":"9001015009087"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, router, "/api/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "validation_error")
		})
	}
}

func TestRegisterWeakPassword(t *testing.T) {
	router, _ := testGateway(t)

	body := `{"identity":"1234567890","password":"weakpassword","full_name":"Alice","id_number":"9001015009087"}`
	rec := postJSON(t, router, "/api/register", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, rec.Body.String(), "uppercase",
		"policy details stay out of the response")
}

func TestLoginIssuesToken(t *testing.T) {
	router, tm := testGateway(t)

	rec := postJSON(t, router, "/api/register", registerBody("1234567890"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, router, "/api/login", loginBody("1234567890", "Str0ng&Pass1234"))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	claims, err := tm.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "1234567890", claims.Identity)
}

func TestLoginWrongPassword(t *testing.T) {
	router, _ := testGateway(t)

	rec := postJSON(t, router, "/api/register", registerBody("1234567890"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, router, "/api/login", loginBody("1234567890", "Wr0ng&Pass5678"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_credentials")
}

func TestLoginUnknownIdentityLooksLikeWrongPassword(t *testing.T) {
	router, _ := testGateway(t)

	rec := postJSON(t, router, "/api/register", registerBody("1234567890"))
	require.Equal(t, http.StatusCreated, rec.Code)

	wrongPass := postJSON(t, router, "/api/login", loginBody("1234567890", "Wr0ng&Pass5678"))
	unknown := postJSON(t, router, "/api/login", loginBody("9999999999", "Wr0ng&Pass5678"))

	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.JSONEq(t, wrongPass.Body.String(), unknown.Body.String())
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	router, _ := testGateway(t)

	rec := postJSON(t, router, "/api/register", registerBody("1234567890"))
	require.Equal(t, http.StatusCreated, rec.Code)

	// Five wrong passwords burn the free retries
	for i := 0; i < 5; i++ {
		rec := postJSON(t, router, "/api/login", loginBody("1234567890", "Wr0ng&Pass5678"))
		require.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d", i+1)
	}

	// The sixth failure trips the lockout
	rec = postJSON(t, router, "/api/login", loginBody("1234567890", "Wr0ng&Pass5678"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Locked now, even with the correct password
	rec = postJSON(t, router, "/api/login", loginBody("1234567890", "Str0ng&Pass1234"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var resp pkghttp.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "rate_limited", resp.Error)
	assert.Greater(t, resp.RetryAfter, 0)
}

func TestLoginSuccessResetsFailures(t *testing.T) {
	router, _ := testGateway(t)

	rec := postJSON(t, router, "/api/register", registerBody("1234567890"))
	require.Equal(t, http.StatusCreated, rec.Code)

	// A couple of failures, then a success
	for i := 0; i < 2; i++ {
		rec := postJSON(t, router, "/api/login", loginBody("1234567890", "Wr0ng&Pass5678"))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec = postJSON(t, router, "/api/login", loginBody("1234567890", "Str0ng&Pass1234"))
	require.Equal(t, http.StatusOK, rec.Code)

	// The budget is fresh again: five more failures before a lockout
	for i := 0; i < 5; i++ {
		rec := postJSON(t, router, "/api/login", loginBody("1234567890", "Wr0ng&Pass5678"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d", i+1)
	}
}

func TestLoginAndRegisterCountersAreSeparate(t *testing.T) {
	router, _ := testGateway(t)

	rec := postJSON(t, router, "/api/register", registerBody("1234567890"))
	require.Equal(t, http.StatusCreated, rec.Code)

	// Lock out login for this identity+origin
	for i := 0; i < 6; i++ {
		postJSON(t, router, "/api/login", loginBody("1234567890", "Wr0ng&Pass5678"))
	}
	rec = postJSON(t, router, "/api/login", loginBody("1234567890", "Str0ng&Pass1234"))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Registration for the same identity+origin is governed by its own
	// counter and still reaches the handler.
	rec = postJSON(t, router, "/api/register", registerBody("1234567890"))
	assert.Equal(t, http.StatusConflict, rec.Code)
}
