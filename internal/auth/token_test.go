package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmnkosi/bankgate/internal/models"
)

const testSecret = "test-secret-key-at-least-32-chars-long"

func TestIssueAndVerify(t *testing.T) {
	tm := NewTokenManager(testSecret, 2*time.Hour)

	token, err := tm.Issue("1234567890", models.RoleCustomer)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "1234567890", claims.Identity)
	assert.Equal(t, models.RoleCustomer, claims.Role)
	assert.NotEmpty(t, claims.ID, "each token should carry a unique jti")
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestVerifyExpiredToken(t *testing.T) {
	tm := NewTokenManager(testSecret, -time.Minute)

	token, err := tm.Issue("1234567890", models.RoleCustomer)
	require.NoError(t, err)

	_, err = tm.Verify(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.NotErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyTamperedToken(t *testing.T) {
	tm := NewTokenManager(testSecret, 2*time.Hour)

	token, err := tm.Issue("1234567890", models.RoleCustomer)
	require.NoError(t, err)

	tampered := token[:len(token)-4] + "AAAA"
	_, err = tm.Verify(tampered)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	assert.NotErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := NewTokenManager(testSecret, 2*time.Hour)
	verifier := NewTokenManager("a-completely-different-signing-secret", 2*time.Hour)

	token, err := issuer.Issue("1234567890", models.RoleCustomer)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyMalformedToken(t *testing.T) {
	tm := NewTokenManager(testSecret, 2*time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"wrong segments", "aaaa.bbbb"},
		{"unsigned alg", "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJpZGVudGl0eSI6IjEyMzQ1Njc4OTAifQ."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tm.Verify(tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}

func TestVerifyMissingIdentity(t *testing.T) {
	tm := NewTokenManager(testSecret, 2*time.Hour)

	token, err := tm.Issue("", models.RoleCustomer)
	require.NoError(t, err)

	_, err = tm.Verify(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTokenInvalid))
}
