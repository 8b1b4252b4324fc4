package service

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/bcrypt"
)

func newTestAuth(t *testing.T) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAuthService(string(hash), "test-secret")
}

func TestAuthService_LoginAndValidate(t *testing.T) {
	svc := newTestAuth(t)

	token, err := svc.Login("correct horse")
	require.NoError(t, err)
	assert.NoError(t, svc.ValidateToken(token))
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc := newTestAuth(t)

	_, err := svc.Login("battery staple")
	assert.ErrorIs(t, err, ErrWrongPassword)
}

func TestAuthService_ValidateToken_Tampered(t *testing.T) {
	svc := newTestAuth(t)

	token, err := svc.Login("correct horse")
	require.NoError(t, err)

	parts := strings.SplitN(token, ":", 2)
	forged := strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10) + ":" + parts[1]
	assert.ErrorIs(t, svc.ValidateToken(forged), ErrInvalidToken)

	assert.ErrorIs(t, svc.ValidateToken("garbage"), ErrInvalidToken)
	assert.ErrorIs(t, svc.ValidateToken(""), ErrInvalidToken)
}

func TestAuthService_ValidateToken_Expired(t *testing.T) {
	svc := newTestAuth(t)

	stale := strconv.FormatInt(time.Now().Add(-tokenLifetime-time.Minute).Unix(), 10)
	token := stale + ":" + svc.sign(stale)
	assert.ErrorIs(t, svc.ValidateToken(token), ErrExpiredToken)
}

func TestAuthService_ValidateToken_OtherSecret(t *testing.T) {
	svc := newTestAuth(t)
	other := NewAuthService(svc.passwordHash, "other-secret")

	token, err := svc.Login("correct horse")
	require.NoError(t, err)
	assert.ErrorIs(t, other.ValidateToken(token), ErrInvalidToken)
}
