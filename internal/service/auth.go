package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("expired token")
	ErrWrongPassword = errors.New("wrong password")
)

const tokenLifetime = 7 * 24 * time.Hour

// AuthService authenticates the single admin account. The password hash
// comes from configuration; tokens are HMAC-signed timestamps.
type AuthService struct {
	passwordHash string
	secretKey    string
}

func NewAuthService(passwordHash, secretKey string) *AuthService {
	return &AuthService{
		passwordHash: passwordHash,
		secretKey:    secretKey,
	}
}

func (s *AuthService) Login(password string) (string, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		return "", ErrWrongPassword
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	return timestamp + ":" + s.sign(timestamp), nil
}

func (s *AuthService) ValidateToken(token string) error {
	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return ErrInvalidToken
	}
	timestamp, signature := parts[0], parts[1]

	if !hmac.Equal([]byte(signature), []byte(s.sign(timestamp))) {
		return ErrInvalidToken
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrInvalidToken
	}
	if time.Now().After(time.Unix(ts, 0).Add(tokenLifetime)) {
		return ErrExpiredToken
	}
	return nil
}

func (s *AuthService) sign(timestamp string) string {
	mac := hmac.New(sha256.New, []byte(s.secretKey))
	mac.Write([]byte(timestamp))
	return base64.URLEncoding.EncodeToString(mac.Sum(nil))
}
