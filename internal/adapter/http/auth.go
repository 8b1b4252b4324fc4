package http

import (
	"encoding/json"
	"net/http"
	"strings"
)

type AuthService interface {
	Login(password string) (string, error)
	ValidateToken(token string) error
}

// AuthMiddleware requires a valid token in the Authorization header. SSE
// clients cannot set headers, so a token query parameter is accepted too.
func AuthMiddleware(authSvc AuthService, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing token"})
			return
		}
		if err := authSvc.ValidateToken(token); err != nil {
			writeError(w, err)
			return
		}
		next(w, r)
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

func LoginHandler(authSvc AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		token, err := authSvc.Login(req.Password)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}
