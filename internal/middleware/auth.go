package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"idverify/internal/logger"
)

type ctxKey string

// OperatorKey holds the authenticated operator subject in the request context.
const OperatorKey ctxKey = "operator"

// OperatorAudience is the audience operator tokens must carry.
const OperatorAudience = "idverify-operator"

// IssueOperatorToken signs an HS256 operator token for subject.
func IssueOperatorToken(secret []byte, subject string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("missing operator secret")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Audience:  jwt.ClaimStrings{OperatorAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// OperatorAuth requires a valid "Authorization: Bearer" operator token.
// An empty secret rejects every request.
func OperatorAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokStr, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(tokStr) == "" || len(secret) == 0 {
				unauthorized(w)
				return
			}
			var claims jwt.RegisteredClaims
			parsed, err := jwt.ParseWithClaims(strings.TrimSpace(tokStr), &claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return secret, nil
			}, jwt.WithAudience(OperatorAudience), jwt.WithExpirationRequired())
			if err != nil || !parsed.Valid || claims.Subject == "" {
				logger.Ctx(r.Context()).Warn("operator token rejected", zap.Error(err))
				unauthorized(w)
				return
			}
			ctx := context.WithValue(r.Context(), OperatorKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"status":"Unauthorized","message":"unauthorized"}` + "\n"))
}
