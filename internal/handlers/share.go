package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"idverify/internal/db"
	"idverify/internal/models"
)

const invalidLink = "This verification link is invalid or has expired."

type shareClaims struct {
	VerificationID string `json:"verification_id"`
	jwt.RegisteredClaims
}

type generateShareLinkResp struct {
	ShareableURL string    `json:"shareable_url"`
	QRCodeURL    string    `json:"qrcode_url"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// GenerateShareLink: POST /api/v1/verifications/{id}/share-link
// Body: {"expires_in_hours": n}; the value may be a number or a string.
func (a *API) GenerateShareLink(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		writeJSONResp(w, http.StatusServiceUnavailable, map[string]any{"status": "Unavailable", "message": "verification storage is disabled"})
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		badRequest(w, "missing id")
		return
	}

	// Be liberal in what we accept from the frontend
	var payload map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&payload); err != nil {
		badRequest(w, "invalid json")
		return
	}
	expires := 0
	for _, key := range []string{"expires_in_hours", "expiresInHours", "duration"} {
		if v, ok := payload[key]; ok {
			if i, ok := parseHours(v); ok {
				expires = i
			}
			break
		}
	}
	if expires < 1 || expires > a.maxHours {
		badRequest(w, fmt.Sprintf("expires_in_hours must be between 1 and %d", a.maxHours))
		return
	}

	if _, err := a.store.Get(r.Context(), id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeJSONResp(w, http.StatusNotFound, map[string]any{"status": "Not_Found", "message": "verification not found"})
			return
		}
		a.logFor(r.Context()).Error("failed to load verification", zap.String("id", id), zap.Error(err))
		serverError(w, "database error")
		return
	}
	if len(a.secret) == 0 {
		serverError(w, "server misconfigured")
		return
	}

	exp := time.Now().Add(time.Duration(expires) * time.Hour)
	claims := shareClaims{
		VerificationID: id,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		serverError(w, "failed to sign share token")
		return
	}
	writeJSONResp(w, http.StatusOK, generateShareLinkResp{
		ShareableURL: a.shareURL(id, signed),
		QRCodeURL:    fmt.Sprintf("/api/v1/verifications/%s/qrcode?token=%s", id, signed),
		ExpiresAt:    exp.UTC(),
	})
}

// GetVerificationInfo: GET /api/v1/verifications/{id}?token=...
func (a *API) GetVerificationInfo(w http.ResponseWriter, r *http.Request) {
	id, claims, ok := a.authorizeShare(w, r)
	if !ok {
		return
	}
	rec, err := a.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeJSONResp(w, http.StatusNotFound, map[string]any{"status": "Not_Found", "message": "verification not found"})
			return
		}
		a.logFor(r.Context()).Error("failed to load verification", zap.String("id", id), zap.Error(err))
		serverError(w, "database error")
		return
	}
	writeJSONResp(w, http.StatusOK, map[string]any{
		"verification": rec,
		"valid_until":  claims.ExpiresAt.Time,
	})
}

// ListVerifications: GET /api/v1/verifications?limit=&recommendation=
// Operator-only listing of recent summaries.
func (a *API) ListVerifications(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		writeJSONResp(w, http.StatusServiceUnavailable, map[string]any{"status": "Unavailable", "message": "verification storage is disabled"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rec := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("recommendation")))
	recs, err := a.store.Recent(r.Context(), limit, models.Recommendation(rec))
	if err != nil {
		a.logFor(r.Context()).Error("failed to list verifications", zap.Error(err))
		serverError(w, "database error")
		return
	}
	writeJSONResp(w, http.StatusOK, map[string]any{"verifications": recs, "count": len(recs)})
}

// authorizeShare checks the ?token= share token against the {id} path
// parameter. On failure it has already written the response.
func (a *API) authorizeShare(w http.ResponseWriter, r *http.Request) (string, *shareClaims, bool) {
	if a.store == nil {
		writeJSONResp(w, http.StatusServiceUnavailable, map[string]any{"status": "Unavailable", "message": "verification storage is disabled"})
		return "", nil, false
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		badRequest(w, "missing id")
		return "", nil, false
	}
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		writeJSONResp(w, http.StatusUnauthorized, map[string]any{"status": "Unauthorized", "message": invalidLink})
		return "", nil, false
	}
	if len(a.secret) == 0 {
		serverError(w, "server misconfigured")
		return "", nil, false
	}

	claims, err := a.parseShareToken(tokenStr)
	if err != nil {
		writeJSONResp(w, http.StatusUnauthorized, map[string]any{"status": "Unauthorized", "message": invalidLink})
		return "", nil, false
	}
	if claims.VerificationID != id {
		writeJSONResp(w, http.StatusForbidden, map[string]any{"status": "Forbidden", "message": "forbidden: id mismatch"})
		return "", nil, false
	}
	return id, claims, true
}

func (a *API) parseShareToken(tokenStr string) (*shareClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &shareClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, errors.New("invalid share token")
	}
	claims, ok := parsed.Claims.(*shareClaims)
	if !ok || claims.VerificationID == "" {
		return nil, errors.New("invalid share token")
	}
	return claims, nil
}

func (a *API) shareURL(id, token string) string {
	return fmt.Sprintf("%s/verify/%s?token=%s", a.baseURL, id, token)
}

// parseHours accepts a JSON number or a numeric string.
func parseHours(x any) (int, bool) {
	switch t := x.(type) {
	case float64:
		return int(t), true
	case json.Number:
		if i, err := strconv.Atoi(t.String()); err == nil {
			return i, true
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return i, true
		}
	}
	return 0, false
}
