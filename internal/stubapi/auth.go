package stubapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/flyeazy/flyeazy-client/internal/gateway"
	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// TokenTTL is the lifetime of issued tokens
const TokenTTL = 24 * time.Hour

// Claims is the token payload
type Claims struct {
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

type ctxKey struct{}

// IssueToken signs a token for user valid for ttl from now
func (h *Handler) IssueToken(user models.User, ttl time.Duration) (string, error) {
	now := h.now()
	claims := Claims{
		UserID:  user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		h.log.Error("Failed to sign token", zap.String("userId", user.ID), zap.Error(err))
		return "", err
	}
	return token, nil
}

func (h *Handler) parseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return h.secret, nil
	}, jwt.WithTimeFunc(h.now))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}

// requireAuth rejects requests without a valid auth-token header
func (h *Handler) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(gateway.AuthHeader)
		if raw == "" {
			respondError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		claims, err := h.parseToken(raw)
		if err != nil {
			h.log.Debug("Rejected token", zap.String("path", r.URL.Path), zap.Error(err))
			respondError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, claims)))
	}
}

// requireAdmin is requireAuth plus the admin claim
func (h *Handler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return h.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		if c := claimsFrom(r); c == nil || !c.IsAdmin {
			respondError(w, http.StatusForbidden, "Access Denied: Admins only")
			return
		}
		next(w, r)
	})
}

func claimsFrom(r *http.Request) *Claims {
	c, _ := r.Context().Value(ctxKey{}).(*Claims)
	return c
}
