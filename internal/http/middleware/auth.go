package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aanand-mishra/schools-api/internal/utils/response"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const emailKey contextKey = "email"

// Claims is the token payload issued by the credential service.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ErrNoToken is returned when the Authorization header carries no bearer
// token.
var ErrNoToken = errors.New("missing bearer token")

// EmailFromContext returns the email of the authenticated caller.
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailKey).(string)
	return email, ok
}

// RequireAuth rejects requests without a valid HS256 bearer token signed
// with secret. It only answers "logged in or not"; the email claim is put
// on the context for logging.
func RequireAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := ParseToken(r.Header.Get("Authorization"), secret)
			if err != nil {
				response.WriteJSON(w, http.StatusUnauthorized,
					response.GeneralError(fmt.Errorf("unauthorized: %w", err)))
				return
			}

			ctx := context.WithValue(r.Context(), emailKey, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ParseToken validates an "Authorization: Bearer <jwt>" header value.
func ParseToken(header string, secret []byte) (*Claims, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, ErrNoToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	return claims, nil
}
