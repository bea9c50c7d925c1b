package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"shootops/internal/account"
	"shootops/pkg/config"
)

type SessionClaims struct {
	jwt.RegisteredClaims

	// Role is carried in the token for display; the account row in the DB
	// remains authoritative for capability checks.
	Role string `json:"role,omitempty"`
}

// VerifySessionToken verifies an HS256 session token and returns the account
// id from the subject claim.
func VerifySessionToken(tokenString, secret string, now time.Time) (string, error) {
	if tokenString == "" {
		return "", fmt.Errorf("missing token")
	}
	if secret == "" {
		return "", fmt.Errorf("missing session secret")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	claims := &SessionClaims{}
	tok, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	if !tok.Valid {
		return "", fmt.Errorf("invalid token")
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(now) {
		return "", fmt.Errorf("token expired")
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("missing subject")
	}
	return claims.Subject, nil
}

// SessionAuth authenticates requests and attaches the caller account to the
// request context.
//
// Expected header:
// - Authorization: Bearer <JWT>
//
// In dev, if Authorization is missing, X-Account-Email can identify the
// caller to keep local testing simple.
func SessionAuth(cfg config.Config, accounts *account.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				token := strings.TrimSpace(authz[7:])
				accountID, err := VerifySessionToken(token, cfg.SessionSecret, time.Now())
				if err != nil {
					WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid session token")
					return
				}

				a, err := accounts.GetByID(r.Context(), accountID)
				if err != nil {
					WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unknown account")
					return
				}

				next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), a)))
				return
			}

			// Dev fallback
			if cfg.AppEnv != "prod" {
				email := strings.TrimSpace(r.Header.Get("X-Account-Email"))
				if email != "" {
					a, err := accounts.FindByEmail(r.Context(), email)
					if err != nil {
						WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unknown account")
						return
					}
					next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), a)))
					return
				}
			}

			WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session token")
		})
	}
}
