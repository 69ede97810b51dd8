package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wolfman30/incident-report-ai/internal/tenancy"
)

// UserClaims are the claims the identity provider puts in officer tokens.
type UserClaims struct {
	OrgID string `json:"org_id"`
	jwt.RegisteredClaims
}

// UserJWT verifies an HMAC-signed bearer token and places the org and user
// (the token subject) into the request context.
func UserJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "auth disabled", http.StatusUnauthorized)
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}

			claims := UserClaims{}
			token, err := jwt.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			}, jwt.WithExpirationRequired())
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			userID := strings.TrimSpace(claims.Subject)
			orgID := strings.TrimSpace(claims.OrgID)
			if userID == "" || orgID == "" {
				http.Error(w, "token missing subject or org", http.StatusForbidden)
				return
			}

			ctx := tenancy.WithUserID(tenancy.WithOrgID(r.Context(), orgID), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
