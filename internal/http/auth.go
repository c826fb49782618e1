package httpapi

import (
	"context"
	"net/http"
	"strings"

	"studyhive-backend-go/internal/services"
)

type contextKey string

const (
	ctxUserID contextKey = "userID"
	ctxEmail  contextKey = "email"
	ctxName   contextKey = "name"
	ctxRole   contextKey = "role"
)

const accessCookieName = "accessToken"

// bearerOrCookie pulls the access token from the Authorization header,
// falling back to the httpOnly cookie set at login.
func bearerOrCookie(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if cookie, err := r.Cookie(accessCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func WithAuth(tokenService services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerOrCookie(r)
			if tokenStr == "" {
				WriteError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			token, claims, err := tokenService.ParseToken(tokenStr)
			if err != nil || !token.Valid || claims["typ"] != "access" {
				WriteError(w, http.StatusUnauthorized, "Invalid or expired access token")
				return
			}
			userID, _ := claims["sub"].(string)
			email, _ := claims["email"].(string)
			name, _ := claims["name"].(string)
			role, _ := claims["role"].(string)
			if userID == "" {
				WriteError(w, http.StatusUnauthorized, "Invalid or expired access token")
				return
			}
			ctx := context.WithValue(r.Context(), ctxUserID, userID)
			ctx = context.WithValue(ctx, ctxEmail, email)
			ctx = context.WithValue(ctx, ctxName, name)
			ctx = context.WithValue(ctx, ctxRole, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func CurrentUserID(r *http.Request) string {
	if value, ok := r.Context().Value(ctxUserID).(string); ok {
		return value
	}
	return ""
}

func CurrentEmail(r *http.Request) string {
	if value, ok := r.Context().Value(ctxEmail).(string); ok {
		return value
	}
	return ""
}

func CurrentName(r *http.Request) string {
	if value, ok := r.Context().Value(ctxName).(string); ok {
		return value
	}
	return ""
}

func CurrentRole(r *http.Request) string {
	if value, ok := r.Context().Value(ctxRole).(string); ok {
		return value
	}
	return ""
}

func RequireRole(role string) func(http.Handler) http.Handler {
	return RequireAnyRole(role)
}

func RequireAnyRole(roles ...string) func(http.Handler) http.Handler {
	allowed := map[string]bool{}
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowed[CurrentRole(r)] {
				next.ServeHTTP(w, r)
				return
			}
			WriteError(w, http.StatusForbidden, "You are not allowed to perform this action")
		})
	}
}
