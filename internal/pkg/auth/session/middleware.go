package session

import (
	"context"
	"net/http"
	"strings"

	"studyhive/internal/pkg/logx"
)

// CookieName is the cookie that carries the session token.
const CookieName = "userId"

type contextKey string

// ContextPayloadKey stores the verified *Payload in the request context.
const ContextPayloadKey contextKey = "session_payload"

// Middleware resolves the session token from the userId cookie, or from an
// "Authorization: Bearer" header, into the request context. A cookie that fails
// to verify falls through to the header. Missing or invalid tokens leave the
// request anonymous; it never answers 401 itself.
func Middleware(secretKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, tokenString := range tokensFromRequest(r) {
				payload, err := ParseToken(tokenString, secretKey)
				if err != nil {
					logx.Warn("Invalid or expired session token", "error", err.Error())
					continue
				}

				next.ServeHTTP(w, r.WithContext(WithPayload(r.Context(), payload)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// tokensFromRequest returns the cookie token first, then the bearer token.
func tokensFromRequest(r *http.Request) []string {
	var tokens []string
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		tokens = append(tokens, cookie.Value)
	}

	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		if bearer := strings.TrimSpace(parts[1]); bearer != "" {
			tokens = append(tokens, bearer)
		}
	}
	return tokens
}

// WithPayload returns a copy of ctx carrying payload.
func WithPayload(ctx context.Context, payload *Payload) context.Context {
	return context.WithValue(ctx, ContextPayloadKey, payload)
}

// GetPayloadFromContext returns the session payload, or nil for anonymous requests.
func GetPayloadFromContext(r *http.Request) *Payload {
	payload, ok := r.Context().Value(ContextPayloadKey).(*Payload)
	if !ok {
		return nil
	}
	return payload
}

// SetCookie writes the session cookie: httpOnly, SameSite=Lax, one year.
func SetCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(Expiration.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func ClearCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
