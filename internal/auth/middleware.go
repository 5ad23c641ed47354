package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pawkart/backend/internal/common"
)

// Middleware resolves the request identity: a verified user id when a
// bearer token is present, otherwise a guest session id from a cookie.
type Middleware struct {
	Service       *Service
	SessionCookie string
	SecureCookies bool
}

// Identify always attaches a common.Identity to the context. Guests
// without a session cookie get one minted so their cart key is stable.
func (m Middleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := m.extractToken(r); token != "" && m.Service != nil {
			if userID, err := m.Service.ParseAccessToken(token); err == nil {
				ctx := common.WithIdentity(r.Context(), common.Identity{UserID: userID})
				ctx = common.WithUserID(ctx, userID)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}
		sessionID := m.guestSession(w, r)
		ctx := common.WithIdentity(r.Context(), common.Identity{SessionID: sessionID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser rejects requests that did not authenticate.
func (m Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := common.IdentityFrom(r.Context())
		if !ok || !identity.Authenticated() {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m Middleware) extractToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func (m Middleware) guestSession(w http.ResponseWriter, r *http.Request) string {
	name := m.SessionCookie
	if name == "" {
		name = "cart_session"
	}
	if cookie, err := r.Cookie(name); err == nil {
		if value := strings.TrimSpace(cookie.Value); value != "" {
			return value
		}
	}
	sessionID := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int((30 * 24 * 3600)),
	})
	return sessionID
}
