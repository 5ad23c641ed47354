package common

import (
	"context"
	"strings"
)

type ctxKey string

const identityKey ctxKey = "request/identity"

// Identity describes who is pricing or placing an order. Either UserID is set
// (authenticated) or SessionID is (guest). Guest checkouts additionally carry
// the email given at checkout time.
type Identity struct {
	UserID     string
	SessionID  string
	GuestEmail string
}

// Authenticated reports whether the identity belongs to a signed-in user.
func (id Identity) Authenticated() bool { return id.UserID != "" }

// CouponKey returns the stable key used to enforce per-customer coupon use:
// the user id when signed in, otherwise the normalized guest email.
func (id Identity) CouponKey() string {
	if id.UserID != "" {
		return id.UserID
	}
	return NormalizeEmail(id.GuestEmail)
}

// CartKey returns the owner key for cart storage.
func (id Identity) CartKey() string {
	if id.UserID != "" {
		return "user:" + id.UserID
	}
	return "session:" + id.SessionID
}

// NormalizeEmail lowercases and trims an email so the same address always
// maps to the same usage record.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// WithIdentity stores the request identity on the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom extracts the request identity from the context if present.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	v := ctx.Value(identityKey)
	if v == nil {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// WithUserID stores an authenticated user identifier on the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	id, _ := IdentityFrom(ctx)
	id.UserID = userID
	return WithIdentity(ctx, id)
}

// UserID extracts the authenticated user identifier from the context.
func UserID(ctx context.Context) (string, bool) {
	id, ok := IdentityFrom(ctx)
	if !ok || id.UserID == "" {
		return "", false
	}
	return id.UserID, true
}
