package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/storage"
)

// SessionCookie is the cookie read when no Authorization header is sent.
const SessionCookie = "ledger_session"

// UserLookup loads the current state of a user.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (core.User, error)
}

// Resolver turns request credentials into a core.Identity.
type Resolver struct {
	tokens *TokenIssuer
	users  UserLookup
}

func NewResolver(tokens *TokenIssuer, users UserLookup) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

// Resolve returns the identity behind the request credentials. Missing,
// invalid or expired tokens and deleted users all yield Unauthenticated.
// The role is read from the store, not the token, so demotions apply
// immediately.
func (r *Resolver) Resolve(req *http.Request) (core.Identity, error) {
	tokenStr := TokenFromRequest(req)
	if tokenStr == "" {
		return core.Identity{}, core.Unauthenticated("Unauthorized")
	}

	claims, err := r.tokens.Parse(tokenStr)
	if err != nil {
		return core.Identity{}, core.Unauthenticated("Unauthorized")
	}

	user, err := r.users.GetUser(req.Context(), claims.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Identity{}, core.Unauthenticated("Unauthorized")
	}
	if err != nil {
		return core.Identity{}, core.StoreFailure("resolve identity", err)
	}
	return core.Identity{UserID: user.ID, Role: user.Role}, nil
}

// Middleware attaches the resolved identity to the request context when
// credentials are valid. Requests without one continue anonymously and are
// rejected by the operations that need an identity.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id, err := r.Resolve(req)
		switch {
		case err == nil:
			ctx := core.WithIdentity(req.Context(), id)
			fields := log.NewFields().WithIdentity(id.UserID, string(id.Role))
			ctx = log.IntoContext(ctx, log.FromContext(ctx).With(fields.ToSlice()...))
			req = req.WithContext(ctx)
		case errors.Is(err, core.ErrStoreFailure):
			log.FromContext(req.Context()).ErrorContext(req.Context(), "Identity lookup failed", log.FieldError, err.Error())
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"identity lookup failed"}`))
			return
		}
		next.ServeHTTP(w, req)
	})
}

// TokenFromRequest reads a bearer token from the Authorization header,
// falling back to the session cookie.
func TokenFromRequest(req *http.Request) string {
	if h := req.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if c, err := req.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}
