package auth

import (
	"context"
	"errors"
	"net/http"
)

type contextKey string

const ctxUserID contextKey = "uid"

// ExtractOptions mirror the token-related config keys.
type ExtractOptions struct {
	Header       string
	BearerPrefix string
	QueryKey     string
}

// RequireUser rejects requests without a valid token and puts the user id
// on the request context.
func RequireUser(v *Validator, opt ExtractOptions, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := ExtractToken(r, opt.Header, opt.BearerPrefix, opt.QueryKey)
		if token == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		uid, err := v.Validate(r.Context(), token)
		if err != nil {
			if errors.Is(err, ErrUnauthorized) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
			} else {
				http.Error(w, "auth error", http.StatusServiceUnavailable)
			}
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, uid)
		next(w, r.WithContext(ctx))
	}
}

// UserID returns the authenticated user id set by RequireUser.
func UserID(ctx context.Context) (int64, bool) {
	uid, ok := ctx.Value(ctxUserID).(int64)
	return uid, ok && uid > 0
}
