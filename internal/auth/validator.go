package auth

import (
	"context"
	"errors"
)

var ErrUnauthorized = errors.New("unauthorized")

// Validator checks a bearer token: the token must decrypt to a sane
// payload and a live session must exist for it. Pure from the caller's
// perspective; nothing is mutated.
type Validator struct {
	Secret   string
	Sessions *SessionStore
}

func (v *Validator) Validate(ctx context.Context, token string) (int64, error) {
	p, err := ParseToken(token, v.Secret)
	if err != nil {
		return 0, errors.Join(ErrUnauthorized, err)
	}
	uid, ok, err := v.Sessions.Get(ctx, token)
	if err != nil {
		return 0, err
	}
	if !ok || uid != p.UserID {
		return 0, ErrUnauthorized
	}
	return p.UserID, nil
}
