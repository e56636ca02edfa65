// Package auth issues and validates bearer tokens and guards HTTP
// endpoints. The same Validator serves the HTTP middleware and the
// websocket handshake.
package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

type Payload struct {
	UserID   int64 `json:"userId"`
	IssuedAt int64 `json:"issuedAt"`
}

// IssueToken encrypts the payload into an opaque bearer token.
func IssueToken(p Payload, secret string) (string, error) {
	if p.UserID <= 0 {
		return "", errors.New("invalid user id")
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return encrypt(string(b), secret)
}

// ParseToken decrypts a bearer token back into its payload.
func ParseToken(token, secret string) (*Payload, error) {
	if token == "" {
		return nil, errors.New("empty token")
	}
	plain, err := decrypt(token, secret)
	if err != nil {
		return nil, err
	}
	var p Payload
	if err := json.Unmarshal([]byte(plain), &p); err != nil {
		return nil, err
	}
	if p.UserID <= 0 || p.IssuedAt <= 0 {
		return nil, errors.New("invalid token payload")
	}
	return &p, nil
}

// ExtractToken gets the token from the Authorization header (Bearer) or a
// query parameter fallback.
func ExtractToken(r *http.Request, header, bearerPrefix, queryKey string) string {
	if header != "" {
		v := strings.TrimSpace(r.Header.Get(header))
		if v != "" {
			if bearerPrefix != "" && strings.HasPrefix(v, bearerPrefix) {
				return strings.TrimSpace(strings.TrimPrefix(v, bearerPrefix))
			}
			return v
		}
	}
	if queryKey != "" {
		if v := strings.TrimSpace(r.URL.Query().Get(queryKey)); v != "" {
			return v
		}
	}
	return ""
}
