package auth

import (
	"crypto/rand"
	"io"
)

// RandomID returns a random alphanumeric string, used for connection ids.
func RandomID(n int) (string, error) {
	const letters = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	buf := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}
	for i := 0; i < n; i++ {
		buf[i] = letters[int(buf[i])%len(letters)]
	}
	return string(buf), nil
}
