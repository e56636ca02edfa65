package auth

import (
	"bytes"
	"crypto/aes"
	"encoding/base64"
	"errors"
)

// AES-ECB with PKCS5 padding, Base64 output. The secret must be a valid
// AES key length (16/24/32 bytes).

func pad(src []byte, blockSize int) []byte {
	n := blockSize - len(src)%blockSize
	return append(src, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, errors.New("empty plaintext")
	}
	n := int(src[len(src)-1])
	if n <= 0 || n > len(src) {
		return nil, errors.New("invalid padding")
	}
	for i := 0; i < n; i++ {
		if src[len(src)-1-i] != byte(n) {
			return nil, errors.New("invalid padding")
		}
	}
	return src[:len(src)-n], nil
}

func encrypt(content, secret string) (string, error) {
	block, err := aes.NewCipher([]byte(secret))
	if err != nil {
		return "", err
	}
	bs := block.BlockSize()
	plain := pad([]byte(content), bs)
	out := make([]byte, len(plain))
	for i := 0; i < len(plain); i += bs {
		block.Encrypt(out[i:i+bs], plain[i:i+bs])
	}
	return base64.StdEncoding.EncodeToString(out), nil
}

func decrypt(content, secret string) (string, error) {
	block, err := aes.NewCipher([]byte(secret))
	if err != nil {
		return "", err
	}
	raw, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return "", err
	}
	bs := block.BlockSize()
	if len(raw) == 0 || len(raw)%bs != 0 {
		return "", errors.New("invalid ciphertext size")
	}
	out := make([]byte, len(raw))
	for i := 0; i < len(raw); i += bs {
		block.Decrypt(out[i:i+bs], raw[i:i+bs])
	}
	plain, err := unpad(out)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
