package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"net/url"
)

// NewOpaqueToken returns nBytes of cryptographically secure randomness as hex.
func NewOpaqueToken(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = 32 // 256 bits by default
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewOTP returns a 6-digit one-time code drawn from crypto/rand.
func NewOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// HashToken is the fast one-way hash used for reset tokens (not passwords).
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

var avatarStyles = []string{"adventurer", "bottts", "micah", "pixel-art", "avataaars"}

// RandomAvatarURL builds a Dicebear avatar URL for a fresh account.
func RandomAvatarURL(seed string) string {
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(avatarStyles))))
	style := avatarStyles[0]
	if err == nil {
		style = avatarStyles[idx.Int64()]
	}
	return fmt.Sprintf("https://api.dicebear.com/9.x/%s/svg?seed=%s", style, url.QueryEscape(seed))
}
