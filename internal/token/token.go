// Package token signs and parses the bearer tokens that prove a login
// session. Every token embeds the session fingerprint stored on the
// credential record at issue time; rotating the fingerprint invalidates
// all previously issued tokens for that account.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
)

type Claims struct {
	AccountID   string `json:"sub_id"`
	Fingerprint string `json:"fpr"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	ttl    time.Duration

	// overridable in tests
	now func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithTimeFunc overrides the issuer clock. Meant for tests.
func (i *Issuer) WithTimeFunc(fn func() time.Time) *Issuer {
	i.now = fn
	return i
}

// Sign mints a token bound to the given account and fingerprint.
func (i *Issuer) Sign(accountID, fingerprint string) (string, error) {
	now := i.now()
	claims := &Claims{
		AccountID:   accountID,
		Fingerprint: fingerprint,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			Issuer:    "iconbuzzer",
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(i.secret)
}

// Parse checks signature and expiry; record-level checks (fingerprint,
// active, verified, lock, password recency) are the caller's job.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		// accept HMAC only
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return i.now() }))
	if err != nil || !t.Valid {
		return nil, ErrInvalidToken
	}
	if claims.AccountID == "" || claims.Fingerprint == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
