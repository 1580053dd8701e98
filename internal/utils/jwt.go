package utils // package utils provides helpers for token creation and hashing

import (
	"crypto/rand"   // secure random bytes for refresh tokens
	"crypto/sha256" // SHA-256 hashing for refresh tokens
	"encoding/hex"  // hex encoding
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessToken is a signed JWT access token along with its expiry. Access
// tokens are short-lived and sent in the Authorization header on protected
// endpoints. The token carries only the subject (user id); capabilities are
// always resolved from the database on each call.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// RefreshToken is a long-lived opaque token used to obtain new access
// tokens. Only its SHA-256 hash is stored server-side.
type RefreshToken struct {
	Raw string
	Exp time.Time
}

// NewAccessToken builds and signs an HS256 JWT for a user. Claims are the
// standard sub, exp and iat.
func NewAccessToken(secret string, userID uint64, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken returns a cryptographically random token and its expiry.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
	raw, err := randomHex(48) // 48 bytes -> 96 hex chars
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw: raw,
		Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// HashRefreshRaw returns the SHA-256 hash of a raw refresh token as hex.
// Storing only the hash keeps stolen database rows from refreshing sessions.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
