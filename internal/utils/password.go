package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword returns the bcrypt hash of plain. A cost outside bcrypt's
// valid range falls back to the library default, so a misconfigured
// BCRYPT_COST cannot produce weak hashes.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt hash.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
