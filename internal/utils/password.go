package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a bcrypt hash at the given cost.  Registration uses
// the configured production cost; tests pass bcrypt.MinCost to stay fast.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored hash.  The
// comparison is constant time; the reason for a mismatch is never exposed.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
