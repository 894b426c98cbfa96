package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// mustHash hashes a plaintext password with bcrypt at the minimum cost,
// failing the test on error. Minimum cost keeps test runs fast.
func mustHash(t *testing.T, password string) string {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return string(hashed)
}
