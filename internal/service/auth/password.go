package auth

import "golang.org/x/crypto/bcrypt"

// PasswordVerifier checks a plaintext password against a stored hash.
// Hashing happens in the user store at write time, so verification is
// the only password operation the login path needs.
type PasswordVerifier interface {
	// Compare returns nil when password matches hashedPassword, and a
	// non-nil error on a mismatch or a malformed hash.
	Compare(hashedPassword, password string) error
}

type bcryptVerifier struct{}

// NewBcryptVerifier returns a PasswordVerifier backed by bcrypt. The
// cost is baked into the hash, so the verifier itself carries no state.
func NewBcryptVerifier() PasswordVerifier {
	return bcryptVerifier{}
}

func (bcryptVerifier) Compare(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
