package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a raw password with bcrypt. bcrypt generates a
// random per-user salt and embeds it in the returned hash, so the raw
// password is never retained anywhere.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPasswordHash reports whether the password matches the stored hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
