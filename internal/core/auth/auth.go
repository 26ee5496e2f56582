// Package auth implements the credential contract shared by the login flow
// and the account tooling: salted password hashing and the input validation
// rules enforced before any storage lookup happens.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/aserdan/citadel/internal/core/data"
)

// Minimum lengths accepted for usernames and passwords. Shorter input is
// rejected before the database is ever consulted.
const (
	MinUsernameLength = 3
	MinPasswordLength = 3
)

// HashPassword returns the hex digest of password concatenated with salt.
// This must produce the same value as the account registration tooling or
// nobody will ever log in again.
func HashPassword(password, salt string) string {
	hash := sha256.New()
	hash.Write([]byte(password))
	hash.Write([]byte(salt))
	return hex.EncodeToString(hash.Sum(nil))
}

// VerifyPassword reports whether the supplied password matches the account's
// stored hash. Stored hashes have inconsistent casing in old databases, so
// the comparison is case-insensitive.
func VerifyPassword(account *data.Account, password string) bool {
	hashed := HashPassword(password, account.PasswordSalt)
	return strings.EqualFold(hashed, account.Password)
}

// ValidUsername reports whether the username meets the length and character
// requirements. The same rule applies to display names.
func ValidUsername(username string) bool {
	return len(username) >= MinUsernameLength && isAlphaNumeric(username)
}

// ValidPassword reports whether the password meets the length requirement.
func ValidPassword(password string) bool {
	return len(password) >= MinPasswordLength
}

func isAlphaNumeric(s string) bool {
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return len(s) > 0
}
