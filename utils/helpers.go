package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// CheckPassword compares a password with its hash
func CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// GenerateRandomString generates a random hex string of the given length
func GenerateRandomString(length int) (string, error) {
	bytes := make([]byte, length/2)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// IsValidRole checks if a role is valid
func IsValidRole(role string) bool {
	switch role {
	case "admin", "teacher", "student":
		return true
	}
	return false
}

// IsValidUserStatus checks if a user status is valid
func IsValidUserStatus(status string) bool {
	switch status {
	case "active", "inactive", "suspended":
		return true
	}
	return false
}

// IsValidImportExtension reports whether a filename has one of the spreadsheet
// extensions the gradebook importer accepts.
func IsValidImportExtension(filename string) bool {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return false
	}
	switch strings.ToLower(filename[idx+1:]) {
	case "xlsx", "csv":
		return true
	}
	return false
}

// SanitizeString removes null bytes and control characters
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, input)
}
