package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the minimum accepted staff password length.
const MinPasswordLength = 12

// bcrypt ignores input past 72 bytes.
const maxPasswordBytes = 72

var (
	ErrInvalidPassword  = errors.New("invalid password")
	ErrPasswordTooShort = errors.New("password must be at least 12 characters")
	ErrPasswordTooLong  = errors.New("password exceeds maximum length of 72 bytes")
)

// HashPassword creates a bcrypt hash of the password. A non-positive cost uses bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a password with its hash.
func CheckPassword(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidPassword
	}
	return err
}

// GenerateAPIToken returns a random plaintext token and the hash to store for it.
func GenerateAPIToken() (plaintext string, hash string, err error) {
	plaintext, err = randomHex(32)
	if err != nil {
		return "", "", err
	}
	return plaintext, HashToken(plaintext), nil
}

// HashToken creates a SHA-256 hash of an API token for storage.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// GenerateSessionSecret creates a random 32-byte secret, hex encoded.
func GenerateSessionSecret() (string, error) {
	return randomHex(32)
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
