package user

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	cost = 12
)

var (
	passwordCharSet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

func generateRandomPassword(passwordLength int) (string, error) {
	password := make([]byte, passwordLength)
	max := big.NewInt(int64(len(passwordCharSet)))
	for i := range password {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random password: %w", err)
		}
		password[i] = passwordCharSet[n.Int64()]
	}
	return string(password), nil
}

func generatePassword(password []byte) ([]byte, error) {
	return bcrypt.GenerateFromPassword(password, cost)
}

func checkPassword(hashedPassword, password []byte) error {
	err := bcrypt.CompareHashAndPassword(hashedPassword, password)
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidCredentials
	}
	if err != nil {
		logrus.
			WithError(err).
			WithField("password_len", len(password)).
			Error("failed to compare password")
		return ErrInvalidCredentials
	}
	return nil
}
