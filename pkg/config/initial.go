package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Initial describes the operator account seeded on startup. Plain values win
// over the secret files.
type Initial struct {
	Username     string `default:""`
	Password     string `default:""`
	UsernameFile string `split_words:"true" default:"/run/secrets/admin-user"`
	PasswordFile string `split_words:"true" default:"/run/secrets/admin-pass"`
}

func (i *Initial) Credentials() (username string, password string, err error) {
	username = i.Username
	if username == "" {
		if username, err = readSecret(i.UsernameFile); err != nil {
			return "", "", err
		}
	}

	password = i.Password
	if password == "" {
		if password, err = readSecret(i.PasswordFile); err != nil {
			return "", "", err
		}
	}

	return username, password, nil
}

func readSecret(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read secret %s: %w", path, err)
	}
	return strings.TrimSpace(string(content)), nil
}
