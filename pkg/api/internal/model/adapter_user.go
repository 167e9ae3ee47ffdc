package model

import (
	"github.com/UnAfraid/wg-dash/pkg/user"
)

type User struct {
	ID       string
	Username string
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func ToUser(u *user.User) *User {
	if u == nil {
		return nil
	}
	return &User{
		ID:       u.Id,
		Username: u.Username,
	}
}
