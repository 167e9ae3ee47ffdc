package auth

import (
	"errors"
)

var (
	ErrTokenRequired = errors.New("not authenticated")
	ErrTokenExpired  = errors.New("token has expired")
	ErrTokenInvalid  = errors.New("invalid token")
)
