package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	userClaim = "user"
)

type Service interface {
	Sign(userId string) (tokenString string, expiresIn time.Duration, expiresAt time.Time, err error)
	Parse(tokenString string) (string, error)
	Verify(token jwt.Token, verifyErr error) (string, error)
	JWTAuth() *jwtauth.JWTAuth
}

type service struct {
	jwtAuth         *jwtauth.JWTAuth
	sessionDuration time.Duration
}

// NewService signs HS256 tokens carrying the user id, issue time and expiry.
func NewService(secret []byte, sessionDuration time.Duration) Service {
	return &service{
		jwtAuth:         jwtauth.New(jwa.HS256.String(), secret, secret),
		sessionDuration: sessionDuration,
	}
}

func (s *service) Sign(userId string) (tokenString string, expiresIn time.Duration, expiresAt time.Time, err error) {
	now := time.Now()
	expiresIn = s.sessionDuration
	expiresAt = now.Add(expiresIn)

	claims := map[string]interface{}{
		userClaim: userId,
	}
	jwtauth.SetIssuedAt(claims, now)
	jwtauth.SetExpiry(claims, expiresAt)

	_, tokenString, err = s.jwtAuth.Encode(claims)
	if err != nil {
		return "", expiresIn, expiresAt, fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, expiresIn, expiresAt, nil
}

func (s *service) Parse(tokenString string) (string, error) {
	if len(tokenString) == 0 {
		return "", ErrTokenRequired
	}
	token, err := jwtauth.VerifyToken(s.jwtAuth, tokenString)
	return s.Verify(token, err)
}

// Verify maps the outcome of a jwtauth verification onto the user id or one
// of the package errors.
func (s *service) Verify(token jwt.Token, verifyErr error) (string, error) {
	if verifyErr != nil {
		switch {
		case errors.Is(verifyErr, jwtauth.ErrNoTokenFound):
			return "", ErrTokenRequired
		case errors.Is(verifyErr, jwtauth.ErrExpired), errors.Is(verifyErr, jwt.ErrTokenExpired()):
			return "", ErrTokenExpired
		default:
			return "", ErrTokenInvalid
		}
	}

	if token == nil {
		return "", ErrTokenRequired
	}

	if err := jwt.Validate(token); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired()) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}

	userIdValue, ok := token.Get(userClaim)
	if !ok {
		return "", ErrTokenInvalid
	}

	userId, ok := userIdValue.(string)
	if !ok || len(userId) == 0 {
		return "", ErrTokenInvalid
	}

	return userId, nil
}

func (s *service) JWTAuth() *jwtauth.JWTAuth {
	return s.jwtAuth
}
