package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/sirupsen/logrus"

	"github.com/UnAfraid/wg-dash/pkg/api/internal/model"
	"github.com/UnAfraid/wg-dash/pkg/auth"
	"github.com/UnAfraid/wg-dash/pkg/user"
)

const tokenQueryParameter = "access_token"

type AuthenticationHandler interface {
	AuthenticationMiddleware() func(http.Handler) http.Handler
}

type authenticationHandler struct {
	authService auth.Service
	userService user.Service
}

func NewAuthenticationHandler(authService auth.Service, userService user.Service) AuthenticationHandler {
	return &authenticationHandler{
		authService: authService,
		userService: userService,
	}
}

// AuthenticationMiddleware rejects requests without a valid bearer token. The
// token is read from the Authorization header and, for websocket upgrades
// where browsers cannot set headers, from the access_token query parameter.
func (ah *authenticationHandler) AuthenticationMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := jwtauth.VerifyRequest(ah.authService.JWTAuth(), r, jwtauth.TokenFromHeader, tokenFromQuery)
			userId, err := ah.authService.Verify(token, err)
			if err != nil {
				WriteUnauthorized(w, detailForError(err))
				return
			}

			u, err := ah.findUser(r.Context(), userId)
			if err != nil {
				logrus.
					WithError(err).
					WithField("userId", userId).
					Debug("token references an unknown user")
				WriteUnauthorized(w, DetailInvalidToken)
				return
			}

			ctx := jwtauth.NewContext(r.Context(), token, nil)
			ctx = model.UserToContext(ctx, model.ToUser(u))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (ah *authenticationHandler) findUser(ctx context.Context, userId string) (*user.User, error) {
	u, err := ah.userService.FindUser(ctx, &user.FindOneOptions{
		IdOption: &user.IdOption{
			Id: userId,
		},
	})
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func tokenFromQuery(r *http.Request) string {
	return r.URL.Query().Get(tokenQueryParameter)
}

func detailForError(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenRequired):
		return DetailNotAuthenticated
	case errors.Is(err, auth.ErrTokenExpired):
		return DetailTokenExpired
	default:
		return DetailInvalidToken
	}
}
