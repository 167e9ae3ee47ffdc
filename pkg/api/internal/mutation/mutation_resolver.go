package mutation

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/UnAfraid/wg-dash/pkg/api/internal/handler"
	"github.com/UnAfraid/wg-dash/pkg/api/internal/model"
	"github.com/UnAfraid/wg-dash/pkg/auth"
	"github.com/UnAfraid/wg-dash/pkg/manage"
	"github.com/UnAfraid/wg-dash/pkg/peer"
	"github.com/UnAfraid/wg-dash/pkg/user"
)

const (
	tokenTypeBearer = "bearer"

	detailIncorrectCredentials = "Incorrect username or password"
)

type MutationResolver struct {
	authService      auth.Service
	userService      user.Service
	manageService    manage.Service
	defaultDaysValid int
	maxDaysValid     int
}

func NewMutationResolver(
	authService auth.Service,
	userService user.Service,
	manageService manage.Service,
	defaultDaysValid int,
	maxDaysValid int,
) *MutationResolver {
	return &MutationResolver{
		authService:      authService,
		userService:      userService,
		manageService:    manageService,
		defaultDaysValid: defaultDaysValid,
		maxDaysValid:     maxDaysValid,
	}
}

// Login accepts the credentials either as a urlencoded/multipart form or as a
// JSON object.
func (r *MutationResolver) Login(w http.ResponseWriter, req *http.Request) {
	input, err := parseLoginInput(w, req)
	if err != nil {
		handler.WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if len(input.Username) == 0 || len(input.Password) == 0 {
		handler.WriteError(w, http.StatusUnprocessableEntity, "username and password are required")
		return
	}

	u, err := r.userService.Authenticate(req.Context(), input.Username, input.Password)
	if err != nil {
		if !errors.Is(err, user.ErrInvalidCredentials) {
			logrus.WithError(err).WithField("username", input.Username).Error("failed to authenticate user")
		}
		handler.WriteUnauthorized(w, detailIncorrectCredentials)
		return
	}

	tokenString, expiresIn, _, err := r.authService.Sign(u.Id)
	if err != nil {
		logrus.WithError(err).WithField("username", u.Username).Error("failed to sign token")
		handler.WriteError(w, http.StatusInternalServerError, "failed to sign token")
		return
	}

	logrus.WithField("username", u.Username).Info("user logged in")

	handler.WriteJSON(w, http.StatusOK, &model.Token{
		AccessToken: tokenString,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   int64(expiresIn.Seconds()),
	})
}

func (r *MutationResolver) CreatePeer(w http.ResponseWriter, req *http.Request) {
	u, err := model.ContextToUser(req.Context())
	if err != nil {
		handler.WriteUnauthorized(w, handler.DetailNotAuthenticated)
		return
	}

	var input model.CreatePeerInput
	if err := handler.DecodeJSON(w, req, &input); err != nil {
		handler.WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	options := model.CreatePeerInputToCreateOptions(input, r.defaultDaysValid)
	if options.DaysValid < 1 || options.DaysValid > r.maxDaysValid {
		handler.WriteError(w, http.StatusUnprocessableEntity, fmt.Sprintf("days_valid must be between 1 and %d", r.maxDaysValid))
		return
	}

	createdPeer, err := r.manageService.CreatePeer(req.Context(), options, u.ID)
	if err != nil {
		switch {
		case errors.Is(err, peer.ErrInvalidDaysValid):
			handler.WriteError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, peer.ErrIPv4PoolExhausted), errors.Is(err, peer.ErrIPv6PoolExhausted):
			handler.WriteError(w, http.StatusConflict, err.Error())
		default:
			logrus.WithError(err).Error("failed to create peer")
			handler.WriteError(w, http.StatusInternalServerError, "failed to create peer")
		}
		return
	}

	handler.WriteJSON(w, http.StatusCreated, model.ToPeer(createdPeer))
}

func (r *MutationResolver) DeletePeer(w http.ResponseWriter, req *http.Request) {
	u, err := model.ContextToUser(req.Context())
	if err != nil {
		handler.WriteUnauthorized(w, handler.DetailNotAuthenticated)
		return
	}

	var input model.DeletePeerInput
	if err := handler.DecodeJSON(w, req, &input); err != nil {
		handler.WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	publicKey := strings.TrimSpace(input.PublicKey)
	if len(publicKey) == 0 {
		handler.WriteError(w, http.StatusUnprocessableEntity, "public_key is required")
		return
	}

	deleted, err := r.manageService.DeletePeer(req.Context(), publicKey, u.ID)
	if err != nil {
		logrus.WithError(err).WithField("publicKey", publicKey).Error("failed to delete peer")
		handler.WriteError(w, http.StatusInternalServerError, "failed to delete peer")
		return
	}

	handler.WriteJSON(w, http.StatusOK, &model.DeletePeerResult{
		Deleted: deleted,
	})
}

func parseLoginInput(w http.ResponseWriter, req *http.Request) (*model.LoginInput, error) {
	mediaType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var input model.LoginInput
		if err := handler.DecodeJSON(w, req, &input); err != nil {
			return nil, err
		}
		return &input, nil
	}

	if err := req.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, fmt.Errorf("invalid form: %w", err)
	}
	return &model.LoginInput{
		Username: req.PostFormValue("username"),
		Password: req.PostFormValue("password"),
	}, nil
}
