package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultUsername         = "admin"
	generatedPasswordLength = 20
)

type Service interface {
	Authenticate(ctx context.Context, username string, password string) (*User, error)
	FindUser(ctx context.Context, options *FindOneOptions) (*User, error)
	FindUsers(ctx context.Context, options *FindOptions) ([]*User, error)
	CreateUser(ctx context.Context, options *CreateOptions) (*User, error)
	UpsertUser(ctx context.Context, options *CreateOptions) (*User, error)
}

type service struct {
	userRepository Repository
}

// NewService seeds the operator account. When credentials are configured the
// account is created or its password rotated, otherwise an admin with a
// random password is created on an empty store.
func NewService(
	userRepository Repository,
	initialUsername string,
	initialPassword string,
) (Service, error) {
	s := &service{
		userRepository: userRepository,
	}

	if err := s.initializeInitialUser(context.Background(), initialUsername, initialPassword); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *service) Authenticate(ctx context.Context, username string, password string) (*User, error) {
	if len(username) == 0 || len(password) == 0 {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepository.FindOne(ctx, &FindOneOptions{
		UsernameOption: &UsernameOption{
			Username: username,
		},
	})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := checkPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) FindUser(ctx context.Context, options *FindOneOptions) (*User, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	return s.userRepository.FindOne(ctx, options)
}

func (s *service) FindUsers(ctx context.Context, options *FindOptions) ([]*User, error) {
	if options == nil {
		options = &FindOptions{}
	}
	return s.userRepository.FindAll(ctx, options)
}

func (s *service) CreateUser(ctx context.Context, options *CreateOptions) (*User, error) {
	user, err := processCreateUser(options)
	if err != nil {
		return nil, err
	}

	existingUser, err := s.userRepository.FindOne(ctx, &FindOneOptions{
		UsernameOption: &UsernameOption{
			Username: user.Username,
		},
	})
	if err != nil {
		return nil, err
	}
	if existingUser != nil {
		return nil, ErrUsernameAlreadyInUse
	}

	return s.userRepository.Create(ctx, user)
}

func (s *service) UpsertUser(ctx context.Context, options *CreateOptions) (*User, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}

	existingUser, err := s.userRepository.FindOne(ctx, &FindOneOptions{
		UsernameOption: &UsernameOption{
			Username: options.Username,
		},
	})
	if err != nil {
		return nil, err
	}
	if existingUser == nil {
		return s.CreateUser(ctx, options)
	}

	if checkPassword([]byte(existingUser.Password), []byte(options.Password)) == nil {
		return existingUser, nil
	}

	password, err := generatePassword([]byte(options.Password))
	if err != nil {
		return nil, err
	}
	return s.userRepository.UpdatePassword(ctx, existingUser.Id, string(password))
}

func (s *service) initializeInitialUser(ctx context.Context, username string, password string) error {
	if username != "" && password != "" {
		if _, err := s.UpsertUser(ctx, &CreateOptions{
			Username: username,
			Password: password,
		}); err != nil {
			return fmt.Errorf("failed to seed admin user: %w", err)
		}
		logrus.WithField("username", username).Info("admin user seeded")
		return nil
	}

	users, err := s.userRepository.FindAll(ctx, &FindOptions{})
	if err != nil {
		return err
	}
	if len(users) != 0 {
		return nil
	}

	if username == "" {
		username = defaultUsername
	}
	password, err = generateRandomPassword(generatedPasswordLength)
	if err != nil {
		return err
	}

	createdUser, err := s.CreateUser(ctx, &CreateOptions{
		Username: username,
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logrus.
		WithField("username", createdUser.Username).
		WithField("password", password).
		Info("admin user created")
	return nil
}

func newId() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func processCreateUser(options *CreateOptions) (*User, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}

	id, err := newId()
	if err != nil {
		return nil, fmt.Errorf("failed to generate new id: %w", err)
	}

	password, err := generatePassword([]byte(options.Password))
	if err != nil {
		return nil, err
	}

	now := time.Now()

	return &User{
		Id:        id,
		Username:  strings.TrimSpace(options.Username),
		Password:  string(password),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
