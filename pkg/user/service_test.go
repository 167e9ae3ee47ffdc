package user

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type memoryRepository struct {
	mu    sync.Mutex
	users map[string]*User
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{users: make(map[string]*User)}
}

func (r *memoryRepository) FindOne(_ context.Context, options *FindOneOptions) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if options.IdOption != nil {
		return r.users[options.IdOption.Id], nil
	}
	for _, u := range r.users {
		if strings.EqualFold(u.Username, options.UsernameOption.Username) {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memoryRepository) FindAll(_ context.Context, _ *FindOptions) ([]*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var users []*User
	for _, u := range r.users {
		users = append(users, u)
	}
	return users, nil
}

func (r *memoryRepository) Create(_ context.Context, u *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[u.Id]; ok {
		return nil, ErrUserIdAlreadyExists
	}
	r.users[u.Id] = u
	return u, nil
}

func (r *memoryRepository) UpdatePassword(_ context.Context, userId string, password string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userId]
	if !ok {
		return nil, ErrUserNotFound
	}
	u.Password = password
	u.UpdatedAt = time.Now()
	return u, nil
}

func TestNewServiceSeedsConfiguredUser(t *testing.T) {
	repository := newMemoryRepository()
	svc, err := NewService(repository, "operator", "s3cret")
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	u, err := svc.Authenticate(context.Background(), "operator", "s3cret")
	if err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}
	if u.Username != "operator" {
		t.Fatalf("unexpected username: %s", u.Username)
	}

	if _, err := svc.Authenticate(context.Background(), "operator", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "nobody", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestNewServiceRotatesSeededPassword(t *testing.T) {
	repository := newMemoryRepository()
	if _, err := NewService(repository, "operator", "first"); err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	svc, err := NewService(repository, "operator", "second")
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	if len(repository.users) != 1 {
		t.Fatalf("expected a single user, got %d", len(repository.users))
	}
	if _, err := svc.Authenticate(context.Background(), "operator", "second"); err != nil {
		t.Fatalf("failed to authenticate with rotated password: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "operator", "first"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password to be rejected, got %v", err)
	}
}

func TestNewServiceGeneratesAdminOnEmptyStore(t *testing.T) {
	repository := newMemoryRepository()
	svc, err := NewService(repository, "", "")
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	users, err := svc.FindUsers(context.Background(), nil)
	if err != nil {
		t.Fatalf("failed to find users: %v", err)
	}
	if len(users) != 1 || users[0].Username != defaultUsername {
		t.Fatalf("unexpected users: %+v", users)
	}
}

func TestCreateUserRejectsDuplicateUsername(t *testing.T) {
	svc, err := NewService(newMemoryRepository(), "operator", "s3cret")
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	_, err = svc.CreateUser(context.Background(), &CreateOptions{Username: "operator", Password: "x"})
	if !errors.Is(err, ErrUsernameAlreadyInUse) {
		t.Fatalf("expected ErrUsernameAlreadyInUse, got %v", err)
	}

	_, err = svc.CreateUser(context.Background(), &CreateOptions{Username: "", Password: "x"})
	if !errors.Is(err, ErrUsernameRequired) {
		t.Fatalf("expected ErrUsernameRequired, got %v", err)
	}
}

func TestGenerateRandomPassword(t *testing.T) {
	password, err := generateRandomPassword(generatedPasswordLength)
	if err != nil {
		t.Fatalf("failed to generate password: %v", err)
	}
	if len(password) != generatedPasswordLength {
		t.Fatalf("unexpected password length: %d", len(password))
	}
	for _, c := range password {
		if !strings.ContainsRune(passwordCharSet, c) {
			t.Fatalf("unexpected character %q", c)
		}
	}
}
