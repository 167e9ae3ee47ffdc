package user

import (
	"context"
)

type Repository interface {
	FindOne(ctx context.Context, options *FindOneOptions) (*User, error)
	FindAll(ctx context.Context, options *FindOptions) ([]*User, error)
	Create(ctx context.Context, user *User) (*User, error)
	UpdatePassword(ctx context.Context, userId string, password string) (*User, error)
}
