package user

import (
	"strings"
)

type CreateOptions struct {
	Username string
	Password string
}

func (o *CreateOptions) Validate() error {
	if o == nil {
		return ErrCreateOptionsRequired
	}
	if len(strings.TrimSpace(o.Username)) == 0 {
		return ErrUsernameRequired
	}
	if len(o.Password) == 0 {
		return ErrPasswordRequired
	}
	return nil
}
