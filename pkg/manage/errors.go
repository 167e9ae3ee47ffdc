package manage

import (
	"errors"
)

var (
	ErrServerConfigUnavailable = errors.New("server config is unavailable")
)
