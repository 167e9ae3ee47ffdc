package peer

import (
	"errors"
)

var (
	ErrPublicKeyRequired         = errors.New("public key is required")
	ErrOneOptionRequired         = errors.New("one option is required")
	ErrOnlyOneOptionAllowed      = errors.New("only one option is allowed")
	ErrPeerNotFound              = errors.New("peer not found")
	ErrPublicKeyAlreadyExists    = errors.New("public key already exists")
	ErrCreatePeerOptionsRequired = errors.New("create peer options are required")
	ErrInvalidDaysValid          = errors.New("days valid is out of range")
	ErrExpiryBeforeCreation      = errors.New("expiry must be after creation")
	ErrIPv4PoolExhausted         = errors.New("no free ipv4 addresses left")
	ErrIPv6PoolExhausted         = errors.New("no free ipv6 addresses left")
)
