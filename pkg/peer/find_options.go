package peer

import (
	"time"
)

type FindOptions struct {
	PublicKeys    []string
	Query         string
	ExpiredBefore *time.Time
	CreateUserId  *string
}
