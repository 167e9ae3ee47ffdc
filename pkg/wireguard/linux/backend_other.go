//go:build !linux

package linux

import (
	"errors"

	"github.com/UnAfraid/wg-dash/pkg/wireguard/driver"
)

func Register() {
	driver.Register("linux", nil, false)
}

func NewLinuxBackend() (driver.Backend, error) {
	return nil, errors.New("linux backend is only supported on linux")
}
