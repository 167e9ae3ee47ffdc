package builtin

import (
	"github.com/UnAfraid/wg-dash/pkg/wireguard/exec"
	"github.com/UnAfraid/wg-dash/pkg/wireguard/linux"
)

// RegisterAll registers all built-in wireguard backend implementations.
func RegisterAll() {
	exec.Register()
	linux.Register()
}
