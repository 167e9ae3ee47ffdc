package exec

import (
	"context"
	"errors"
	"fmt"
	osexec "os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/UnAfraid/wg-dash/pkg/wireguard/driver"
)

func Register() {
	driver.Register("exec", func(_ context.Context) (driver.Backend, error) {
		return NewExecBackend()
	}, isExecBackendAvailable())
}

func isExecBackendAvailable() bool {
	_, err := osexec.LookPath("wg")
	return err == nil
}

type commandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// execBackend drives the interface through the wg command line tool.
type execBackend struct {
	wgPath string
	run    commandRunner
}

func NewExecBackend() (driver.Backend, error) {
	wgPath, err := osexec.LookPath("wg")
	if err != nil {
		return nil, fmt.Errorf("failed to find wg binary: %w", err)
	}

	return &execBackend{
		wgPath: wgPath,
		run:    runCommand,
	}, nil
}

func (b *execBackend) Device(ctx context.Context, name string) (*driver.Device, error) {
	output, err := b.run(ctx, b.wgPath, "show", name, "dump")
	if err != nil {
		if isNoSuchDevice(err) {
			return nil, fmt.Errorf("%w: %s", driver.ErrDeviceNotFound, name)
		}
		return nil, err
	}
	return parseDeviceDump(name, string(output))
}

func (b *execBackend) AddPeer(ctx context.Context, name string, options *driver.PeerOptions) error {
	if err := options.Validate(); err != nil {
		return err
	}

	args := []string{"set", name, "peer", options.PublicKey, "allowed-ips", strings.Join(options.AllowedIPs, ",")}
	if options.PersistentKeepalive > 0 {
		args = append(args, "persistent-keepalive", strconv.Itoa(options.PersistentKeepalive))
	}

	if _, err := b.run(ctx, b.wgPath, args...); err != nil {
		return err
	}
	return nil
}

func (b *execBackend) RemovePeer(ctx context.Context, name string, publicKey string) error {
	if len(publicKey) == 0 {
		return errors.New("public key is required")
	}

	if _, err := b.run(ctx, b.wgPath, "set", name, "peer", publicKey, "remove"); err != nil {
		return err
	}
	return nil
}

func (b *execBackend) Close(_ context.Context) error {
	return nil
}

func runCommand(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := osexec.CommandContext(ctx, binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(output))
		if trimmed == "" {
			return nil, fmt.Errorf("command failed: %s %s: %w", filepath.Base(binary), strings.Join(args, " "), err)
		}
		return nil, fmt.Errorf("command failed: %s %s: %w: %s", filepath.Base(binary), strings.Join(args, " "), err, trimmed)
	}

	return output, nil
}

func isNoSuchDevice(err error) bool {
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "no such device") || strings.Contains(lower, "unable to access interface")
}
