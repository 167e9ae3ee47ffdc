package wgconf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

type BootstrapOptions struct {
	PrivateKeyPath   string
	PrivateKeySecret string
	Addresses        []string
	ListenPort       int
}

// Bootstrap writes the [Interface] section when the configuration does not
// exist yet. The private key comes from the secret file when present and is
// generated otherwise, and is persisted next to the configuration.
func (f *File) Bootstrap(options BootstrapOptions) (created bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := os.Stat(f.path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("failed to stat wireguard config %s: %w", f.path, err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return false, fmt.Errorf("failed to create wireguard config directory: %w", err)
	}

	privateKey, err := loadOrGeneratePrivateKey(options.PrivateKeySecret)
	if err != nil {
		return false, err
	}

	if options.PrivateKeyPath != "" {
		if err := writeFileAtomic(options.PrivateKeyPath, []byte(privateKey.String()+"\n"), 0600); err != nil {
			return false, fmt.Errorf("failed to write private key: %w", err)
		}
	}

	if err := writeFileAtomic(f.path, []byte(renderInterface(privateKey, options)), 0600); err != nil {
		return false, err
	}

	logrus.
		WithField("path", f.path).
		WithField("publicKey", privateKey.PublicKey().String()).
		Info("wireguard config bootstrapped")

	return true, nil
}

func renderInterface(privateKey wgtypes.Key, options BootstrapOptions) string {
	var sb strings.Builder
	sb.WriteString("[Interface]\n")
	sb.WriteString("PrivateKey = ")
	sb.WriteString(privateKey.String())
	sb.WriteString("\n")
	for _, address := range options.Addresses {
		sb.WriteString("Address = ")
		sb.WriteString(strings.TrimSpace(address))
		sb.WriteString("\n")
	}
	if options.ListenPort > 0 {
		sb.WriteString("ListenPort = ")
		sb.WriteString(strconv.Itoa(options.ListenPort))
		sb.WriteString("\n")
	}
	return sb.String()
}

func loadOrGeneratePrivateKey(secretPath string) (wgtypes.Key, error) {
	if secretPath != "" {
		key, err := ReadPrivateKey(secretPath)
		if err == nil {
			return key, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return wgtypes.Key{}, err
		}
	}

	key, err := wgtypes.GeneratePrivateKey()
	if err != nil {
		return wgtypes.Key{}, fmt.Errorf("failed to generate private key: %w", err)
	}
	return key, nil
}

func ReadPrivateKey(path string) (wgtypes.Key, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return wgtypes.Key{}, err
	}

	key, err := wgtypes.ParseKey(strings.TrimSpace(string(content)))
	if err != nil {
		return wgtypes.Key{}, fmt.Errorf("invalid private key in %s: %w", path, err)
	}
	return key, nil
}
