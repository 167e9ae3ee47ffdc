package clientconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/UnAfraid/wg-dash/pkg/client"
)

const (
	DefaultPersistentKeepalive = 25
	DefaultQRCodeSize          = 512
)

var (
	ErrPeerRequired         = errors.New("peer is required")
	ErrServerConfigRequired = errors.New("server config is required")
)

// Render builds the configuration a WireGuard client imports to connect as
// the given peer.
func Render(p *client.Peer, serverConfig *client.ServerConfig) (string, error) {
	if p == nil {
		return "", ErrPeerRequired
	}
	if serverConfig == nil {
		return "", ErrServerConfigRequired
	}

	var sb strings.Builder
	sb.WriteString("[Interface]\n")
	sb.WriteString("PrivateKey = ")
	sb.WriteString(p.PrivateKey)
	sb.WriteString("\n")

	addresses := []string{p.IPv4Address + "/32"}
	if p.IPv6Address != "" {
		addresses = append(addresses, p.IPv6Address+"/128")
	}
	sb.WriteString("Address = ")
	sb.WriteString(strings.Join(addresses, ", "))
	sb.WriteString("\n")

	if serverConfig.DNSServer != "" {
		sb.WriteString("DNS = ")
		sb.WriteString(serverConfig.DNSServer)
		sb.WriteString("\n")
	}

	sb.WriteString("\n[Peer]\n")
	sb.WriteString("PublicKey = ")
	sb.WriteString(serverConfig.PublicKey)
	sb.WriteString("\n")

	sb.WriteString("Endpoint = ")
	sb.WriteString(serverConfig.Endpoint)
	sb.WriteString("\n")

	sb.WriteString("AllowedIPs = ")
	sb.WriteString(serverConfig.AllowedIPs)
	sb.WriteString("\n")

	persistentKeepalive := serverConfig.PersistentKeepalive
	if persistentKeepalive <= 0 {
		persistentKeepalive = DefaultPersistentKeepalive
	}
	sb.WriteString("PersistentKeepalive = ")
	sb.WriteString(strconv.Itoa(persistentKeepalive))
	sb.WriteString("\n")

	return sb.String(), nil
}

func FileName(p *client.Peer) string {
	return fmt.Sprintf("wg-peer-%s.conf", p.IPv4Address)
}

// WriteFile renders the configuration into dir and returns the written path.
func WriteFile(dir string, p *client.Peer, serverConfig *client.ServerConfig) (string, error) {
	config, err := Render(p, serverConfig)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, FileName(p))
	if err := os.WriteFile(path, []byte(config), 0600); err != nil {
		return "", fmt.Errorf("failed to write client config %s: %w", path, err)
	}
	if err := os.Chmod(path, 0600); err != nil {
		return "", fmt.Errorf("failed to chmod client config %s: %w", path, err)
	}
	return path, nil
}

func QRCodePNG(config string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRCodeSize
	}
	png, err := qrcode.Encode(config, qrcode.High, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}

// QRCodeTerminal renders the code with half block characters, two modules per
// line, so it fits a regular terminal.
func QRCodeTerminal(config string) (string, error) {
	code, err := qrcode.New(config, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to encode qr code: %w", err)
	}
	return code.ToSmallString(false), nil
}
