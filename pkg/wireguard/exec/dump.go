package exec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/UnAfraid/wg-dash/pkg/wireguard/driver"
)

// parseDeviceDump reads the tab separated output of `wg show <name> dump`.
// The first line describes the interface, every following line a peer.
func parseDeviceDump(name string, output string) (*driver.Device, error) {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return nil, errors.New("wireguard dump output is empty")
	}

	lines := strings.Split(trimmed, "\n")
	interfaceFields := splitDumpFields(lines[0])
	if len(interfaceFields) < 4 {
		return nil, fmt.Errorf("invalid interface dump line: %q", lines[0])
	}

	listenPort, err := parseDumpInt(interfaceFields[2])
	if err != nil {
		return nil, fmt.Errorf("failed to parse listen port: %w", err)
	}

	device := &driver.Device{
		Name:       name,
		PublicKey:  parseDumpString(interfaceFields[1]),
		ListenPort: listenPort,
	}

	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}

		peerFields := splitDumpFields(line)
		if len(peerFields) < 8 {
			return nil, fmt.Errorf("invalid peer dump line: %q", line)
		}

		latestHandshakeUnix, err := parseDumpInt64(peerFields[4])
		if err != nil {
			return nil, fmt.Errorf("failed to parse latest handshake for peer %s: %w", peerFields[0], err)
		}

		receiveBytes, err := parseDumpInt64(peerFields[5])
		if err != nil {
			return nil, fmt.Errorf("failed to parse receive bytes for peer %s: %w", peerFields[0], err)
		}

		transmitBytes, err := parseDumpInt64(peerFields[6])
		if err != nil {
			return nil, fmt.Errorf("failed to parse transmit bytes for peer %s: %w", peerFields[0], err)
		}

		persistentKeepalive, err := parseDumpInt(peerFields[7])
		if err != nil {
			return nil, fmt.Errorf("failed to parse keepalive for peer %s: %w", peerFields[0], err)
		}

		var allowedIPs []string
		if allowedIPsField := parseDumpString(peerFields[3]); allowedIPsField != "" {
			for _, allowedIP := range strings.Split(allowedIPsField, ",") {
				if allowedIP = strings.TrimSpace(allowedIP); allowedIP != "" {
					allowedIPs = append(allowedIPs, allowedIP)
				}
			}
		}

		var latestHandshake time.Time
		if latestHandshakeUnix > 0 {
			latestHandshake = time.Unix(latestHandshakeUnix, 0)
		}

		device.Peers = append(device.Peers, &driver.Peer{
			PublicKey:           parseDumpString(peerFields[0]),
			Endpoint:            parseDumpString(peerFields[2]),
			AllowedIPs:          allowedIPs,
			PersistentKeepalive: time.Duration(persistentKeepalive) * time.Second,
			Stats: driver.PeerStats{
				LastHandshakeTime: latestHandshake,
				ReceiveBytes:      receiveBytes,
				TransmitBytes:     transmitBytes,
			},
		})
	}

	return device, nil
}

func splitDumpFields(line string) []string {
	fields := strings.Split(line, "\t")
	if len(fields) == 1 {
		fields = strings.Fields(line)
	}
	return fields
}

func parseDumpString(v string) string {
	v = strings.TrimSpace(v)
	if v == "(none)" {
		return ""
	}
	return v
}

func parseDumpInt(v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" || v == "off" || v == "(none)" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func parseDumpInt64(v string) (int64, error) {
	v = strings.TrimSpace(v)
	if v == "" || v == "off" || v == "(none)" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err == nil {
		return n, nil
	}

	u, uErr := strconv.ParseUint(v, 10, 64)
	if uErr != nil {
		return 0, err
	}
	if u > uint64(^uint64(0)>>1) {
		return int64(^uint64(0) >> 1), nil
	}
	return int64(u), nil
}
