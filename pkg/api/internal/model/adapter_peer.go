package model

import (
	"time"

	"github.com/UnAfraid/wg-dash/pkg/peer"
	"github.com/UnAfraid/wg-dash/pkg/wireguard/driver"
)

type Peer struct {
	PublicKey   string `json:"public_key"`
	PrivateKey  string `json:"private_key"`
	IPv4Address string `json:"ipv4_address"`
	IPv6Address string `json:"ipv6_address"`
	CreatedAt   string `json:"created_at"`
	ExpiresAt   string `json:"expires_at"`
}

type Stat struct {
	PublicKey           string `json:"public_key"`
	Endpoint            string `json:"endpoint,omitempty"`
	LastHandshakeTime   int64  `json:"last_handshake_time"`
	RxBytes             int64  `json:"rx_bytes"`
	TxBytes             int64  `json:"tx_bytes"`
	PersistentKeepalive int    `json:"persistent_keepalive"`
}

type CreatePeerInput struct {
	DaysValid *int `json:"days_valid"`
}

type DeletePeerInput struct {
	PublicKey string `json:"public_key"`
}

type DeletePeerResult struct {
	Deleted bool `json:"deleted"`
}

type PeerChangedEvent struct {
	Action string `json:"action"`
	Peer   *Peer  `json:"peer"`
}

func ToPeer(p *peer.Peer) *Peer {
	if p == nil {
		return nil
	}
	return &Peer{
		PublicKey:   p.PublicKey,
		PrivateKey:  p.PrivateKey,
		IPv4Address: p.IPv4Address,
		IPv6Address: p.IPv6Address,
		CreatedAt:   FormatDateTime(p.CreatedAt),
		ExpiresAt:   FormatDateTime(p.ExpiresAt),
	}
}

// ToStat reports a zero handshake time for peers that never completed one.
func ToStat(p *driver.Peer) *Stat {
	if p == nil {
		return nil
	}

	var lastHandshakeTime int64
	if !p.Stats.LastHandshakeTime.IsZero() {
		lastHandshakeTime = p.Stats.LastHandshakeTime.Unix()
	}

	return &Stat{
		PublicKey:           p.PublicKey,
		Endpoint:            p.Endpoint,
		LastHandshakeTime:   lastHandshakeTime,
		RxBytes:             p.Stats.ReceiveBytes,
		TxBytes:             p.Stats.TransmitBytes,
		PersistentKeepalive: int(p.PersistentKeepalive / time.Second),
	}
}

func ToPeerChangedEvent(event *peer.ChangedEvent) *PeerChangedEvent {
	if event == nil {
		return nil
	}
	return &PeerChangedEvent{
		Action: event.Action,
		Peer:   ToPeer(event.Peer),
	}
}

func CreatePeerInputToCreateOptions(input CreatePeerInput, defaultDaysValid int) *peer.CreateOptions {
	daysValid := defaultDaysValid
	if input.DaysValid != nil {
		daysValid = *input.DaysValid
	}
	return &peer.CreateOptions{
		DaysValid: daysValid,
	}
}
