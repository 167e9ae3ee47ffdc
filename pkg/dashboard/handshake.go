package dashboard

import (
	"time"
)

type Status string

const (
	StatusGood  Status = "good"
	StatusWarn  Status = "warn"
	StatusStale Status = "stale"
)

const (
	goodHandshakeAge = 60
	warnHandshakeAge = 300
)

// HandshakeAge returns the seconds elapsed since the unix timestamp
// lastHandshake, or -1 when the peer never completed a handshake.
func HandshakeAge(now time.Time, lastHandshake int64) int64 {
	if lastHandshake <= 0 {
		return -1
	}
	age := now.Unix() - lastHandshake
	if age < 0 {
		return 0
	}
	return age
}

func HandshakeStatus(age int64) Status {
	switch {
	case age < 0:
		return StatusStale
	case age < goodHandshakeAge:
		return StatusGood
	case age < warnHandshakeAge:
		return StatusWarn
	default:
		return StatusStale
	}
}
