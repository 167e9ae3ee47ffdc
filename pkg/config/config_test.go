package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("WG_DASH_JWT_SECRET", "c2VjcmV0")
	t.Setenv("WG_DASH_WIREGUARD_ENDPOINT", "vpn.example.com:51820")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	conf, err := Load("wg-dash")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if conf.HttpServer.EventsPingPeriod != 10*time.Second {
		t.Fatalf("unexpected events ping period: %s", conf.HttpServer.EventsPingPeriod)
	}
	if len(conf.EventsAllowedOrigins) != 0 {
		t.Fatalf("expected events origins to fall back to cors origins, got %v", conf.EventsAllowedOrigins)
	}
	if conf.ProcMountPoint != "/proc" {
		t.Fatalf("unexpected proc mount point: %s", conf.ProcMountPoint)
	}
	if conf.DefaultPeerDaysValid != 7 || conf.MaxPeerDaysValid != 3650 {
		t.Fatalf("unexpected days valid bounds: %d..%d", conf.DefaultPeerDaysValid, conf.MaxPeerDaysValid)
	}
}

func TestLoadRejectsNonPositiveDurations(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{name: "events ping period", key: "WG_DASH_HTTP_SERVER_EVENTS_PING_PERIOD", value: "0s", want: "events ping period"},
		{name: "negative ping period", key: "WG_DASH_HTTP_SERVER_EVENTS_PING_PERIOD", value: "-1s", want: "events ping period"},
		{name: "shutdown timeout", key: "WG_DASH_HTTP_SERVER_SHUTDOWN_TIMEOUT", value: "0s", want: "shutdown timeout"},
		{name: "jwt duration", key: "WG_DASH_JWT_DURATION", value: "0s", want: "jwt duration"},
		{name: "login rate window", key: "WG_DASH_LOGIN_RATE_WINDOW", value: "0s", want: "login rate window"},
		{name: "login rate limit", key: "WG_DASH_LOGIN_RATE_LIMIT", value: "0", want: "login rate limit"},
		{name: "peer expiry interval", key: "WG_DASH_PEER_EXPIRY_INTERVAL", value: "0s", want: "peer expiry interval"},
		{name: "default days above max", key: "WG_DASH_DEFAULT_PEER_DAYS_VALID", value: "4000", want: "default peer days valid"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(test.key, test.value)

			_, err := Load("wg-dash")
			if err == nil {
				t.Fatalf("expected %s=%s to be rejected", test.key, test.value)
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Fatalf("expected error about %q, got: %v", test.want, err)
			}
		})
	}
}
