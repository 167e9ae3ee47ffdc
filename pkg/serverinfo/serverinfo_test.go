package serverinfo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testBootTime = 1700000000

func newTestReader(t *testing.T, stat string, loadAvg string) *Reader {
	t.Helper()

	dir := t.TempDir()
	if stat != "" {
		if err := os.WriteFile(filepath.Join(dir, "stat"), []byte(stat), 0o644); err != nil {
			t.Fatalf("failed to write stat: %v", err)
		}
	}
	if loadAvg != "" {
		if err := os.WriteFile(filepath.Join(dir, "loadavg"), []byte(loadAvg), 0o644); err != nil {
			t.Fatalf("failed to write loadavg: %v", err)
		}
	}

	r, err := NewReader(dir)
	if err != nil {
		t.Fatalf("failed to create reader: %v", err)
	}
	r.now = func() time.Time {
		return time.Unix(testBootTime+3725, 0)
	}
	return r
}

func TestReaderRead(t *testing.T) {
	r := newTestReader(t, "btime 1700000000\nprocesses 1234\n", "0.5 0.25 0.125 1/234 5678\n")

	info, err := r.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Uptime != "01:02:05" {
		t.Fatalf("unexpected uptime: %q", info.Uptime)
	}
	if info.Load != "0.50 0.25 0.12" && info.Load != "0.50 0.25 0.13" {
		t.Fatalf("unexpected load: %q", info.Load)
	}
}

func TestReaderReadBootTimeInFuture(t *testing.T) {
	r := newTestReader(t, "btime 1800000000\n", "0.00 0.00 0.00 1/1 1\n")

	info, err := r.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Uptime != "00:00:00" {
		t.Fatalf("unexpected uptime: %q", info.Uptime)
	}
}

func TestReaderReadMissingBootTime(t *testing.T) {
	r := newTestReader(t, "processes 1234\n", "0.00 0.00 0.00 1/1 1\n")

	if _, err := r.Read(); !errors.Is(err, ErrMalformedUptime) {
		t.Fatalf("expected ErrMalformedUptime, got %v", err)
	}
}

func TestReaderReadMalformedLoadAvg(t *testing.T) {
	r := newTestReader(t, "btime 1700000000\n", "0.00 0.00")

	if _, err := r.Read(); !errors.Is(err, ErrMalformedLoadAvg) {
		t.Fatalf("expected ErrMalformedLoadAvg, got %v", err)
	}
}

func TestReaderReadMissingFile(t *testing.T) {
	r := newTestReader(t, "", "")

	if _, err := r.Read(); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not exist error, got %v", err)
	}
}

func TestNewReaderMissingMountPoint(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing mount point")
	}
}

func TestFormatUptimeWrapsDays(t *testing.T) {
	tests := []struct {
		uptime time.Duration
		want   string
	}{
		{uptime: 0, want: "00:00:00"},
		{uptime: 59 * time.Second, want: "00:00:59"},
		{uptime: 25*time.Hour + 30*time.Minute, want: "01:30:00"},
		{uptime: 48*time.Hour + 1500*time.Millisecond, want: "00:00:01"},
	}

	for _, tt := range tests {
		if got := FormatUptime(tt.uptime); got != tt.want {
			t.Fatalf("FormatUptime(%s) = %q, want %q", tt.uptime, got, tt.want)
		}
	}
}
