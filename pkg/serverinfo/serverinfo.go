package serverinfo

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/procfs"
)

var (
	ErrMalformedUptime  = errors.New("malformed uptime")
	ErrMalformedLoadAvg = errors.New("malformed load average")
)

type Info struct {
	Uptime string `json:"uptime"`
	Load   string `json:"load"`
}

type Reader struct {
	fs  procfs.FS
	now func() time.Time
}

// NewReader reads host statistics from the proc filesystem mounted at
// mountPoint, procfs.DefaultMountPoint when empty.
func NewReader(mountPoint string) (*Reader, error) {
	if mountPoint == "" {
		mountPoint = procfs.DefaultMountPoint
	}

	fs, err := procfs.NewFS(mountPoint)
	if err != nil {
		return nil, fmt.Errorf("failed to open proc filesystem at %s: %w", mountPoint, err)
	}

	return &Reader{
		fs:  fs,
		now: time.Now,
	}, nil
}

func (r *Reader) Read() (*Info, error) {
	uptime, err := r.uptime()
	if err != nil {
		return nil, err
	}

	load, err := r.load()
	if err != nil {
		return nil, err
	}

	return &Info{
		Uptime: uptime,
		Load:   load,
	}, nil
}

func (r *Reader) uptime() (string, error) {
	stat, err := r.fs.Stat()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to read kernel stat: %w", err)
		}
		return "", fmt.Errorf("%w: %s", ErrMalformedUptime, err)
	}
	if stat.BootTime == 0 {
		return "", fmt.Errorf("%w: missing boot time", ErrMalformedUptime)
	}

	uptime := r.now().Sub(time.Unix(int64(stat.BootTime), 0))
	if uptime < 0 {
		uptime = 0
	}
	return FormatUptime(uptime), nil
}

func (r *Reader) load() (string, error) {
	loadAvg, err := r.fs.LoadAvg()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to read load average: %w", err)
		}
		return "", fmt.Errorf("%w: %s", ErrMalformedLoadAvg, err)
	}

	return fmt.Sprintf("%.2f %.2f %.2f", loadAvg.Load1, loadAvg.Load5, loadAvg.Load15), nil
}

// FormatUptime renders the time of day portion of the uptime, whole days
// are discarded.
func FormatUptime(uptime time.Duration) string {
	total := int64(uptime / time.Second)
	hours := (total / 3600) % 24
	minutes := (total / 60) % 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
