package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultExpiryInterval = time.Hour
	expiryTimeout         = time.Minute
)

// PeerExpirer removes peers whose expiry lies before now and reports how many
// were removed.
type PeerExpirer interface {
	ExpirePeers(ctx context.Context, now time.Time) (int, error)
}

type Scheduler interface {
	Close()
}

type scheduler struct {
	expirer     PeerExpirer
	interval    time.Duration
	now         func() time.Time
	stopChan    chan struct{}
	stoppedChan chan struct{}
	closeOnce   sync.Once
}

// NewScheduler runs the expiry job right away and then every interval until
// Close is called.
func NewScheduler(expirer PeerExpirer, interval time.Duration) Scheduler {
	return newScheduler(expirer, interval, time.Now)
}

func newScheduler(expirer PeerExpirer, interval time.Duration, now func() time.Time) *scheduler {
	if interval <= 0 {
		interval = defaultExpiryInterval
	}

	s := &scheduler{
		expirer:     expirer,
		interval:    interval,
		now:         now,
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}

	go s.runPeriodicTasks()

	return s
}

func (s *scheduler) runPeriodicTasks() {
	defer close(s.stoppedChan)

	s.expirePeers()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.expirePeers()
		}
	}
}

func (s *scheduler) expirePeers() {
	ctx, cancel := context.WithTimeout(context.Background(), expiryTimeout)
	defer cancel()

	logrus.Debug("scheduler: removing expired peers")

	count, err := s.expirer.ExpirePeers(ctx, s.now().UTC())
	if err != nil {
		logrus.
			WithError(err).
			WithField("removed", count).
			Error("scheduler: failed to remove expired peers")
		return
	}

	if count > 0 {
		logrus.WithField("removed", count).Info("scheduler: removed expired peers")
	} else {
		logrus.Debug("scheduler: no expired peers found")
	}
}

func (s *scheduler) Close() {
	s.closeOnce.Do(func() {
		close(s.stopChan)
	})
	<-s.stoppedChan
}
