package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/UnAfraid/wg-dash/pkg/client"
)

const (
	DefaultStatsInterval = 10 * time.Second

	fetchTimeout = 15 * time.Second
	labelLayout  = "15:04:05"
)

type StatsFetcher interface {
	Stats(ctx context.Context) ([]*client.Stat, error)
}

type StatsSnapshot struct {
	Stats     []*client.Stat
	TotalRx   int64
	TotalTx   int64
	UpdatedAt time.Time
	History   []TrafficPoint
}

type StatsPoller struct {
	fetcher     StatsFetcher
	interval    time.Duration
	now         func() time.Time
	history     *TrafficHistory
	refreshChan chan struct{}
	stopChan    chan struct{}
	stoppedChan chan struct{}
	closeOnce   sync.Once

	mu        sync.RWMutex
	stats     []*client.Stat
	totalRx   int64
	totalTx   int64
	updatedAt time.Time
}

// NewStatsPoller fetches the stats right away and then every interval until
// Close is called.
func NewStatsPoller(fetcher StatsFetcher, interval time.Duration, historySize int) *StatsPoller {
	return newStatsPoller(fetcher, interval, historySize, time.Now)
}

func newStatsPoller(fetcher StatsFetcher, interval time.Duration, historySize int, now func() time.Time) *StatsPoller {
	if interval <= 0 {
		interval = DefaultStatsInterval
	}

	p := &StatsPoller{
		fetcher:     fetcher,
		interval:    interval,
		now:         now,
		history:     NewTrafficHistory(historySize),
		refreshChan: make(chan struct{}, 1),
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}

	go p.run()

	return p
}

func (p *StatsPoller) run() {
	defer close(p.stoppedChan)

	p.fetch()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopChan:
			return
		case <-ticker.C:
			p.fetch()
		case <-p.refreshChan:
			p.fetch()
		}
	}
}

func (p *StatsPoller) fetch() {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	stats, err := p.fetcher.Stats(ctx)
	if err != nil {
		logrus.WithError(err).Warn("dashboard: failed to fetch peer stats")
		return
	}

	var totalRx, totalTx int64
	for _, stat := range stats {
		totalRx += stat.RxBytes
		totalTx += stat.TxBytes
	}

	now := p.now()
	p.history.Add(now.Format(labelLayout), totalRx, totalTx)

	p.mu.Lock()
	p.stats = stats
	p.totalRx = totalRx
	p.totalTx = totalTx
	p.updatedAt = now
	p.mu.Unlock()
}

// Refresh schedules an immediate fetch, it never blocks.
func (p *StatsPoller) Refresh() {
	select {
	case p.refreshChan <- struct{}{}:
	default:
	}
}

func (p *StatsPoller) Snapshot() StatsSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return StatsSnapshot{
		Stats:     p.stats,
		TotalRx:   p.totalRx,
		TotalTx:   p.totalTx,
		UpdatedAt: p.updatedAt,
		History:   p.history.Points(),
	}
}

func (p *StatsPoller) Close() {
	p.closeOnce.Do(func() {
		close(p.stopChan)
	})
	<-p.stoppedChan
}
