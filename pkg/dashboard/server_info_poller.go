package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/UnAfraid/wg-dash/pkg/client"
)

const DefaultServerInfoInterval = time.Minute

type ServerInfoFetcher interface {
	ServerInfo(ctx context.Context) (*client.ServerInfo, error)
}

// ServerInfoPoller keeps the latest server info, a failed fetch keeps the
// previous value.
type ServerInfoPoller struct {
	fetcher     ServerInfoFetcher
	interval    time.Duration
	stopChan    chan struct{}
	stoppedChan chan struct{}
	closeOnce   sync.Once

	mu   sync.RWMutex
	info *client.ServerInfo
	err  error
}

func NewServerInfoPoller(fetcher ServerInfoFetcher, interval time.Duration) *ServerInfoPoller {
	if interval <= 0 {
		interval = DefaultServerInfoInterval
	}

	p := &ServerInfoPoller{
		fetcher:     fetcher,
		interval:    interval,
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}

	go p.run()

	return p
}

func (p *ServerInfoPoller) run() {
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
		}
	}
}

func (p *ServerInfoPoller) fetch() {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	info, err := p.fetcher.ServerInfo(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.err = err
	if err != nil {
		logrus.WithError(err).Warn("dashboard: failed to fetch server info")
		return
	}
	p.info = info
}

// Info returns the latest server info and the error of the last fetch.
func (p *ServerInfoPoller) Info() (*client.ServerInfo, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.info, p.err
}

func (p *ServerInfoPoller) Close() {
	p.closeOnce.Do(func() {
		close(p.stopChan)
	})
	<-p.stoppedChan
}
