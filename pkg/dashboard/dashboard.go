package dashboard

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/UnAfraid/wg-dash/pkg/client"
)

type Client interface {
	PeerClient
	StatsFetcher
	ServerInfoFetcher
}

type Options struct {
	Query              string
	StatsInterval      time.Duration
	ServerInfoInterval time.Duration
	HistorySize        int
	PeerPollInterval   time.Duration
}

type Dashboard struct {
	peerTable        *PeerTable
	statsPoller      *StatsPoller
	serverInfoPoller *ServerInfoPoller
	peerPollInterval time.Duration
	retryDelays      retryDelays
	now              func() time.Time
}

// NewDashboard loads the peer table and starts both pollers.
func NewDashboard(ctx context.Context, c Client, options Options) (*Dashboard, error) {
	peerTable := NewPeerTable(c, options.Query)
	if err := peerTable.Reload(ctx); err != nil {
		return nil, fmt.Errorf("failed to load peers: %w", err)
	}

	peerPollInterval := options.PeerPollInterval
	if peerPollInterval <= 0 {
		peerPollInterval = DefaultPeerPollInterval
	}

	return &Dashboard{
		peerTable:        peerTable,
		peerPollInterval: peerPollInterval,
		retryDelays:      defaultRetryDelays,
		statsPoller:      NewStatsPoller(c, options.StatsInterval, options.HistorySize),
		serverInfoPoller: NewServerInfoPoller(c, options.ServerInfoInterval),
		now:              time.Now,
	}, nil
}

func (d *Dashboard) PeerTable() *PeerTable {
	return d.peerTable
}

func (d *Dashboard) StatsPoller() *StatsPoller {
	return d.statsPoller
}

func (d *Dashboard) ServerInfoPoller() *ServerInfoPoller {
	return d.serverInfoPoller
}

// Watch keeps the view in sync with peer change events, every event reloads
// the table and refreshes the stats.
func (d *Dashboard) Watch(ctx context.Context, events <-chan *client.PeerChangedEvent, onEvent func(event *client.PeerChangedEvent)) {
	d.peerTable.Watch(ctx, events, func(event *client.PeerChangedEvent) {
		d.statsPoller.Refresh()
		if onEvent != nil {
			onEvent(event)
		}
	})
}

func (d *Dashboard) Render(w io.Writer) error {
	return render(w, d.now(), d.peerTable.Peers(), d.statsPoller.Snapshot(), d.serverInfoPoller)
}

func (d *Dashboard) Close() {
	d.statsPoller.Close()
	d.serverInfoPoller.Close()
}

type serverInfoSource interface {
	Info() (*client.ServerInfo, error)
}

func render(w io.Writer, now time.Time, peers []*client.Peer, snapshot StatsSnapshot, serverInfo serverInfoSource) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	info, infoErr := serverInfo.Info()
	switch {
	case info != nil:
		fmt.Fprintf(tw, "Uptime\t%s\tLoad\t%s\n", info.Uptime, info.Load)
	case infoErr != nil:
		fmt.Fprintf(tw, "Server info\tunavailable: %v\n", infoErr)
	default:
		fmt.Fprintf(tw, "Server info\tloading\n")
	}

	updated := "never"
	if !snapshot.UpdatedAt.IsZero() {
		updated = snapshot.UpdatedAt.Format(labelLayout)
	}
	fmt.Fprintf(tw, "Received\t%.2f MB\tSent\t%.2f MB\tUpdated\t%s\n", BytesToMB(snapshot.TotalRx), BytesToMB(snapshot.TotalTx), updated)
	fmt.Fprintln(tw)

	stats := make(map[string]*client.Stat, len(snapshot.Stats))
	for _, stat := range snapshot.Stats {
		stats[stat.PublicKey] = stat
	}

	fmt.Fprintln(tw, "PUBLIC KEY\tIPV4\tIPV6\tEXPIRES\tHANDSHAKE\tSTATUS\tRX MB\tTX MB")
	seen := make(map[string]struct{}, len(peers))
	for _, p := range peers {
		seen[p.PublicKey] = struct{}{}
		writePeerRow(tw, now, p.PublicKey, p.IPv4Address, p.IPv6Address, p.ExpiresAt, stats[p.PublicKey])
	}
	for _, stat := range snapshot.Stats {
		if _, ok := seen[stat.PublicKey]; ok {
			continue
		}
		writePeerRow(tw, now, stat.PublicKey, "-", "-", "-", stat)
	}

	if len(snapshot.History) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "TIME\tRX MB\tTX MB")
		for _, point := range snapshot.History {
			fmt.Fprintf(tw, "%s\t%.2f\t%.2f\n", point.Label, point.RxMB, point.TxMB)
		}
	}

	return tw.Flush()
}

func writePeerRow(w io.Writer, now time.Time, publicKey string, ipv4 string, ipv6 string, expiresAt string, stat *client.Stat) {
	if ipv6 == "" {
		ipv6 = "-"
	}

	age := int64(-1)
	var rx, tx int64
	if stat != nil {
		age = HandshakeAge(now, stat.LastHandshakeTime)
		rx = stat.RxBytes
		tx = stat.TxBytes
	}

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%.2f\t%.2f\n",
		publicKey,
		ipv4,
		ipv6,
		expiresAt,
		formatHandshakeAge(age),
		strings.ToUpper(string(HandshakeStatus(age))),
		BytesToMB(rx),
		BytesToMB(tx),
	)
}

func formatHandshakeAge(age int64) string {
	if age < 0 {
		return "never"
	}
	return (time.Duration(age) * time.Second).String() + " ago"
}
