package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/UnAfraid/wg-dash/pkg/peer"
	"github.com/UnAfraid/wg-dash/pkg/wireguard"
)

const (
	namespace      = "wgdash"
	collectTimeout = 5 * time.Second
)

// Collector exports the stored peers and the live interface counters. Values
// are read on every scrape, nothing is cached between scrapes.
type Collector struct {
	peerService      peer.Service
	wireguardService wireguard.Service

	up                *prometheus.Desc
	peers             *prometheus.Desc
	peerReceiveBytes  *prometheus.Desc
	peerTransmitBytes *prometheus.Desc
	peerLastHandshake *prometheus.Desc
}

func NewCollector(peerService peer.Service, wireguardService wireguard.Service) *Collector {
	return &Collector{
		peerService:      peerService,
		wireguardService: wireguardService,
		up: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "interface_up"),
			"Whether the wireguard interface could be read (1) or not (0)",
			[]string{"interface"}, nil,
		),
		peers: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "peers"),
			"Number of stored peers",
			nil, nil,
		),
		peerReceiveBytes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "peer", "receive_bytes_total"),
			"Bytes received from the peer",
			[]string{"interface", "public_key"}, nil,
		),
		peerTransmitBytes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "peer", "transmit_bytes_total"),
			"Bytes transmitted to the peer",
			[]string{"interface", "public_key"}, nil,
		),
		peerLastHandshake: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "peer", "last_handshake_seconds"),
			"Unix time of the last handshake with the peer, 0 when none happened",
			[]string{"interface", "public_key"}, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.up
	ch <- c.peers
	ch <- c.peerReceiveBytes
	ch <- c.peerTransmitBytes
	ch <- c.peerLastHandshake
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
	defer cancel()

	peers, err := c.peerService.FindPeers(ctx, nil)
	if err != nil {
		logrus.WithError(err).Warn("metrics: failed to find peers")
	} else {
		ch <- prometheus.MustNewConstMetric(c.peers, prometheus.GaugeValue, float64(len(peers)))
	}

	interfaceName := c.wireguardService.InterfaceName()
	device, err := c.wireguardService.Device(ctx)
	if err != nil {
		logrus.
			WithError(err).
			WithField("interface", interfaceName).
			Warn("metrics: failed to read device")
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0, interfaceName)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 1, interfaceName)

	for _, p := range device.Peers {
		var lastHandshake float64
		if !p.Stats.LastHandshakeTime.IsZero() {
			lastHandshake = float64(p.Stats.LastHandshakeTime.Unix())
		}

		ch <- prometheus.MustNewConstMetric(c.peerReceiveBytes, prometheus.CounterValue, float64(p.Stats.ReceiveBytes), interfaceName, p.PublicKey)
		ch <- prometheus.MustNewConstMetric(c.peerTransmitBytes, prometheus.CounterValue, float64(p.Stats.TransmitBytes), interfaceName, p.PublicKey)
		ch <- prometheus.MustNewConstMetric(c.peerLastHandshake, prometheus.GaugeValue, lastHandshake, interfaceName, p.PublicKey)
	}
}
