package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/UnAfraid/wg-dash/pkg/client"
	"github.com/UnAfraid/wg-dash/pkg/dashboard"
)

const clearScreen = "\033[H\033[2J"

func runWatch(c *cli.Context, dashClient *client.Client) error {
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	renderInterval := c.Duration("render-interval")
	if renderInterval <= 0 {
		return fmt.Errorf("invalid render interval: %s", renderInterval)
	}

	d, err := dashboard.NewDashboard(ctx, dashClient, dashboard.Options{
		Query:              c.String("query"),
		StatsInterval:      c.Duration("stats-interval"),
		ServerInfoInterval: c.Duration("server-info-interval"),
		HistorySize:        dashboard.DefaultHistorySize,
		PeerPollInterval:   c.Duration("peer-poll-interval"),
	})
	if err != nil {
		return err
	}
	defer d.Close()

	go d.Follow(ctx, dashClient, func(event *client.PeerChangedEvent) {
		entry := logrus.WithField("action", event.Action)
		if event.Peer != nil {
			entry = entry.WithField("publicKey", event.Peer.PublicKey)
		}
		entry.Debug("peer changed")
	})

	ticker := time.NewTicker(renderInterval)
	defer ticker.Stop()

	for {
		if err := redraw(c.App.Writer, d); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func redraw(w io.Writer, d *dashboard.Dashboard) error {
	var buf bytes.Buffer
	buf.WriteString(clearScreen)
	if err := d.Render(&buf); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}
