package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/UnAfraid/wg-dash/pkg/client"
	"github.com/UnAfraid/wg-dash/pkg/clientconfig"
	"github.com/UnAfraid/wg-dash/pkg/dashboard"
)

var errPublicKeyRequired = errors.New("public key argument is required")

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "log in and store the bearer token",
		Action: func(c *cli.Context) error {
			username := c.String("username")
			password := c.String("password")
			if username == "" || password == "" {
				return errors.New("--username and --password are required")
			}

			dashClient, err := newClient(c)
			if err != nil {
				return err
			}

			token, err := dashClient.Login(c.Context, username, password)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.App.Writer, "Logged in as %s, token valid for %s\n", username, time.Duration(token.ExpiresIn)*time.Second)
			return nil
		},
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "forget the stored bearer token",
		Action: func(c *cli.Context) error {
			dashClient, err := newClient(c)
			if err != nil {
				return err
			}
			return dashClient.Logout()
		},
	}
}

func peersCommand() *cli.Command {
	return &cli.Command{
		Name:  "peers",
		Usage: "list, create and delete peers",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list peers",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "filter by public key or address prefix"},
				},
				Action: func(c *cli.Context) error {
					dashClient, err := newClient(c)
					if err != nil {
						return err
					}

					peers, err := dashClient.ListPeers(c.Context, c.String("query"))
					if err != nil {
						return err
					}
					return writePeers(c.App.Writer, peers)
				},
			},
			{
				Name:  "create",
				Usage: "create a peer and optionally write its client config",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "days", Aliases: []string{"d"}, Usage: "days the peer stays valid", Value: client.DefaultDaysValid},
					&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "directory to write the client config to"},
				},
				Action: func(c *cli.Context) error {
					dashClient, err := newClient(c)
					if err != nil {
						return err
					}

					p, err := dashClient.CreatePeer(c.Context, c.Int("days"))
					if err != nil {
						return err
					}

					logrus.WithField("publicKey", p.PublicKey).Info("peer created")
					if err := writePeers(c.App.Writer, []*client.Peer{p}); err != nil {
						return err
					}

					if dir := c.String("output-dir"); dir != "" {
						serverConfig, err := dashClient.ServerConfig(c.Context)
						if err != nil {
							return err
						}
						path, err := clientconfig.WriteFile(dir, p, serverConfig)
						if err != nil {
							return err
						}
						fmt.Fprintf(c.App.Writer, "Client config written to %s\n", path)
					}
					return nil
				},
			},
			{
				Name:      "delete",
				Usage:     "delete a peer",
				ArgsUsage: "<public-key>",
				Action: func(c *cli.Context) error {
					publicKey := c.Args().First()
					if publicKey == "" {
						return errPublicKeyRequired
					}

					dashClient, err := newClient(c)
					if err != nil {
						return err
					}

					deleted, err := dashClient.DeletePeer(c.Context, publicKey)
					if err != nil {
						return err
					}
					if !deleted {
						return fmt.Errorf("peer %s not found", publicKey)
					}

					fmt.Fprintf(c.App.Writer, "Deleted %s\n", publicKey)
					return nil
				},
			},
			{
				Name:      "config",
				Usage:     "print or write the client config of a peer",
				ArgsUsage: "<public-key>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "directory to write the client config to"},
				},
				Action: func(c *cli.Context) error {
					p, serverConfig, err := peerWithServerConfig(c)
					if err != nil {
						return err
					}

					if dir := c.String("output-dir"); dir != "" {
						path, err := clientconfig.WriteFile(dir, p, serverConfig)
						if err != nil {
							return err
						}
						fmt.Fprintf(c.App.Writer, "Client config written to %s\n", path)
						return nil
					}

					config, err := clientconfig.Render(p, serverConfig)
					if err != nil {
						return err
					}
					_, err = io.WriteString(c.App.Writer, config)
					return err
				},
			},
			{
				Name:      "qr",
				Usage:     "show the client config of a peer as a qr code",
				ArgsUsage: "<public-key>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "png", Usage: "write a png image to this path instead of the terminal"},
					&cli.IntFlag{Name: "size", Usage: "png size in pixels", Value: clientconfig.DefaultQRCodeSize},
				},
				Action: func(c *cli.Context) error {
					p, serverConfig, err := peerWithServerConfig(c)
					if err != nil {
						return err
					}

					config, err := clientconfig.Render(p, serverConfig)
					if err != nil {
						return err
					}

					if path := c.String("png"); path != "" {
						png, err := clientconfig.QRCodePNG(config, c.Int("size"))
						if err != nil {
							return err
						}
						if err := os.WriteFile(path, png, 0600); err != nil {
							return fmt.Errorf("failed to write qr code %s: %w", path, err)
						}
						fmt.Fprintf(c.App.Writer, "QR code written to %s\n", path)
						return nil
					}

					code, err := clientconfig.QRCodeTerminal(config)
					if err != nil {
						return err
					}
					_, err = io.WriteString(c.App.Writer, code)
					return err
				},
			},
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "show per peer traffic and handshake status",
		Action: func(c *cli.Context) error {
			dashClient, err := newClient(c)
			if err != nil {
				return err
			}

			stats, err := dashClient.Stats(c.Context)
			if err != nil {
				return err
			}
			return writeStats(c.App.Writer, time.Now(), stats)
		},
	}
}

func serverInfoCommand() *cli.Command {
	return &cli.Command{
		Name:  "serverinfo",
		Usage: "show server uptime and load",
		Action: func(c *cli.Context) error {
			dashClient, err := newClient(c)
			if err != nil {
				return err
			}

			info, err := dashClient.ServerInfo(c.Context)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.App.Writer, "Uptime: %s\nLoad:   %s\n", info.Uptime, info.Load)
			return nil
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "live dashboard of peers, traffic and server info",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "filter by public key or address prefix"},
			&cli.DurationFlag{Name: "stats-interval", Value: dashboard.DefaultStatsInterval},
			&cli.DurationFlag{Name: "server-info-interval", Value: dashboard.DefaultServerInfoInterval},
			&cli.DurationFlag{Name: "render-interval", Value: time.Second},
			&cli.DurationFlag{Name: "peer-poll-interval", Usage: "peer reload interval while the event stream is down", Value: dashboard.DefaultPeerPollInterval},
		},
		Action: func(c *cli.Context) error {
			dashClient, err := newClient(c)
			if err != nil {
				return err
			}
			return runWatch(c, dashClient)
		},
	}
}

func peerWithServerConfig(c *cli.Context) (*client.Peer, *client.ServerConfig, error) {
	publicKey := c.Args().First()
	if publicKey == "" {
		return nil, nil, errPublicKeyRequired
	}

	dashClient, err := newClient(c)
	if err != nil {
		return nil, nil, err
	}

	peers, err := dashClient.ListPeers(c.Context, "")
	if err != nil {
		return nil, nil, err
	}

	var found *client.Peer
	for _, p := range peers {
		if p.PublicKey == publicKey {
			found = p
			break
		}
	}
	if found == nil {
		return nil, nil, fmt.Errorf("peer %s not found", publicKey)
	}

	serverConfig, err := dashClient.ServerConfig(c.Context)
	if err != nil {
		return nil, nil, err
	}
	return found, serverConfig, nil
}

func writePeers(w io.Writer, peers []*client.Peer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PUBLIC KEY\tIPV4\tIPV6\tCREATED\tEXPIRES")
	for _, p := range peers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.PublicKey, p.IPv4Address, p.IPv6Address, p.CreatedAt, p.ExpiresAt)
	}
	return tw.Flush()
}

func writeStats(w io.Writer, now time.Time, stats []*client.Stat) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PUBLIC KEY\tHANDSHAKE AGE\tSTATUS\tRX MB\tTX MB")
	for _, stat := range stats {
		age := dashboard.HandshakeAge(now, stat.LastHandshakeTime)
		ageText := "never"
		if age >= 0 {
			ageText = fmt.Sprintf("%ds", age)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%.2f\n",
			stat.PublicKey,
			ageText,
			dashboard.HandshakeStatus(age),
			dashboard.BytesToMB(stat.RxBytes),
			dashboard.BytesToMB(stat.TxBytes),
		)
	}
	return tw.Flush()
}
