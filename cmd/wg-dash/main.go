package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		logrus.WithError(err).Error("wg-dash failed")
		cancel()
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "wg-dash",
		Usage: "manage WireGuard peers on a wg-dash server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "base url of the wg-dash server",
				EnvVars: []string{"WG_DASH_SERVER"},
				Value:   "http://localhost:8080",
			},
			&cli.StringFlag{
				Name:    "username",
				Aliases: []string{"u"},
				Usage:   "operator username, enables automatic login",
				EnvVars: []string{"WG_DASH_USERNAME"},
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "operator password, enables automatic login",
				EnvVars: []string{"WG_DASH_PASSWORD"},
			},
			&cli.StringFlag{
				Name:    "token-file",
				Usage:   "file the bearer token is kept in",
				EnvVars: []string{"WG_DASH_TOKEN_FILE"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (trace, debug, info, warn, error)",
				EnvVars: []string{"WG_DASH_LOG_LEVEL"},
				Value:   "warn",
			},
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			loginCommand(),
			logoutCommand(),
			peersCommand(),
			statsCommand(),
			serverInfoCommand(),
			watchCommand(),
		},
	}
}

func setupLogging(c *cli.Context) error {
	level, err := logrus.ParseLevel(c.String("log-level"))
	if err != nil {
		return err
	}

	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logrus.SetLevel(level)
	return nil
}
