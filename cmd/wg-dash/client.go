package main

import (
	"github.com/urfave/cli/v2"

	"github.com/UnAfraid/wg-dash/pkg/client"
)

func newClient(c *cli.Context) (*client.Client, error) {
	tokenFile := c.String("token-file")
	if tokenFile == "" {
		var err error
		if tokenFile, err = client.DefaultTokenFile(); err != nil {
			return nil, err
		}
	}

	return client.New(client.Options{
		BaseURL:    c.String("server"),
		TokenStore: client.NewFileTokenStore(tokenFile),
		Username:   c.String("username"),
		Password:   c.String("password"),
	})
}
