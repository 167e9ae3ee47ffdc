package config

import (
	"time"
)

type BoltDB struct {
	Path    string        `default:"/data/wg-dash.db"`
	Timeout time.Duration `default:"5s"`
}
