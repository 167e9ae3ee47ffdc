package model

import (
	"time"

	"github.com/UnAfraid/wg-dash/pkg/manage"
	"github.com/UnAfraid/wg-dash/pkg/serverinfo"
)

type ServerConfig struct {
	PublicKey           string `json:"public_key"`
	Endpoint            string `json:"endpoint"`
	AllowedIPs          string `json:"allowed_ips"`
	DNSServer           string `json:"dns_server,omitempty"`
	PersistentKeepalive int    `json:"persistent_keepalive"`
}

type ServerInfo struct {
	Uptime string `json:"uptime"`
	Load   string `json:"load"`
}

func ToServerConfig(serverConfig *manage.ServerConfig) *ServerConfig {
	if serverConfig == nil {
		return nil
	}
	return &ServerConfig{
		PublicKey:           serverConfig.PublicKey,
		Endpoint:            serverConfig.Endpoint,
		AllowedIPs:          serverConfig.AllowedIPs,
		DNSServer:           serverConfig.DNSServer,
		PersistentKeepalive: int(serverConfig.PersistentKeepalive / time.Second),
	}
}

func ToServerInfo(info *serverinfo.Info) *ServerInfo {
	if info == nil {
		return nil
	}
	return &ServerInfo{
		Uptime: info.Uptime,
		Load:   info.Load,
	}
}
