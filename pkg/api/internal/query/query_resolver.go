package query

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/UnAfraid/wg-dash/pkg/api/internal/handler"
	"github.com/UnAfraid/wg-dash/pkg/api/internal/model"
	"github.com/UnAfraid/wg-dash/pkg/internal/adapt"
	"github.com/UnAfraid/wg-dash/pkg/manage"
	"github.com/UnAfraid/wg-dash/pkg/peer"
	"github.com/UnAfraid/wg-dash/pkg/serverinfo"
	"github.com/UnAfraid/wg-dash/pkg/wireguard/driver"
)

type ServerInfoReader interface {
	Read() (*serverinfo.Info, error)
}

type QueryResolver struct {
	manageService    manage.Service
	serverInfoReader ServerInfoReader
}

func NewQueryResolver(manageService manage.Service, serverInfoReader ServerInfoReader) *QueryResolver {
	return &QueryResolver{
		manageService:    manageService,
		serverInfoReader: serverInfoReader,
	}
}

func (r *QueryResolver) ServerConfig(w http.ResponseWriter, req *http.Request) {
	serverConfig, err := r.manageService.ServerConfig(req.Context())
	if err != nil {
		logrus.WithError(err).Warn("failed to resolve server config")
		if errors.Is(err, manage.ErrServerConfigUnavailable) {
			handler.WriteError(w, http.StatusServiceUnavailable, "Server config is unavailable")
			return
		}
		handler.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	handler.WriteJSON(w, http.StatusOK, model.ToServerConfig(serverConfig))
}

func (r *QueryResolver) Peers(w http.ResponseWriter, req *http.Request) {
	peers, err := r.manageService.FindPeers(req.Context(), &peer.FindOptions{
		Query: strings.TrimSpace(req.URL.Query().Get("query")),
	})
	if err != nil {
		logrus.WithError(err).Error("failed to find peers")
		handler.WriteError(w, http.StatusInternalServerError, "failed to list peers")
		return
	}

	handler.WriteJSON(w, http.StatusOK, adapt.Array(peers, model.ToPeer))
}

func (r *QueryResolver) PeerStats(w http.ResponseWriter, req *http.Request) {
	stats, err := r.manageService.PeerStats(req.Context())
	if err != nil {
		logrus.WithError(err).Error("failed to read peer stats")
		if errors.Is(err, driver.ErrDeviceNotFound) {
			handler.WriteError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		handler.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	handler.WriteJSON(w, http.StatusOK, adapt.Array(stats, model.ToStat))
}

func (r *QueryResolver) ServerInfo(w http.ResponseWriter, req *http.Request) {
	info, err := r.serverInfoReader.Read()
	if err != nil {
		logrus.WithError(err).Error("failed to read server info")
		handler.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	handler.WriteJSON(w, http.StatusOK, model.ToServerInfo(info))
}
