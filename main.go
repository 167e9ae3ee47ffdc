package main

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/UnAfraid/wg-dash/pkg/api"
	"github.com/UnAfraid/wg-dash/pkg/auth"
	"github.com/UnAfraid/wg-dash/pkg/config"
	"github.com/UnAfraid/wg-dash/pkg/datastore"
	"github.com/UnAfraid/wg-dash/pkg/datastore/bbolt"
	"github.com/UnAfraid/wg-dash/pkg/dbx"
	"github.com/UnAfraid/wg-dash/pkg/endpoint"
	"github.com/UnAfraid/wg-dash/pkg/manage"
	"github.com/UnAfraid/wg-dash/pkg/metrics"
	"github.com/UnAfraid/wg-dash/pkg/peer"
	"github.com/UnAfraid/wg-dash/pkg/scheduler"
	"github.com/UnAfraid/wg-dash/pkg/serverinfo"
	"github.com/UnAfraid/wg-dash/pkg/subscription"
	"github.com/UnAfraid/wg-dash/pkg/user"
	"github.com/UnAfraid/wg-dash/pkg/wgconf"
	"github.com/UnAfraid/wg-dash/pkg/wireguard"
	"github.com/UnAfraid/wg-dash/pkg/wireguard/builtin"
	"github.com/UnAfraid/wg-dash/pkg/wireguard/driver"
)

const (
	appName = "wg-dash"

	endpointDiscoveryTimeout = 10 * time.Second
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
		TimestampFormat: time.RFC3339,
	})

	conf, err := config.Load(appName)
	if err != nil {
		logrus.
			WithError(err).
			Fatal("failed to initialize config")
		return
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGTERM, syscall.SIGINT)

	if _, err := maxprocs.Set(maxprocs.Logger(logrus.Printf)); err != nil {
		logrus.
			WithError(err).
			Error("failed to set maxprocs")
		return
	}

	builtin.RegisterAll()
	if !driver.IsSupported(conf.Wireguard.Backend) {
		logrus.
			WithField("backend", conf.Wireguard.Backend).
			WithField("supported", strings.Join(driver.ListSupportedTypes(), ",")).
			Fatal("unsupported wireguard backend")
		return
	}

	jwtSecretBytes, err := base64.StdEncoding.DecodeString(conf.JwtSecret)
	if err != nil {
		logrus.
			WithError(err).
			Fatal("failed to base64 decode jwt secret")
		return
	}

	initialUsername, initialPassword, err := conf.Initial.Credentials()
	if err != nil {
		logrus.
			WithError(err).
			Fatal("failed to read initial credentials")
		return
	}

	configFile := wgconf.NewFile(conf.Wireguard.ConfigPath)
	if conf.Wireguard.Bootstrap {
		if _, err := configFile.Bootstrap(wgconf.BootstrapOptions{
			PrivateKeyPath:   conf.Wireguard.PrivateKeyPath,
			PrivateKeySecret: conf.Wireguard.PrivateKeySecret,
			Addresses:        conf.Wireguard.InterfaceAddresses,
			ListenPort:       conf.Wireguard.ListenPort,
		}); err != nil {
			logrus.
				WithError(err).
				Fatal("failed to bootstrap wireguard config")
			return
		}
	}

	endpointCtx, cancelEndpoint := context.WithTimeout(context.Background(), endpointDiscoveryTimeout)
	serverEndpoint, err := endpoint.NewResolver(endpointDiscoveryTimeout).Resolve(endpointCtx, conf.Wireguard.Endpoint, conf.Wireguard.ListenPort)
	cancelEndpoint()
	if err != nil {
		logrus.
			WithError(err).
			WithField("endpoint", conf.Wireguard.Endpoint).
			Fatal("failed to resolve server endpoint")
		return
	}
	logrus.WithField("endpoint", serverEndpoint).Info("resolved server endpoint")

	logrus.Info("initializing database..")
	db, err := datastore.NewBBoltDB(conf.BoltDB.Path, conf.BoltDB.Timeout)
	if err != nil {
		logrus.
			WithError(err).
			Fatal("failed initialize datastore")
		return
	}
	defer func() {
		if err := db.Close(); err != nil {
			logrus.
				WithError(err).
				Error("failed to close database")
		}
	}()

	transactionScoper := dbx.NewBBoltTransactionScoper(db)
	subscriptionImpl := subscription.NewInMemorySubscription()

	userRepository := bbolt.NewUserRepository(db)
	userService, err := user.NewService(userRepository, initialUsername, initialPassword)
	if err != nil {
		logrus.
			WithError(err).
			Fatal("failed to initialize user service")
		return
	}

	addressAllocator, err := peer.NewAddressAllocator(conf.Wireguard.IPv4Pool, conf.Wireguard.IPv6Pool)
	if err != nil {
		logrus.
			WithError(err).
			Fatal("failed to initialize address allocator")
		return
	}

	peerRepository := bbolt.NewPeerRepository(db)
	peerService := peer.NewService(peerRepository, addressAllocator, subscriptionImpl, conf.MaxPeerDaysValid)

	wireguardRegistry := wireguard.NewRegistry()
	wireguardService := wireguard.NewService(wireguardRegistry, conf.Wireguard.Backend, conf.Wireguard.Interface)
	defer func() {
		if err := wireguardService.Close(context.Background()); err != nil {
			logrus.
				WithError(err).
				Error("failed to close wireguard service")
		}
	}()

	authService := auth.NewService(jwtSecretBytes, conf.JwtDuration)

	manageService := manage.NewService(
		transactionScoper,
		peerService,
		wireguardService,
		configFile,
		manage.ServerOptions{
			Endpoint:            serverEndpoint,
			AllowedIPs:          strings.Join(conf.Wireguard.AllowedIPList(), ", "),
			DNSServer:           strings.Join(conf.Wireguard.DNSServerList(), ", "),
			PrivateKeyPath:      conf.Wireguard.PrivateKeyPath,
			PersistentKeepalive: time.Duration(conf.ClientKeepaliveInterval) * time.Second,
		},
	)

	if err := manageService.Reconcile(context.Background()); err != nil {
		logrus.
			WithError(err).
			Error("failed to reconcile peers")
	}

	expiryScheduler := scheduler.NewScheduler(manageService, conf.PeerExpiryInterval)
	defer expiryScheduler.Close()

	debugServer := &http.Server{
		Addr:    conf.DebugServer.Address(),
		Handler: newDebugHandler(conf.DebugServer, peerService, wireguardService),
	}

	if conf.DebugServer.Enabled {
		go func() {
			logrus.WithField("address", conf.DebugServer.Address()).Info("Starting serving debug server")
			if err := debugServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.
					WithError(err).
					Fatal("Failed to serve debug")
				return
			}
		}()
	}

	serverInfoReader, err := serverinfo.NewReader(conf.ProcMountPoint)
	if err != nil {
		logrus.
			WithError(err).
			Fatal("failed to initialize server info reader")
		return
	}

	router := api.NewRouter(
		conf,
		authService,
		userService,
		peerService,
		manageService,
		serverInfoReader,
	)

	httpServer := http.Server{
		Addr:         conf.HttpServer.Address(),
		Handler:      router,
		ReadTimeout:  conf.HttpServer.ReadTimeout,
		WriteTimeout: conf.HttpServer.WriteTimeout,
	}

	go func() {
		logrus.WithField("address", conf.HttpServer.Address()).Info("Starting serving http server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.
				WithError(err).
				Fatal("failed to listen and serve http server")
		}
	}()

	<-shutdownChan
	logrus.Info("Shutting down")

	logrus.Info("Shutting down http server")
	httpServerShutdownTimeoutCtx, cancel := context.WithTimeout(context.Background(), conf.HttpServer.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(httpServerShutdownTimeoutCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.
			WithError(err).
			Error("failed to shutdown http server")
	}

	if conf.DebugServer.Enabled {
		logrus.Info("Shutting down debug http server")
		debugHttpServerShutdownTimeoutCtx, cancel := context.WithTimeout(context.Background(), conf.HttpServer.ShutdownTimeout)
		defer cancel()
		if err := debugServer.Shutdown(debugHttpServerShutdownTimeoutCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.
				WithError(err).
				Error("failed to shutdown debug server")
		}
	}
}

func newDebugHandler(conf *config.DebugServer, peerService peer.Service, wireguardService wireguard.Service) http.Handler {
	mux := http.NewServeMux()

	if conf.MetricsEnabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			metrics.NewCollector(peerService, wireguardService),
		)
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	if conf.PprofEnabled {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	return mux
}
