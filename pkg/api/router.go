package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/UnAfraid/wg-dash/pkg/api/internal/handler"
	"github.com/UnAfraid/wg-dash/pkg/api/internal/mutation"
	"github.com/UnAfraid/wg-dash/pkg/api/internal/query"
	"github.com/UnAfraid/wg-dash/pkg/api/internal/subscription"
	"github.com/UnAfraid/wg-dash/pkg/auth"
	"github.com/UnAfraid/wg-dash/pkg/config"
	"github.com/UnAfraid/wg-dash/pkg/manage"
	"github.com/UnAfraid/wg-dash/pkg/peer"
	"github.com/UnAfraid/wg-dash/pkg/user"
)

func NewRouter(
	conf *config.Config,
	authService auth.Service,
	userService user.Service,
	peerService peer.Service,
	manageService manage.Service,
	serverInfoReader query.ServerInfoReader,
) http.Handler {
	corsMiddleware := cors.Handler(cors.Options{
		AllowedOrigins:   conf.CorsAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: conf.CorsAllowCredentials,
	})

	loginRateLimiter := httprate.Limit(
		conf.LoginRateLimit,
		conf.LoginRateWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			handler.WriteError(w, http.StatusTooManyRequests, "Too many login attempts")
		}),
	)

	authHandler := handler.NewAuthenticationHandler(authService, userService)
	queryResolver := query.NewQueryResolver(manageService, serverInfoReader)
	mutationResolver := mutation.NewMutationResolver(
		authService,
		userService,
		manageService,
		conf.DefaultPeerDaysValid,
		conf.MaxPeerDaysValid,
	)
	subscriptionResolver := subscription.NewSubscriptionResolver(
		peerService,
		conf.HttpServer.EventsPingPeriod,
		newOriginChecker(conf.EventsAllowedOrigins, conf.CorsAllowedOrigins).Check,
	)

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(corsMiddleware)

	router.Group(func(r chi.Router) {
		r.HandleFunc("/health", func(writer http.ResponseWriter, request *http.Request) {})
		r.With(loginRateLimiter).Post("/api/login", mutationResolver.Login)
	})

	router.Group(func(r chi.Router) {
		r.Use(authHandler.AuthenticationMiddleware())

		r.Get("/api/config", queryResolver.ServerConfig)
		r.Get("/api/serverinfo", queryResolver.ServerInfo)
		r.Get("/api/peers/list", queryResolver.Peers)
		r.Get("/api/peers/stats", queryResolver.PeerStats)
		r.Post("/api/peers/new", mutationResolver.CreatePeer)
		r.Post("/api/peers/delete", mutationResolver.DeletePeer)
		r.Get("/api/peers/events", subscriptionResolver.PeerChanged)
	})

	return router
}
