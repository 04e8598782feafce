// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the wiring layer. It connects storage, services,
// handlers and middleware, and decides which URL maps to which handler.
// main.go stays minimal: load config, build a logger, start the server.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → sqlite.DB, media.Store, auth.TokenService ...
//	             → service.*Service (repository interfaces + collaborators)
//	             → handler.*Handler (services only)
//
// This is the "composition root": every dependency is built in New and
// nowhere else.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/videotube/internal/auth"
	"github.com/sakif/videotube/internal/config"
	"github.com/sakif/videotube/internal/handler"
	"github.com/sakif/videotube/internal/media"
	"github.com/sakif/videotube/internal/middleware"
	sqliteRepo "github.com/sakif/videotube/internal/repository/sqlite"
	"github.com/sakif/videotube/internal/service"
)

// Server owns the router and the resources that must be released on
// shutdown (the database connection).
type Server struct {
	router   *chi.Mux
	config   *config.Config
	logger   *slog.Logger
	db       *sqliteRepo.DB
	media    media.Store
	registry *prometheus.Registry
}

// New opens storage, builds every service and handler, and registers the
// routes. The caller must Close the server (Start does it on shutdown).
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	// === STORAGE ===
	db, err := sqliteRepo.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store, err := newMediaStore(context.Background(), cfg.Media)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating media store: %w", err)
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		media:    store,
		registry: prometheus.NewRegistry(),
	}
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// newMediaStore picks the media backend named in config.
func newMediaStore(ctx context.Context, cfg config.Media) (media.Store, error) {
	switch cfg.Driver {
	case config.MediaDriverS3:
		store, err := media.NewS3Store(ctx, media.S3Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			BaseURL:   cfg.S3.BaseURL,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.MediaDriverLocal:
		store, err := media.NewLocalStore(cfg.Local.Dir, cfg.Local.BaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown media driver %q", cfg.Driver)
	}
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET  /healthz            liveness + database ping
//	GET  /metrics            Prometheus
//	GET  /media/*            stored files (local media driver only)
//	     /api/v1/users       session and account
//	     /api/v1/videos      catalogue and uploads
//	     /api/v1/comments    /likes /subscriptions /playlists /tweets /dashboard
//
// MIDDLEWARE ORDER MATTERS:
// RequestID first so every later log line can carry it, then RealIP,
// then logging and metrics around Recoverer so a recovered panic is still
// logged and counted as a 500.
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		AccessSecret:  s.config.Tokens.AccessSecret,
		AccessTTL:     s.config.Tokens.AccessTTL,
		RefreshSecret: s.config.Tokens.RefreshSecret,
		RefreshTTL:    s.config.Tokens.RefreshTTL,
		Issuer:        s.config.Tokens.Issuer,
	})
	if err != nil {
		return err
	}
	passwords, err := auth.NewPasswordService(s.config.Auth.BcryptCost)
	if err != nil {
		return err
	}
	ids, err := auth.NewIdentityResolver(s.config.Auth.AllowedEmailDomain)
	if err != nil {
		return err
	}

	// === SERVICES ===
	// s.db implements every repository interface; each service receives only
	// the ones it needs.
	authService := service.NewAuthService(s.db, tokens, passwords, ids, s.media, service.NewAuthMetrics(s.registry), s.logger)
	userService := service.NewUserService(s.db, ids, s.media, s.logger)
	videoService := service.NewVideoService(s.db, s.db, s.media, s.logger)
	commentService := service.NewCommentService(s.db, s.db, s.logger)
	likeService := service.NewLikeService(s.db, s.db, s.db, s.db, s.logger)
	subscriptionService := service.NewSubscriptionService(s.db, s.db, s.logger)
	playlistService := service.NewPlaylistService(s.db, s.db, s.db, s.logger)
	tweetService := service.NewTweetService(s.db, s.db, s.logger)
	dashboardService := service.NewDashboardService(s.db, s.db, s.db)

	// === HANDLERS ===
	maxUpload := s.config.Media.MaxUploadBytes
	users := handler.NewUserHandler(authService, userService, handler.CookieConfig{
		Secure:     s.config.HTTP.CookieSecure,
		AccessTTL:  s.config.Tokens.AccessTTL,
		RefreshTTL: s.config.Tokens.RefreshTTL,
	}, maxUpload, s.logger)
	videos := handler.NewVideoHandler(videoService, maxUpload, s.logger)
	comments := handler.NewCommentHandler(commentService, s.logger)
	likes := handler.NewLikeHandler(likeService, s.logger)
	subs := handler.NewSubscriptionHandler(subscriptionService, s.logger)
	playlists := handler.NewPlaylistHandler(playlistService, s.logger)
	tweets := handler.NewTweetHandler(tweetService, s.logger)
	dashboard := handler.NewDashboardHandler(dashboardService, s.logger)
	health := handler.NewHealthHandler(s.db, s.logger)

	requireAuth := auth.RequireAuth(tokens, s.db, s.logger)
	optionalAuth := auth.OptionalAuth(tokens, s.db)

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.NewHTTPMetrics(s.registry).Middleware)
	s.router.Use(chimiddleware.Recoverer)

	// === Operational ===
	s.router.Get("/healthz", health.HandleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))

	if local, ok := s.media.(*media.LocalStore); ok {
		fileServer := http.FileServer(http.Dir(local.Dir()))
		s.router.Handle("/media/*", http.StripPrefix("/media/", fileServer))
	}

	// === API Routes ===
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", users.HandleRegister)
			r.Post("/login", users.HandleLogin)
			r.Post("/refresh-token", users.HandleRefreshToken)
			r.With(optionalAuth).Get("/c/{username}", users.HandleChannelProfile)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", users.HandleLogout)
				r.Post("/change-password", users.HandleChangePassword)
				r.Get("/current-user", users.HandleCurrentUser)
				r.Patch("/update-account", users.HandleUpdateAccount)
				r.Patch("/avatar", users.HandleUpdateAvatar)
				r.Patch("/cover-image", users.HandleUpdateCoverImage)
				r.Get("/history", users.HandleWatchHistory)
			})
		})

		r.Route("/videos", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(optionalAuth)
				r.Get("/", videos.HandleList)
				r.Get("/user/{userId}", videos.HandleListByOwner)
				r.Get("/{videoId}", videos.HandleGet)
			})
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", videos.HandlePublish)
				r.Patch("/{videoId}", videos.HandleUpdate)
				r.Delete("/{videoId}", videos.HandleDelete)
				r.Patch("/toggle/publish/{videoId}", videos.HandleTogglePublish)
			})
		})

		r.Route("/comments", func(r chi.Router) {
			r.With(optionalAuth).Get("/{videoId}", comments.HandleList)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/{videoId}", comments.HandleAdd)
				r.Patch("/c/{commentId}", comments.HandleUpdate)
				r.Delete("/c/{commentId}", comments.HandleDelete)
			})
		})

		r.Route("/likes", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/toggle/v/{videoId}", likes.HandleToggleVideo)
			r.Post("/toggle/c/{commentId}", likes.HandleToggleComment)
			r.Post("/toggle/t/{tweetId}", likes.HandleToggleTweet)
			r.Get("/videos", likes.HandleLikedVideos)
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.With(requireAuth).Post("/c/{channelId}", subs.HandleToggle)
			r.Group(func(r chi.Router) {
				r.Use(optionalAuth)
				r.Get("/c/{channelId}", subs.HandleSubscribers)
				r.Get("/u/{subscriberId}", subs.HandleSubscribedChannels)
			})
		})

		r.Route("/playlists", func(r chi.Router) {
			r.Get("/user/{userId}", playlists.HandleListByUser)
			r.Get("/{playlistId}", playlists.HandleGet)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", playlists.HandleCreate)
				r.Patch("/{playlistId}", playlists.HandleUpdate)
				r.Delete("/{playlistId}", playlists.HandleDelete)
				r.Patch("/add/{videoId}/{playlistId}", playlists.HandleAddVideo)
				r.Patch("/remove/{videoId}/{playlistId}", playlists.HandleRemoveVideo)
			})
		})

		r.Route("/tweets", func(r chi.Router) {
			r.Get("/user/{userId}", tweets.HandleListByUser)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", tweets.HandleCreate)
				r.Patch("/{tweetId}", tweets.HandleUpdate)
				r.Delete("/{tweetId}", tweets.HandleDelete)
			})
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/stats", dashboard.HandleStats)
			r.Get("/videos", dashboard.HandleVideos)
		})
	})

	return nil
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start runs the HTTP server until SIGINT/SIGTERM or ctx is cancelled, then
// shuts down gracefully:
// 1. stop accepting new connections
// 2. wait up to ShutdownTimeout for in-flight requests
// 3. close the database
func (s *Server) Start(ctx context.Context) error {
	defer s.Close()

	srv := &http.Server{
		Addr:         s.config.HTTP.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.HTTP.ReadTimeout,
		WriteTimeout: s.config.HTTP.WriteTimeout,
		IdleTimeout:  s.config.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("address", s.config.HTTP.Address),
			slog.String("url", "http://"+localURL(s.config.HTTP.Address)),
			slog.String("database", s.config.Database.Path),
			slog.String("media", s.config.Media.Driver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.HTTP.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}

// localURL turns ":8080" into "localhost:8080" for the startup log line.
func localURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}
