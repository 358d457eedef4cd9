// Package server wires the application together: database, services,
// handlers, middleware, and routes. It is the composition root — every
// dependency is assembled here and nowhere else.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/4hbab/pixel-market/internal/auth"
	"github.com/4hbab/pixel-market/internal/handler"
	"github.com/4hbab/pixel-market/internal/middleware"
	sqliteRepo "github.com/4hbab/pixel-market/internal/repository/sqlite"
	"github.com/4hbab/pixel-market/internal/service"
)

// Config holds everything the server needs from the environment.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string
}

// Server owns the router and the database connection; the connection is
// closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and assembles the full dependency chain:
// store → services → handlers → routes. Handlers never see the
// database; services never see HTTP.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	paletteService := service.NewPaletteService(s.db, s.logger)
	artworkService := service.NewArtworkService(s.db, s.logger)
	rewardService := service.NewRewardService(s.db, rng, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	userHandler := handler.NewUserHandler(authService, s.logger)
	paletteHandler := handler.NewPaletteHandler(paletteService, s.logger)
	artworkHandler := handler.NewArtworkHandler(artworkService, s.logger)
	rewardHandler := handler.NewRewardHandler(rewardService, s.logger)

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Public routes — no token required.
	s.router.Post("/auth/register", authHandler.HandleRegister)
	s.router.Post("/auth/login", authHandler.HandleLogin)
	s.router.Get("/artworks/feed/listed", artworkHandler.HandleFeed)
	s.router.Get("/artworks/public/{id}", artworkHandler.HandleGetPublic)

	// Authenticated routes.
	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Get("/users/me", userHandler.HandleMe)
		r.Patch("/users/me", userHandler.HandleUpdateMe)

		r.Get("/palettes", paletteHandler.HandleList)
		r.Patch("/palettes/{id}", paletteHandler.HandleAdjust)

		r.Get("/artworks", artworkHandler.HandleList)
		r.Post("/artworks", artworkHandler.HandleCreate)
		r.Get("/artworks/{id}", artworkHandler.HandleGet)
		r.Patch("/artworks/{id}", artworkHandler.HandleUpdate)
		r.Post("/artworks/{id}/purchase", artworkHandler.HandlePurchase)

		r.Post("/rewards/checkin", rewardHandler.HandleClaim)
		r.Get("/rewards/checkin", rewardHandler.HandleStatus)
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, and
// close the database (flushing the WAL).
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
