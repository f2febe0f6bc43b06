package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/geany-y/AIDrivenChat/internal/auth"
	"github.com/geany-y/AIDrivenChat/internal/config"
	"github.com/geany-y/AIDrivenChat/internal/database"
	"github.com/geany-y/AIDrivenChat/internal/gateway"
	"github.com/gorilla/handlers"
)

type ChatApp struct {
	log            *log.Logger
	db             database.ChatRepository
	mux            *http.Server
	gw             *gateway.Gateway
	issuer         *auth.TokenIssuer
	allowedOrigins []string
}

func NewChatApp(mux *http.ServeMux, logger *log.Logger, gw *gateway.Gateway, db database.ChatRepository, issuer *auth.TokenIssuer, cfg *config.Config) *ChatApp {
	s := &ChatApp{
		log:            logger,
		db:             db,
		gw:             gw,
		issuer:         issuer,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("POST /api/auth/register", s.createAccount)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("DELETE /api/auth/logout", s.logout)
	mux.HandleFunc("GET /api/channels", s.listChannels)
	mux.Handle("POST /api/channels", s.authMiddleware(s.createChannel))
	mux.Handle("GET /api/channels/{channelId}/messages", s.authMiddleware(s.getChannelMessages))
	mux.Handle("GET /api/channels/{channelId}/messages/{messageId}/thread", s.authMiddleware(s.getThreadMessages))
	mux.HandleFunc("GET /ws", s.serveWs)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *ChatApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *ChatApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
