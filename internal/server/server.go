package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Server ties together HTTP serving and WebSocket handling.
type Server struct {
	handlers *Handlers
	addr     string
	static   fs.FS
	log      zerolog.Logger
}

func New(addr string, static fs.FS, handlers *Handlers, log zerolog.Logger) *Server {
	return &Server{
		handlers: handlers,
		addr:     addr,
		static:   static,
		log:      log,
	}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() (http.Handler, error) {
	mux := http.NewServeMux()

	// Static files from embedded FS
	sub, err := fs.Sub(s.static, "web/static")
	if err != nil {
		return nil, fmt.Errorf("static fs: %w", err)
	}
	mux.Handle("/", http.FileServer(http.FS(sub)))

	// API routes
	mux.HandleFunc("/api/create", s.handlers.HandleCreateGame)
	mux.HandleFunc("/api/qr", s.handlers.HandleQR)
	mux.HandleFunc("/api/player-id", s.handlers.HandlePlayerID)
	mux.HandleFunc("GET /api/lobbies", s.handlers.HandleLobbies)
	mux.HandleFunc("GET /api/leaderboard", s.handlers.HandleLeaderboard)
	mux.HandleFunc("GET /api/matches/{id}", s.handlers.HandleMatch)
	mux.HandleFunc("/ws", s.handlers.HandleWS)
	return mux, nil
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	handler, err := s.Routes()
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("werewolf server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	s.handlers.Close()
	s.log.Info().Msg("werewolf server stopped")
	return err
}
