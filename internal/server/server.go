package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/askhr/askhr/internal/config"
)

type Server struct {
	cfg     *config.Config
	http    *http.Server
	closers []func()
}

// New wires all components. On error, anything already opened is closed.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	s := &Server{cfg: cfg}

	h, err := s.build(ctx)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("setup: %w", err)
	}

	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           newRouter(cfg, h),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// two generations, two data calls and an insight per chat turn
		WriteTimeout: 3*cfg.LLMTimeout + 2*cfg.DataAPITimeout,
		IdleTimeout:  120 * time.Second,
	}
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.http.Handler }

func (s *Server) onClose(fn func()) {
	s.closers = append(s.closers, fn)
}

// close releases resources in reverse order of acquisition.
func (s *Server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.http.Addr).Msg("http server listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("graceful shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := s.http.Shutdown(shutdownCtx)
		s.close()
		log.Info().Msg("resources closed")
		return err
	case err := <-errCh:
		s.close()
		return err
	}
}
