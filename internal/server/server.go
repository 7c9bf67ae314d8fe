package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rs/cors"

	"newsrelay/internal/config"
	"newsrelay/internal/domain/services"
	"newsrelay/internal/handler"
	"newsrelay/internal/middleware"
)

// Options selects the deployment variant.
type Options struct {
	// StaticDir, when set, is served for every path the API does not own.
	StaticDir string

	// CORSOrigins is a comma-separated origin list; empty disables CORS handling.
	CORSOrigins string
}

// NewHandler builds the routed, middleware-wrapped relay handler.
func NewHandler(queryService services.QueryService, opts Options, logger *slog.Logger) http.Handler {
	queryHandler := handler.NewQueryHandler(queryService, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handler.HealthCheck)
	mux.HandleFunc("POST /api/query", queryHandler.Query)

	if opts.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(opts.StaticDir)))
		logger.Info("serving static bundle", "dir", opts.StaticDir)
	}

	// Order: CORS → RequestID → RequestLog → Recovery → Routes
	var h http.Handler = mux
	h = middleware.Recovery(logger)(h)
	h = middleware.RequestLog(logger)(h)
	h = middleware.RequestID()(h)

	if opts.CORSOrigins != "" {
		corsHandler := cors.New(cors.Options{
			AllowedOrigins: splitOrigins(opts.CORSOrigins),
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
		})
		h = corsHandler.Handler(h)
	}

	return h
}

func splitOrigins(origins string) []string {
	var out []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// New creates the HTTP server for cfg.
// WriteTimeout stays unset: the upstream call has no timeout of its own.
func New(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
