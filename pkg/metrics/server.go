package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// NewServer builds the standalone /metrics listener. It is separate from the
// service mux so scrapes bypass rate limiting and CORS.
func NewServer(port int, h http.Handler) *http.Server {
	if h == nil {
		h = Handler()
	}
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", h)
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// Serve runs the metrics listener in the background until ctx is done.
func Serve(ctx context.Context, port int) {
	srv := NewServer(port, nil)
	logger := slog.Default().With("component", "metrics", "addr", srv.Addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics shutdown", "error", err)
		}
	}()
	go func() {
		logger.Info("metrics listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener failed", "error", err)
		}
	}()
}
