package devserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/common-nighthawk/go-figure"

	"github.com/jask/finplan/internal/devserver/store"
)

// Config is what Run needs to serve.
type Config struct {
	Addr         string
	DatabasePath string
}

// Banner renders the startup banner.
func Banner() string {
	return figure.NewFigure("finplan dev", "small", true).String()
}

// Run opens the database and serves until ctx is cancelled.
func Run(ctx context.Context, cfg Config, log *slog.Logger, out io.Writer) error {
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return fmt.Errorf("mkdir db dir: %w", err)
	}
	st, err := store.Open(cfg.DatabasePath, nil)
	if err != nil {
		return err
	}
	defer st.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           New(st, log, nil).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintln(out, Banner())
		log.Info("devserver listening", "addr", cfg.Addr, "database", cfg.DatabasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down devserver")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
