package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"
)

const shutdownTimeout = 30 * time.Second

// Run serves handler on addr until ctx is done, then stops accepting
// requests and calls drain so detached work can finish.
func Run(ctx context.Context, handler http.Handler, addr string, drain func(context.Context) error) error {
	srv := &http.Server{Addr: addr, Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on %s", addr)
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

	log.Printf("[server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if drain != nil {
		if err := drain(shutdownCtx); err != nil {
			log.Printf("[server] background bookings still running at exit: %v", err)
		}
	}
	return nil
}
