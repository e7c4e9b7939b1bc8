// Package server wires the bridge's HTTP surface together and owns its
// lifecycle: one listener carrying the websocket bridge endpoint and the
// JSON snapshot endpoints, torn down when the supplied context ends.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	logging "github.com/op/go-logging"

	httpapi "github.com/mobilityhq/tripbridge/internal/http"
	"github.com/mobilityhq/tripbridge/runtime"
)

var log = logging.MustGetLogger("tripbridge")

// Config configures the bridge HTTP server.
type Config struct {
	ListenAddr   string               // address to bind (e.g. :8090)
	Dispatcher   *runtime.Dispatcher  // required
	Multiplexer  *runtime.Multiplexer // required
	Scanner      *runtime.Scanner     // required
	ReadTimeout  time.Duration        // optional
	WriteTimeout time.Duration        // optional
	IdleTimeout  time.Duration        // optional
}

var ErrNilComponent = errors.New("bridge server: dispatcher, multiplexer and scanner are all required")

// StartServer starts the bridge HTTP server. It returns the *http.Server,
// a channel receiving a terminal error (if any), and an error for
// immediate startup issues. The server stops when ctx is canceled.
func StartServer(ctx context.Context, cfg Config) (*http.Server, <-chan error, error) {
	if cfg.Dispatcher == nil || cfg.Multiplexer == nil || cfg.Scanner == nil {
		return nil, nil, ErrNilComponent
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8090"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/bridge", httpapi.BridgeHandler(cfg.Dispatcher, cfg.Multiplexer, cfg.Scanner))
	mux.HandleFunc("/api/state", httpapi.StateHandler(cfg.Multiplexer))
	mux.HandleFunc("/api/devices", httpapi.DevicesHandler(cfg.Dispatcher))

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  durationOr(cfg.ReadTimeout, 10*time.Second),
		WriteTimeout: durationOr(cfg.WriteTimeout, 0),
		IdleTimeout:  durationOr(cfg.IdleTimeout, 60*time.Second),
	}

	errCh := make(chan error, 1)

	go func() {
		log.Infof("bridge listening on %s (/bridge, /api/state, /api/devices)", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Shutdown watcher
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return srv, errCh, nil
}

// durationOr keeps zero WriteTimeout meaning "no limit": the websocket
// endpoint holds its connection open indefinitely.
func durationOr(v, d time.Duration) time.Duration {
	if v <= 0 {
		return d
	}
	return v
}
