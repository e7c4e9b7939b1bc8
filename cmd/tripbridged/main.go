package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	logging "github.com/op/go-logging"

	"github.com/mobilityhq/tripbridge"
	"github.com/mobilityhq/tripbridge/internal/server"
	"github.com/mobilityhq/tripbridge/radio"
	"github.com/mobilityhq/tripbridge/runtime"
)

// tripbridged: the bridge daemon. It exposes the websocket bridge and the
// snapshot endpoints and waits for shutdown. Without a real SDK façade
// linked in, it runs against the inert built-in one, which is enough for
// wire-level integration against the scanner and the snapshot surface.
func main() {
	log := tripbridge.SetupLogging("tripbridged", logging.INFO)

	addr := os.Getenv("TRIPBRIDGE_ADDR")
	if addr == "" {
		addr = ":8090"
	}

	opts := tripbridge.DefaultOptions()
	if v := os.Getenv("TRIPBRIDGE_RESCAN_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			opts.RescanInterval = d
		}
	}

	facade := tripbridge.Unconfigured()
	dispatcher := runtime.NewDispatcher(facade, opts)
	multiplexer := runtime.NewMultiplexer(facade, opts)

	var enum radio.Enumerator
	if bluez, err := radio.NewBlueZEnumerator(); err != nil {
		log.Warningf("bluetooth enumeration disabled: %v", err)
	} else {
		enum = bluez
		defer bluez.Close()
	}
	scanner := runtime.NewScanner(enum, radio.NewHCIScanner(), opts)

	ctx, cancel := context.WithCancel(context.Background())
	_, errCh, err := server.StartServer(ctx, server.Config{
		ListenAddr:  addr,
		Dispatcher:  dispatcher,
		Multiplexer: multiplexer,
		Scanner:     scanner,
	})
	if err != nil {
		log.Fatalf("failed to start bridge server: %v", err)
	}
	go func() {
		if err := <-errCh; err != nil {
			log.Errorf("bridge server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Noticef("shutdown signal received; stopping server")
	scanner.Detach()
	multiplexer.DetachAll()
	cancel()
}
