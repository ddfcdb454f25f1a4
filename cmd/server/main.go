package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/catalyst-ai-dev/white-room/internal/auth"
	"github.com/catalyst-ai-dev/white-room/internal/config"
	"github.com/catalyst-ai-dev/white-room/internal/engine"
	"github.com/catalyst-ai-dev/white-room/internal/events"
	"github.com/catalyst-ai-dev/white-room/internal/httpserver"
	"github.com/catalyst-ai-dev/white-room/internal/idgen"
	"github.com/catalyst-ai-dev/white-room/internal/logging"
	"github.com/catalyst-ai-dev/white-room/internal/ratelimit"
	"github.com/catalyst-ai-dev/white-room/internal/session"
	"github.com/catalyst-ai-dev/white-room/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logging.Init(cfg.LogLevel)
	log := logging.Default()
	log.Info("starting white-room collaboration server")
	log.Info("port: %s", cfg.Port)

	var bus events.Bus = events.NopBus{}
	if cfg.NATSURL != "" {
		natsBus, err := events.NewNATSBus(cfg.NATSURL, "", func(err error) {
			log.Error("event bus publish failed: %v", err)
		})
		if err != nil {
			log.Error("failed to connect to NATS, falling back to in-memory bus: %v", err)
			bus = events.NewMemoryBus()
		} else {
			bus = natsBus
			defer natsBus.Close()
		}
	} else {
		bus = events.NewMemoryBus()
	}

	var store *storage.Store
	if cfg.SQLiteURI != "" {
		log.Info("persistence: %s", cfg.SQLiteURI)
		store, err = storage.Open(cfg.SQLiteURI)
		if err != nil {
			log.Error("failed to open storage: %v", err)
			os.Exit(1)
		}
		defer store.Close()
	} else {
		log.Info("persistence: disabled (in-memory only)")
	}

	eng := engine.New(
		engine.WithEventBus(bus),
		engine.WithIDGenerator(idgen.NewULIDGenerator()),
		engine.WithCursorBroadcastInterval(cfg.CursorBroadcastInterval),
	)

	if store != nil {
		ids, err := store.IDs()
		if err != nil {
			log.Error("failed to list persisted documents: %v", err)
		}
		for _, id := range ids {
			if doc, err := store.Load(id); err == nil && doc != nil {
				eng.InitializeEditor(id, doc.Content)
			}
		}
	}

	limiter := ratelimit.New(ratelimit.Config{
		MaxPerSecond: cfg.MaxPerSecond,
		MaxPerMinute: cfg.MaxPerMinute,
		WindowMs:     ratelimit.DefaultWindowMs,
	})
	fabric := session.NewFabric(eng, limiter, idgen.NewULIDGenerator(), log)
	decoder := auth.NewJWTDecoder(cfg.JWTSecret)

	srv := httpserver.New(eng, fabric, store, decoder, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go fabric.RunHeartbeat(ctx)
	go srv.RunCleaner(ctx, cfg.CleanupInterval, cfg.ExpiryDuration)
	if store != nil {
		go srv.RunPersister(ctx, cfg.PersistInterval)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutting down...")
		cancel()
		srv.Shutdown(ctx)
		os.Exit(0)
	}()

	addr := fmt.Sprintf(":%s", cfg.Port)
	if err := srv.ListenAndServe(addr); err != nil {
		log.Error("server exited: %v", err)
		os.Exit(1)
	}
}
