package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/techyouandme/TempTelegram/internal/config"
	clog "github.com/techyouandme/TempTelegram/internal/log"
	"github.com/techyouandme/TempTelegram/internal/server"
	"github.com/techyouandme/TempTelegram/internal/store"
	"github.com/techyouandme/TempTelegram/internal/ws"
)

func main() {
	// Load configuration, initialize logging, build the room directory and
	// run the Gin server until a shutdown signal arrives.
	cfg := config.Load()
	clog.Init(cfg.Env)
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("config validate")
	}

	st := store.New(
		time.Duration(cfg.RoomInactiveTTLMins)*time.Minute,
		time.Duration(cfg.RoomEmptyTTLMins)*time.Minute,
	)
	hub := ws.NewHub(st)

	reaper := store.NewReaper(st, time.Duration(cfg.ReaperIntervalSeconds)*time.Second)
	reaper.Start()

	r := server.SetupRouter(cfg, st, hub)
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server run")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("shutting down")
	reaper.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
}
