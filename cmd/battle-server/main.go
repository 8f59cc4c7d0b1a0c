package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pokedotduel/internal/announce"
	"pokedotduel/internal/auth"
	"pokedotduel/internal/config"
	"pokedotduel/internal/dex"
	"pokedotduel/internal/ledger"
	"pokedotduel/internal/lobby"
	"pokedotduel/internal/logging"
	"pokedotduel/internal/matchmaking"
	"pokedotduel/internal/mcpserver"
	"pokedotduel/internal/rewards"
	"pokedotduel/internal/session"
	"pokedotduel/internal/store"
	httptransport "pokedotduel/internal/transport/http"
	"pokedotduel/internal/ws"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logCloser, err := logging.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg.Server); err != nil {
		log.Error().Err(err).Msg("server stopped")
		cancel()
		logCloser.Close()
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg config.ServerConfig) error {
	repo, closeRepo, err := openRepository(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer closeRepo()

	teams := store.TeamResolver{Catalog: dex.Default(), Repo: repo}
	led := ledger.New(repo)
	dispatcher := rewards.NewDispatcher(rewards.Config{
		Workers:   cfg.RewardsWorkers,
		RetryMax:  cfg.RewardsRetryMax,
		RetryBase: cfg.RewardsRetryBase,
	}, led, led, led)
	announceCfg, err := announce.ConfigFromServer(cfg)
	if err != nil {
		return err
	}
	if announcer := announce.New(announceCfg); announcer.Enabled() {
		dispatcher.SetAnnouncer(announcer)
		log.Info().Int("targets", len(announceCfg.Targets)).Msg("battle announce enabled")
	}

	hub := ws.NewHub()
	lobbies := lobby.NewManager(lobby.Options{Broadcaster: hub, Archiver: repo, Teams: teams})
	coord := session.NewCoordinator(session.Options{
		Broadcaster:              hub,
		Repo:                     repo,
		Teams:                    teams,
		Lobbies:                  lobbies,
		Rewards:                  dispatcher,
		TurnTimeout:              cfg.TurnTimeout,
		ReconnectGrace:           cfg.ReconnectGrace,
		ParalysisSpeedMultiplier: cfg.ParalysisSpeedMultiplier,
	})
	lobbies.SetStarter(coord)

	queue, err := matchmaking.New(lobbies, matchmaking.Options{
		TickInterval: cfg.MatchmakingTick,
		IdleTimeout:  cfg.MatchmakingIdleTimeout,
	})
	if err != nil {
		return fmt.Errorf("matchmaker: %w", err)
	}

	verifier := auth.NewVerifier(cfg.JWTSecret)
	router := httptransport.NewRouter(httptransport.Deps{
		Battles:  coord,
		Queue:    queue,
		Lobbies:  lobbies,
		History:  repo,
		Verifier: verifier,
		WS:       ws.NewHandler(hub, verifier, lobbies, coord, queue),
		MCP:      mcpserver.New(coord, queue, lobbies, repo).Handler(),
	})
	httptransport.LogRoutes(router)

	// No ReadTimeout: upgraded WebSocket connections would inherit it.
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down http server")
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error { return queue.Run(gctx) })
	g.Go(func() error { return coord.RunJanitor(gctx) })
	g.Go(func() error { return dispatcher.Run(gctx) })
	return g.Wait()
}

// openRepository connects to Postgres, or falls back to the in-memory
// repository when no DSN is configured.
func openRepository(ctx context.Context, dsn string) (store.Repository, func(), error) {
	if dsn == "" {
		log.Warn().Msg("POSTGRES_DSN not set, using in-memory repository")
		return store.NewMemoryStore(), func() {}, nil
	}
	st, err := store.New(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("store init: %w", err)
	}
	if err := st.Ping(ctx); err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("db ping: %w", err)
	}
	log.Info().Msg("connected to postgres")
	return st, st.Close, nil
}
