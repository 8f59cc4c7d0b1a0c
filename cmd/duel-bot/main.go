package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pokedotduel/internal/bot"
	"pokedotduel/internal/config"
	"pokedotduel/internal/logging"

	"github.com/rs/zerolog/log"
)

func main() {
	logCfg, err := config.LoadLog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load log config: %v\n", err)
		os.Exit(1)
	}
	logCloser, err := logging.Init(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatal().Err(err).Msg("load bot config failed")
	}
	difficulty, err := bot.ParseDifficulty(cfg.Difficulty)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid difficulty")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p := &player{
		cfg:        cfg,
		difficulty: difficulty,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if err := p.run(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("duel bot stopped")
		cancel()
		logCloser.Close()
		os.Exit(1)
	}
	log.Info().Int("games", p.played).Int("wins", p.wins).Msg("duel bot finished")
}
