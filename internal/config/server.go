package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	PostgresDSN string `env:"POSTGRES_DSN"`
	JWTSecret   string `env:"JWT_SECRET,required,notEmpty"`

	TurnTimeout            time.Duration `env:"TURN_TIMEOUT" envDefault:"60s"`
	ReconnectGrace         time.Duration `env:"RECONNECT_GRACE" envDefault:"30s"`
	MatchmakingTick        time.Duration `env:"MATCHMAKING_TICK" envDefault:"5s"`
	MatchmakingIdleTimeout time.Duration `env:"MATCHMAKING_IDLE_TIMEOUT" envDefault:"5m"`

	ParalysisSpeedMultiplier float64 `env:"PARALYSIS_SPEED_MULTIPLIER" envDefault:"0.25"`

	RewardsWorkers   int           `env:"REWARDS_WORKERS" envDefault:"2"`
	RewardsRetryMax  int           `env:"REWARDS_RETRY_MAX" envDefault:"3"`
	RewardsRetryBase time.Duration `env:"REWARDS_RETRY_BASE" envDefault:"500ms"`

	AnnounceTargetsJSON string        `env:"ANNOUNCE_TARGETS_JSON"`
	AnnounceTargetsPath string        `env:"ANNOUNCE_TARGETS_PATH"`
	AnnounceTimeout     time.Duration `env:"ANNOUNCE_TIMEOUT" envDefault:"5s"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
