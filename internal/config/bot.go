package config

import "github.com/caarlos0/env/v11"

type BotConfig struct {
	WSURL         string `env:"WS_URL" envDefault:"ws://localhost:8080/ws"`
	Token         string `env:"TOKEN,required,notEmpty"`
	Difficulty    string `env:"BOT_DIFFICULTY" envDefault:"medium"`
	WagerLamports int64  `env:"WAGER_LAMPORTS" envDefault:"10000000"`
	TeamID        string `env:"BOT_TEAM_ID" envDefault:"dex:pikachu,charizard,blastoise"`
	Games         int    `env:"BOT_GAMES" envDefault:"1"`
}

func LoadBot() (BotConfig, error) {
	var cfg BotConfig
	err := env.Parse(&cfg)
	return cfg, err
}
