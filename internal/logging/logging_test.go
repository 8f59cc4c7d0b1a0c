package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pokedotduel/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "duel.log")
	closer, err := Init(config.LogConfig{Level: "debug", File: path, MaxMB: 1})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	log.Debug().Str("battle_id", "b1").Msg("turn resolved")
	if _, err := Writer().Write([]byte("{\"raw\":true}\n")); err != nil {
		t.Fatalf("Writer().Write: %v", err)
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "turn resolved") || !strings.Contains(string(data), "\"raw\":true") {
		t.Fatalf("log file missing entries: %s", data)
	}
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Fatalf("global level = %v, want debug", zerolog.GlobalLevel())
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func TestInitIgnoresBadLevel(t *testing.T) {
	closer, err := Init(config.LogConfig{Level: "loud"})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer closer.Close()
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("global level = %v, want info", zerolog.GlobalLevel())
	}
	if Writer() != os.Stdout {
		t.Fatal("Writer() should be stdout without a log file")
	}
}
