package announce

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"pokedotduel/internal/config"
)

// ConfigFromServer reads the webhook targets from ANNOUNCE_TARGETS_PATH when
// set, otherwise from ANNOUNCE_TARGETS_JSON.
func ConfigFromServer(cfg config.ServerConfig) (Config, error) {
	out := Config{RequestTimeout: cfg.AnnounceTimeout}
	raw := strings.TrimSpace(cfg.AnnounceTargetsJSON)
	if path := strings.TrimSpace(cfg.AnnounceTargetsPath); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read announce targets %q: %w", path, err)
		}
		raw = strings.TrimSpace(string(b))
	}
	if raw == "" {
		return out, nil
	}
	targets, err := parseTargetsJSON(raw)
	if err != nil {
		return Config{}, err
	}
	out.Targets = targets
	return out, nil
}

func parseTargetsJSON(raw string) ([]Target, error) {
	var targets []Target
	if err := json.Unmarshal([]byte(raw), &targets); err != nil {
		return nil, fmt.Errorf("parse announce targets: %w", err)
	}
	filtered := make([]Target, 0, len(targets))
	for _, t := range targets {
		t.Platform = strings.ToLower(strings.TrimSpace(t.Platform))
		t.Endpoint = strings.TrimSpace(t.Endpoint)
		if !t.Enabled || t.Endpoint == "" {
			continue
		}
		if t.Platform != "discord" && t.Platform != "feishu" {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered, nil
}
