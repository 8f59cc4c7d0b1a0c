package config

import "testing"

func TestLoadTestRequiresDSN(t *testing.T) {
	t.Setenv("TEST_POSTGRES_DSN", "")
	if _, err := LoadTest(); err == nil {
		t.Fatal("LoadTest() expected error, got nil")
	}
	t.Setenv("TEST_POSTGRES_DSN", "postgres://localhost/test")
	cfg, err := LoadTest()
	if err != nil || cfg.TestPostgresDSN != "postgres://localhost/test" {
		t.Fatalf("LoadTest() = %+v, %v", cfg, err)
	}
}
