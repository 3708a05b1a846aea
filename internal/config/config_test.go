package config

import (
	"testing"
	"time"
)

// TestLoad_RequiredMissing は必須環境変数が未設定の場合にエラーになることを検証する。
func TestLoad_RequiredMissing(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("DATABASE_URL未設定でエラーが返らなかった")
	}
}

// TestLoad_Defaults はオプション項目のデフォルト値を検証する。
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/migcontrol?sslmode=disable")
	t.Setenv("FETCH_TIMEOUT", "")
	t.Setenv("DEFAULT_LOCALE", "")
	t.Setenv("SERVER_PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.FetchTimeout != 30*time.Second {
		t.Errorf("FetchTimeout = %v, want 30s", cfg.FetchTimeout)
	}
	if cfg.FetchMaxSize != 20971520 {
		t.Errorf("FetchMaxSize = %d, want 20971520", cfg.FetchMaxSize)
	}
	if cfg.DefaultLocale != "en" {
		t.Errorf("DefaultLocale = %q, want %q", cfg.DefaultLocale, "en")
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "8080")
	}
}

// TestLoad_Overrides は環境変数による上書きを検証する。
func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/migcontrol?sslmode=disable")
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("DEFAULT_LOCALE", "de")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.FetchTimeout != 5*time.Second {
		t.Errorf("FetchTimeout = %v, want 5s", cfg.FetchTimeout)
	}
	if cfg.DefaultLocale != "de" {
		t.Errorf("DefaultLocale = %q, want %q", cfg.DefaultLocale, "de")
	}
	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "9090")
	}
}

// TestLoad_InvalidDurationFallsBack は不正なdurationがデフォルトに戻ることを検証する。
func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/migcontrol?sslmode=disable")
	t.Setenv("FETCH_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.FetchTimeout != 30*time.Second {
		t.Errorf("FetchTimeout = %v, want 30s", cfg.FetchTimeout)
	}
}
