package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "BOT_TOKEN", "CHAT_ID", "DEDUP_WINDOW", "TZ_OFFSET_HOURS", "REDIS_ADDR", "LOG_LEVEL", "FEED_REPLAY"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 10000 || cfg.ListenAddr() != ":10000" {
		t.Errorf("port = %d", cfg.Port)
	}
	if cfg.DedupWindow != 60*time.Second || cfg.DispatchTimeout != 10*time.Second {
		t.Errorf("durations = %s / %s", cfg.DedupWindow, cfg.DispatchTimeout)
	}
	if cfg.TZOffsetHours != -4 {
		t.Errorf("tz offset = %d", cfg.TZOffsetHours)
	}
	if cfg.RedisAddr != "" || cfg.FeedReplay != 50 || cfg.LogLevel != "info" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if got := cfg.MissingCredentials(); len(got) != 2 {
		t.Errorf("missing = %v", got)
	}
	if cfg.BotConfigured() {
		t.Error("bot should not be configured")
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("BOT_TOKEN", " 123:abc ")
	t.Setenv("CHAT_ID", "-100")
	t.Setenv("DEDUP_WINDOW", "2m")
	t.Setenv("TZ_OFFSET_HOURS", "-3")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("DRY_RUN", "true")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 || cfg.BotToken != "123:abc" || cfg.ChatID != "-100" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.DedupWindow != 2*time.Minute || !cfg.DryRun || cfg.LogLevel != "debug" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if !cfg.BotConfigured() {
		t.Error("bot should be configured")
	}

	_, offset := time.Date(2026, 7, 1, 12, 0, 0, 0, cfg.Location()).Zone()
	if offset != -3*3600 {
		t.Errorf("zone offset = %d", offset)
	}
}

func TestValidate(t *testing.T) {
	good := Config{Port: 1, DispatchTimeout: time.Second, DedupWindow: time.Second, LogLevel: "info"}
	if err := good.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := good
	bad.Port = 70000
	bad.DedupWindow = 0
	bad.TZOffsetHours = 20
	bad.LogLevel = "loud"
	err := bad.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"PORT", "DEDUP_WINDOW", "TZ_OFFSET_HOURS", "LOG_LEVEL"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}
}

func TestMask(t *testing.T) {
	cases := map[string]string{
		"":                "",
		"abc":             "****",
		"123456:ABCDEFGH": "****EFGH",
	}
	for in, want := range cases {
		if got := Mask(in); got != want {
			t.Errorf("Mask(%q) = %q, want %q", in, got, want)
		}
	}
}
