package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("floodwatch-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Gemini.Model != "gemini-2.0-flash" {
		t.Errorf("unexpected default model: %q", cfg.Gemini.Model)
	}
	if cfg.Gemini.BaseURL != "https://generativelanguage.googleapis.com" {
		t.Errorf("unexpected default base URL: %q", cfg.Gemini.BaseURL)
	}
	if cfg.Gemini.MaxImageBytes != 10<<20 {
		t.Errorf("expected 10 MiB default image limit, got %d", cfg.Gemini.MaxImageBytes)
	}
	if cfg.Temporal.TaskQueue != "reassess-queue" {
		t.Errorf("unexpected default task queue: %q", cfg.Temporal.TaskQueue)
	}
	if cfg.Telemetry.ServiceName != "floodwatch-test" {
		t.Errorf("expected service name passed through, got %q", cfg.Telemetry.ServiceName)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("FLOODWATCH_SERVER_PORT", "9999")
	t.Setenv("FLOODWATCH_GEMINI_MODEL", "gemini-2.5-pro")

	cfg, err := Load("floodwatch-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("expected env override port 9999, got %d", cfg.Server.Port)
	}
	if cfg.Gemini.Model != "gemini-2.5-pro" {
		t.Errorf("expected env override model, got %q", cfg.Gemini.Model)
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors for zero config")
	}

	msg := err.Error()
	for _, want := range []string{"server.port", "gemini.model", "database.host", "nats.url"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected error to mention %s, got: %s", want, msg)
		}
	}
}

func TestValidatePortBounds(t *testing.T) {
	cfg, err := Load("floodwatch-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.Server.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for out-of-range port")
	}

	cfg.Server.Port = 8080
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}
