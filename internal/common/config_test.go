package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Normalizer.MinTextChars != 50 || cfg.Batch.Workers != 1 || cfg.OCR.Scale != 2.0 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if got := cfg.OCR.PSMModes; len(got) != 3 || got[0] != 6 || got[1] != 3 || got[2] != 4 {
		t.Fatalf("psm modes = %v", got)
	}
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte(`
llm:
  model: gpt-4o-mini
  timeout: 10s
ocr:
  scale: 3
  psmModes: [6]
batch:
  workers: 4
store:
  driver: sqlite
  dsn: /tmp/history.db
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("BATCH_WORKERS", "2")
	t.Setenv("OCR_PSM_MODES", "4, 11")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Model != "gpt-4o-mini" || cfg.LLM.Timeout != 10*time.Second {
		t.Fatalf("llm = %+v", cfg.LLM)
	}
	if cfg.OCR.Scale != 3 {
		t.Fatalf("scale = %v", cfg.OCR.Scale)
	}
	if cfg.Batch.Workers != 2 {
		t.Fatalf("workers = %d, want env override 2", cfg.Batch.Workers)
	}
	if got := cfg.OCR.PSMModes; len(got) != 2 || got[0] != 4 || got[1] != 11 {
		t.Fatalf("psm modes = %v", got)
	}
	if cfg.LLM.MaxTokens != 2000 {
		t.Fatalf("unset yaml key lost default: %d", cfg.LLM.MaxTokens)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := cfg.ValidateLLM(); err != nil {
		t.Fatalf("ValidateLLM: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative min chars", func(c *Config) { c.Normalizer.MinTextChars = -1 }},
		{"low scale", func(c *Config) { c.OCR.Scale = 1.5 }},
		{"no psm modes", func(c *Config) { c.OCR.PSMModes = nil }},
		{"store without dsn", func(c *Config) { c.Store.Driver = "sqlite" }},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mysql"; c.Store.DSN = "x" }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := DefaultConfig()
			c.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
			var appErr *AppError
			if !errors.As(err, &appErr) || appErr.Code != "CONFIG_ERROR" {
				t.Fatalf("err = %#v, want CONFIG_ERROR AppError", err)
			}
		})
	}
}

func TestValidator(t *testing.T) {
	v := NewValidator().
		Field("name", " ", Required).
		Field("data", []byte("abcdef"), Required, MaxBytes(4))
	if !v.HasErrors() {
		t.Fatalf("expected errors")
	}
	want := "validation failed for field 'name': is required; validation failed for field 'data': must be at most 4 bytes"
	if got := v.ErrorMessage(); got != want {
		t.Fatalf("message = %q", got)
	}
	if err := ValidateAndReturnError(NewValidator().Field("name", "ok", Required)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
