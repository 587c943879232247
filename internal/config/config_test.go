package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "gk-123")
	t.Setenv("SHARE_TOKEN_SECRET", "")
	t.Setenv("JWT_SECRET", "jwt-secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("addr = %q", cfg.Server.Addr())
	}
	if cfg.OCR.Engine != "tesseract" || cfg.OCR.TesseractLang != "eng+fil" || cfg.OCR.TesseractPSM != 6 {
		t.Errorf("ocr = %+v", cfg.OCR)
	}
	if cfg.Thresholds.MismatchConfidence != 0.6 || cfg.Thresholds.VerifiedConfidence != 0.7 || cfg.Thresholds.MaxFieldLength != 100 {
		t.Errorf("thresholds = %+v", cfg.Thresholds)
	}
	if cfg.Classifier.APIKey != "gk-123" {
		t.Errorf("api key = %q, want the resolved env value", cfg.Classifier.APIKey)
	}
	if cfg.Share.Secret != "jwt-secret" {
		t.Errorf("share secret = %q", cfg.Share.Secret)
	}
	if cfg.Redis.Window != time.Minute {
		t.Errorf("redis window = %v", cfg.Redis.Window)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "idverify.yaml")
	yaml := strings.Join([]string{
		"server:",
		"  port: \"9000\"",
		"ocr:",
		"  engine: vision",
		"  credentials_file: /etc/vision.json",
		"thresholds:",
		"  verified_confidence: 0.8",
		"share:",
		"  secret: from-file",
	}, "\n")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("IDVERIFY_SERVER_PORT", "9100")
	t.Setenv("IDVERIFY_REDIS_ENABLED", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "9100" {
		t.Errorf("port = %q, env should win over file", cfg.Server.Port)
	}
	if cfg.OCR.Engine != "vision" || cfg.OCR.CredentialsFile != "/etc/vision.json" {
		t.Errorf("ocr = %+v", cfg.OCR)
	}
	if cfg.Thresholds.VerifiedConfidence != 0.8 {
		t.Errorf("verified = %v", cfg.Thresholds.VerifiedConfidence)
	}
	if !cfg.Redis.Enabled {
		t.Error("redis should be enabled from env")
	}
	if cfg.Share.Secret != "from-file" {
		t.Errorf("secret = %q", cfg.Share.Secret)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("ocr:\n  engine: abacus\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unknown engine")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"threshold above one", func(c *Config) { c.Thresholds.VerifiedConfidence = 1.2 }},
		{"negative threshold", func(c *Config) { c.Thresholds.MismatchConfidence = -0.1 }},
		{"zero field length", func(c *Config) { c.Thresholds.MaxFieldLength = 0 }},
		{"share hours too long", func(c *Config) { c.Share.MaxHours = 200 }},
		{"no body limit", func(c *Config) { c.Server.BodyLimitMB = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
	d := Default()
	if err := d.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Setenv("IDV_TEST_KEY", "abc")
	tests := map[string]string{
		"":                    "",
		"plain":               "plain",
		"${IDV_TEST_KEY}":     "abc",
		"x-${IDV_TEST_KEY}-y": "x-abc-y",
		"${IDV_TEST_MISSING}": "",
	}
	for in, want := range tests {
		if got := ResolveEnvVars(in); got != want {
			t.Errorf("ResolveEnvVars(%q) = %q, want %q", in, got, want)
		}
	}
}
