package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr() != "0.0.0.0:8080" {
		t.Errorf("addr = %s", cfg.HTTPAddr())
	}
	if cfg.Upload.Dir != "upload_images" {
		t.Errorf("upload dir = %s", cfg.Upload.Dir)
	}
	if cfg.MaxUploadBytes() != 10<<20 {
		t.Errorf("max upload = %d", cfg.MaxUploadBytes())
	}
	if cfg.MaxUploadPixels() != 40_000_000 {
		t.Errorf("max pixels = %d", cfg.MaxUploadPixels())
	}
	if !cfg.Calorie.Enabled || cfg.CalorieTimeout() != 10*time.Second {
		t.Errorf("calorie defaults = %+v", cfg.Calorie)
	}
	if cfg.Redis.Enabled || cfg.PredictionLogEnabled() {
		t.Error("optional backends should be disabled by default")
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
[app]
port = 9000
title = "HUST Fruits & Vegetables"

[vision]
model_path = "models/fv.onnx"

[redis]
enabled = true
calorie_ttl_hours = 6

[mysql]
enabled = true

[rabbitmq]
enabled = true
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("APP_PORT", "9100")
	t.Setenv("CALORIE_ENABLED", "false")
	t.Setenv("UPLOAD_MAX_SIZE_MIB", "not-a-number")
	t.Setenv("UPLOAD_MAX_PIXELS", "1000000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Port != 9100 {
		t.Errorf("env should win over file, port = %d", cfg.App.Port)
	}
	if cfg.App.Title != "HUST Fruits & Vegetables" {
		t.Errorf("title = %s", cfg.App.Title)
	}
	if cfg.Vision.ModelPath != "models/fv.onnx" {
		t.Errorf("model path = %s", cfg.Vision.ModelPath)
	}
	if cfg.Calorie.Enabled {
		t.Error("CALORIE_ENABLED=false ignored")
	}
	if cfg.Upload.MaxSizeMiB != 10 {
		t.Errorf("bad int env should fall back, got %d", cfg.Upload.MaxSizeMiB)
	}
	if cfg.MaxUploadPixels() != 1_000_000 {
		t.Errorf("max pixels = %d", cfg.MaxUploadPixels())
	}
	if !cfg.Redis.Enabled || cfg.CalorieTTL() != 6*time.Hour {
		t.Errorf("redis = %+v", cfg.Redis)
	}
	if !cfg.PredictionLogEnabled() {
		t.Error("prediction log should be enabled")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad toml", `[app`},
		{"no model", "[vision]\nmodel_path = \"\"\n"},
		{"zero upload size", "[upload]\nmax_size_mib = 0\n"},
		{"zero pixel cap", "[upload]\nmax_pixels = 0\n"},
		{"port range", "[app]\nport = 70000\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_FILE", writeConfig(t, tt.body))
			if _, err := Load(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestMySQLDSN(t *testing.T) {
	cfg := defaultConfig()
	cfg.MySQL.Password = "secret"
	want := "root:secret@tcp(127.0.0.1:3306)/produce_lens?parseTime=true&loc=Local&charset=utf8mb4"
	if got := cfg.MySQLDSN(); got != want {
		t.Errorf("dsn = %s", got)
	}
}
