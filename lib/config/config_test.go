package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefault(t *testing.T) {
	want := &Config{
		App:        AppConfig{Locale: "en", FallbackLocale: "en"},
		Ajax:       AjaxConfig{Timeout: 30 * time.Second, Codec: "json"},
		Validation: ValidationConfig{ErrorClass: "error", SuccessClass: "success"},
		Views:      ViewsConfig{Dir: "resources/views"},
		Cache:      CacheConfig{Path: "larafront.db", TTL: 5 * time.Minute},
		Log:        LogConfig{Level: "info", Format: "console"},
	}
	if diff := cmp.Diff(want, Default()); diff != "" {
		t.Errorf("Default() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	yaml := `
app:
  locale: ar
ajax:
  base_url: https://api.example.com
  timeout: 5s
  codec: msgpack
cache:
  enabled: true
  ttl: 1m
  sealed: true
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.App.Locale != "ar" || cfg.App.FallbackLocale != "en" {
		t.Errorf("App = %+v", cfg.App)
	}
	want := AjaxConfig{BaseURL: "https://api.example.com", Timeout: 5 * time.Second, Codec: "msgpack"}
	if diff := cmp.Diff(want, cfg.Ajax); diff != "" {
		t.Errorf("Ajax mismatch (-want +got):\n%s", diff)
	}
	if !cfg.Cache.Enabled || cfg.Cache.TTL != time.Minute || !cfg.Cache.Sealed {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("LARAFRONT_VALIDATION_ERROR_CLASS", "is-invalid")
	t.Setenv("LARAFRONT_LOG_LEVEL", "debug")
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Validation.ErrorClass != "is-invalid" {
		t.Errorf("ErrorClass = %q, want is-invalid", cfg.Validation.ErrorClass)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	_ = os.WriteFile(bad, []byte("ajax:\n  codec: xml\n"), 0o644)

	tests := []struct {
		name string
		path string
	}{
		{"missing explicit file", filepath.Join(dir, "nope.yaml")},
		{"invalid codec", bad},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.path); err == nil {
				t.Error("Load() error = nil, want error")
			}
		})
	}
}
