package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleYAML = `
server:
  addr: ":9090"
  timezone: UTC
auth:
  jwt_secret: from-file
  access_ttl: 2h
  users:
    - username: ann
      name: Ann
      password_hash: "$2a$10$abc"
      role: annotator
    - username: rev
      password_hash: "$2a$10$def"
      role: reviewer
sources:
  kind: dir
  dir: ./fixtures
  reload_schedule: "*/15 * * * *"
session:
  backend: db
review:
  hide_reviewed: true
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigFromYAML(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Addr != ":9090" || cfg.Auth.AccessTTL != 2*time.Hour || len(cfg.Auth.Users) != 2 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if !cfg.Review.HideReviewed || cfg.Session.Backend != "db" || cfg.Sources.Dir != "./fixtures" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Database.Driver != "sqlite" || cfg.LogMode != "development" {
		t.Fatalf("defaults not applied: %+v", cfg.Database)
	}
	if cfg.Location().String() != "UTC" {
		t.Fatalf("location: got=%s", cfg.Location())
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	t.Setenv("JWT_SECRET_KEY", "from-env")
	t.Setenv("PORT", "7000")
	t.Setenv("REVIEW_HIDE_REVIEWED", "false")
	t.Setenv("REVIEW_MAX_CHUNKS_PER_CONNECTION", "3")
	t.Setenv("ACCESS_TOKEN_TTL", "60")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Auth.JWTSecret != "from-env" || cfg.Server.Addr != ":7000" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.Review.HideReviewed || cfg.Review.MaxChunksPerConnection != 3 || cfg.Auth.AccessTTL != time.Minute {
		t.Fatalf("env not applied: %+v", cfg.Review)
	}
}

func TestLoadConfigMissingDefaultFileUsesEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET_KEY", "s3cret")
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Sources.Kind != SourceDir || cfg.Session.Backend != "memory" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit file")
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Config{
		Auth: AuthConfig{Users: []UserConfig{
			{Username: "ann", Role: "owner"},
			{Username: "ann", Role: "annotator", PasswordHash: "x"},
		}},
		Database: DatabaseConfig{Driver: "postgres"},
		Sources:  SourcesConfig{Kind: "s3"},
		Session:  SessionConfig{Backend: "redis"},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"jwt_secret", "unknown role", "duplicate username", "database.dsn", "sources.s3", "redis_url"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in %q", want, msg)
		}
	}
}
