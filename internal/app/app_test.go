package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/labelbridge-backend/internal/pkg/logger"
	"github.com/yungbote/labelbridge-backend/internal/services"
)

func writeFixtures(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		"data.csv":    "ConnectionID,chunk_id,text,full_text,Call Type,Call SubType\nc1,0,hello,hello world,Billing,Refund\nc1,1,again,hello world,,\n",
		"intents.csv": "Intent,Sub Intent\nBilling,Refund\nBilling,Late Fee\n",
		"mapping.csv": "ConnectionID,Annotator,Reviewer\nc1,ann,rev\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestAppServesWorklistEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	writeFixtures(t, dir)

	hash, err := services.HashPassword("pw")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	cfg := Config{
		Auth: AuthConfig{
			JWTSecret: "test",
			Users:     []UserConfig{{Username: "ann", Name: "Ann", PasswordHash: hash, Role: "annotator"}},
		},
		Database:      DatabaseConfig{DSN: filepath.Join(dir, "annotations.db")},
		Sources:       SourcesConfig{Kind: SourceDir, Dir: dir},
		Session:       SessionConfig{Backend: "db"},
		Observability: ObservabilityConfig{MetricsEnabled: true},
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	ctx := context.Background()
	a, err := New(ctx, cfg, logger.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(a.Close)
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	engine := a.Server.Engine
	body, _ := json.Marshal(map[string]string{"username": "ann", "password": "pw"})
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("login: got=%d body=%s", rec.Code, rec.Body.String())
	}
	var login struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/worklist/current", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("current: got=%d body=%s", rec.Code, rec.Body.String())
	}
	var view services.View
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.Total != 2 || view.Item == nil || view.Item.ItemID != "c1_chunk_0" {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.Defaults == nil || len(view.Defaults.Intents) != 1 || view.Defaults.Intents[0] != "Billing" {
		t.Fatalf("unexpected defaults: %+v", view.Defaults)
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte("lb_source_reloads_total")) {
		t.Fatalf("metrics: got=%d", rec.Code)
	}
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz: got=%d body=%s", rec.Code, rec.Body.String())
	}
}
