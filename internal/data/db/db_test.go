package db

import (
	"path/filepath"
	"testing"

	"github.com/yungbote/labelbridge-backend/internal/pkg/logger"
)

func TestNewServiceSQLiteMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "annotations.db")
	svc, err := NewService(Config{Driver: "sqlite", DSN: path}, logger.Nop())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	defer svc.Close()
	if err := AutoMigrateAll(svc.DB()); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}
	if !svc.DB().Migrator().HasTable("call_annotation_table") {
		t.Fatalf("annotation table missing")
	}
	if !svc.DB().Migrator().HasTable("labeling_session_state") {
		t.Fatalf("session table missing")
	}
}

func TestDialectorRejectsUnknownDriver(t *testing.T) {
	if _, err := dialectorFor(Config{Driver: "oracle"}); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := dialectorFor(Config{Driver: "postgres"}); err == nil {
		t.Fatalf("postgres without dsn should fail")
	}
}
