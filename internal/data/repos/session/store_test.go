package session

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/yungbote/labelbridge-backend/internal/data/repos/testutil"
	domlabel "github.com/yungbote/labelbridge-backend/internal/domain/labeling"
)

func sampleState(id string) *domlabel.SessionState {
	nav := domlabel.NewNavigationState(5)
	nav.CurrentIndex = 3
	nav.CompletedIndices[0] = true
	nav.CompletedIndices[2] = true
	return &domlabel.SessionState{
		SessionID:        id,
		Username:         "ann",
		DisplayName:      "Ann",
		Role:             domlabel.RoleAnnotator,
		Navigation:       nav,
		ConfidenceFilter: false,
		HistoryVersion:   7,
		UpdatedAt:        time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	dbc := testutil.Ctx()

	got, err := s.Get(dbc, "missing")
	if err != nil || got != nil {
		t.Fatalf("Get(missing) = %+v, %v", got, err)
	}

	st := sampleState("sess-1")
	if err := s.Save(dbc, st); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err = s.Get(dbc, "sess-1")
	if err != nil || got == nil {
		t.Fatalf("Get: %+v, %v", got, err)
	}
	if got.Username != "ann" || got.Role != domlabel.RoleAnnotator || got.HistoryVersion != 7 || got.ConfidenceFilter {
		t.Fatalf("unexpected state: %+v", got)
	}
	if got.Navigation.CurrentIndex != 3 || got.Navigation.WorklistLength != 5 || got.Navigation.CompletedCount() != 2 || !got.Navigation.CompletedIndices[2] {
		t.Fatalf("unexpected navigation: %+v", got.Navigation)
	}

	got.Navigation.CurrentIndex = 4
	got.Navigation.CompletedIndices[3] = true
	if err := s.Save(dbc, got); err != nil {
		t.Fatalf("Save(update): %v", err)
	}
	again, _ := s.Get(dbc, "sess-1")
	if again.Navigation.CurrentIndex != 4 || again.Navigation.CompletedCount() != 3 {
		t.Fatalf("update not persisted: %+v", again.Navigation)
	}

	if err := s.Delete(dbc, "sess-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := s.Get(dbc, "sess-1"); got != nil {
		t.Fatalf("expected session to be gone")
	}
	if err := s.Save(dbc, &domlabel.SessionState{}); err == nil {
		t.Fatalf("expected error for missing session id")
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	dbc := testutil.Ctx()
	_ = s.Save(dbc, sampleState("a"))
	got, _ := s.Get(dbc, "a")
	got.Navigation.CompletedIndices[4] = true
	again, _ := s.Get(dbc, "a")
	if again.Navigation.CompletedIndices[4] {
		t.Fatalf("stored state must not alias caller maps")
	}
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedisStore(client, time.Hour)
	exerciseStore(t, s)

	_ = s.Save(testutil.Ctx(), sampleState("ttl"))
	if ttl := mr.TTL(defaultRedisPrefix + "ttl"); ttl != time.Hour {
		t.Fatalf("expected ttl of 1h, got %s", ttl)
	}
	mr.FastForward(2 * time.Hour)
	if got, _ := s.Get(testutil.Ctx(), "ttl"); got != nil {
		t.Fatalf("expected expired session")
	}
}

func TestSessionRepo(t *testing.T) {
	exerciseStore(t, NewSessionRepo(testutil.DB(t), testutil.Logger(t)))
}

func TestParseBackend(t *testing.T) {
	cases := map[string]string{"": BackendMemory, "Redis": BackendRedis, "gorm": BackendDB, "db": BackendDB}
	for in, want := range cases {
		got, err := ParseBackend(in)
		if err != nil || got != want {
			t.Fatalf("ParseBackend(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseBackend("etcd"); err == nil {
		t.Fatalf("expected error")
	}
}
