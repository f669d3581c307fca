package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domlabel "github.com/yungbote/labelbridge-backend/internal/domain/labeling"
	"github.com/yungbote/labelbridge-backend/internal/pkg/dbctx"
)

const defaultRedisPrefix = "labelbridge:session:"

// RedisStore keeps one JSON value per session with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, prefix: defaultRedisPrefix, ttl: ttl}
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *RedisStore) Get(dbc dbctx.Context, sessionID string) (*domlabel.SessionState, error) {
	raw, err := s.client.Get(dbc.Ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var st domlabel.SessionState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if st.Navigation.CompletedIndices == nil {
		st.Navigation.CompletedIndices = map[int]bool{}
	}
	return &st, nil
}

func (s *RedisStore) Save(dbc dbctx.Context, st *domlabel.SessionState) error {
	if st == nil || st.SessionID == "" {
		return fmt.Errorf("save session: missing session id")
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(dbc.Ctx, s.key(st.SessionID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(dbc dbctx.Context, sessionID string) error {
	if err := s.client.Del(dbc.Ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
