package app

import (
	"gorm.io/gorm"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/labelbridge-backend/internal/data/repos/annotation"
	"github.com/yungbote/labelbridge-backend/internal/data/repos/session"
	"github.com/yungbote/labelbridge-backend/internal/pkg/logger"
)

type Repos struct {
	Annotation annotation.AnnotationRepo
	Session    session.Store
}

func wireRepos(db *gorm.DB, rdb *goredis.Client, log *logger.Logger, cfg Config) Repos {
	log.Info("Wiring repos...")
	var sessions session.Store
	backend, _ := session.ParseBackend(cfg.Session.Backend)
	switch backend {
	case session.BackendRedis:
		sessions = session.NewRedisStore(rdb, cfg.Auth.AccessTTL)
	case session.BackendDB:
		sessions = session.NewSessionRepo(db, log)
	default:
		sessions = session.NewMemoryStore()
	}
	log.Info("Session store selected", "backend", backend)
	return Repos{
		Annotation: annotation.NewAnnotationRepo(db, log),
		Session:    sessions,
	}
}
