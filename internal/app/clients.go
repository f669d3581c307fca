package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	redisclient "github.com/yungbote/labelbridge-backend/internal/clients/redis"
	"github.com/yungbote/labelbridge-backend/internal/data/db"
	"github.com/yungbote/labelbridge-backend/internal/data/repos/session"
	"github.com/yungbote/labelbridge-backend/internal/pkg/logger"
)

type Clients struct {
	Database *db.Service
	Redis    *goredis.Client
	Source   sourceBackend
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	database, err := db.NewService(db.Config{
		Driver:        cfg.Database.Driver,
		DSN:           cfg.Database.DSN,
		SlowThreshold: cfg.Database.SlowThreshold,
		MaxOpenConns:  cfg.Database.MaxOpenConns,
	}, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(database.DB()); err != nil {
		_ = database.Close()
		return Clients{}, fmt.Errorf("automigrate: %w", err)
	}
	c := Clients{Database: database}

	backend, _ := session.ParseBackend(cfg.Session.Backend)
	if backend == session.BackendRedis {
		rdb, err := redisclient.NewClient(ctx, redisclient.Config{
			URL:  cfg.Session.RedisURL,
			Addr: cfg.Session.RedisAddr,
		}, log)
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		c.Redis = rdb
	}

	src, err := resolveSource(ctx, log, cfg.Sources)
	if err != nil {
		c.Close()
		return Clients{}, err
	}
	c.Source = src
	return c, nil
}

func (c *Clients) DB() *gorm.DB {
	if c == nil || c.Database == nil {
		return nil
	}
	return c.Database.DB()
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Source.Close != nil {
		c.Source.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Database != nil {
		_ = c.Database.Close()
	}
}
