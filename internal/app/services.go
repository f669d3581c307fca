package app

import (
	"fmt"

	"github.com/yungbote/labelbridge-backend/internal/data/source"
	domlabel "github.com/yungbote/labelbridge-backend/internal/domain/labeling"
	"github.com/yungbote/labelbridge-backend/internal/observability"
	"github.com/yungbote/labelbridge-backend/internal/pkg/logger"
	"github.com/yungbote/labelbridge-backend/internal/services"
)

type Services struct {
	Catalog  *source.Catalog
	History  *services.HistoryCache
	Labeling services.LabelingService
	Auth     services.AuthService
}

func wireServices(log *logger.Logger, cfg Config, repos Repos, loader source.Loader, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	catalog := source.NewCatalog(loader, log)
	history := services.NewHistoryCache(repos.Annotation, log)
	catalog.OnReload(func(version uint64) {
		history.Invalidate(fmt.Sprintf("source_reload:%d", version))
	})

	deps := services.LabelingDeps{
		Store:    repos.Annotation,
		Sessions: repos.Session,
		Catalog:  catalog,
		History:  history,
	}
	if metrics != nil {
		deps.Metrics = metrics
		catalog.SetObserver(metrics.RecordSourceReload)
	}
	labeling := services.NewLabelingService(deps, services.LabelingConfig{
		HideReviewed:            cfg.Review.HideReviewed,
		MaxChunksPerConnection:  cfg.Review.MaxChunksPerConnection,
		DefaultConfidenceFilter: cfg.Review.ConfidenceFilter,
		Location:                cfg.Location(),
	}, log)

	creds := make([]services.Credential, 0, len(cfg.Auth.Users))
	for _, u := range cfg.Auth.Users {
		role, _ := domlabel.ParseRole(u.Role)
		creds = append(creds, services.Credential{
			Username:     u.Username,
			Name:         u.Name,
			PasswordHash: u.PasswordHash,
			Role:         role,
		})
	}
	if len(creds) == 0 {
		log.Warn("Credential book is empty; nobody can log in")
	}
	auth, err := services.NewAuthService(log, creds, repos.Session, labeling, cfg.Auth.JWTSecret, cfg.Auth.AccessTTL)
	if err != nil {
		return Services{}, fmt.Errorf("init auth service: %w", err)
	}

	return Services{
		Catalog:  catalog,
		History:  history,
		Labeling: labeling,
		Auth:     auth,
	}, nil
}
