package providers

import (
	"errors"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/vojaudio/voj-server/internal/auth"
	"github.com/vojaudio/voj-server/internal/config"
	"github.com/vojaudio/voj-server/internal/ingest"
	"github.com/vojaudio/voj-server/internal/logger"
	"github.com/vojaudio/voj-server/internal/ratelimit"
	"github.com/vojaudio/voj-server/internal/service"
)

// ProvideAuthService provides the admin authentication service. The admin
// password is hashed here and dropped from the config afterwards.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	tokens := do.MustInvoke[*auth.TokenService](i)

	if cfg.Auth.AdminPassword == "" {
		return nil, errors.New("ADMIN_PASSWORD must be set")
	}

	hash, err := auth.HashPassword(cfg.Auth.AdminPassword)
	if err != nil {
		return nil, err
	}
	cfg.Auth.AdminPassword = ""

	limiter := ratelimit.New(cfg.Auth.LoginRPS, cfg.Auth.LoginBurst)

	return service.NewAuthService(tokens, cfg.Auth.AdminUsername, hash, limiter, log.Logger), nil
}

// ProvideBookService provides the catalog service.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storageHandle := do.MustInvoke[*StorageHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBookService(storeHandle.Store, indexHandle.BookIndex, storageHandle.Adapter, log.Logger), nil
}

// ProvideChapterService provides the chapter ingestion service.
func ProvideChapterService(i do.Injector) (*service.ChapterService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	storageHandle := do.MustInvoke[*StorageHandle](i)
	validator := do.MustInvoke[*ingest.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewChapterService(
		storeHandle.Store,
		storageHandle.Adapter,
		validator,
		cfg.Storage.KeyPrefix,
		cfg.Storage.PresignTTL,
		log.Logger,
	), nil
}

// ProvideIngestService provides the dry-run validation service.
func ProvideIngestService(i do.Injector) (*service.IngestService, error) {
	validator := do.MustInvoke[*ingest.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewIngestService(validator, log.Logger), nil
}

// ProvideLogService provides the client log backup service.
func ProvideLogService(i do.Injector) (*service.LogService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dir := filepath.Join(cfg.Data.BasePath, "logs", "backups")
	return service.NewLogService(dir, log.Logger), nil
}
