package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/vojaudio/voj-server/internal/config"
	"github.com/vojaudio/voj-server/internal/ingest"
	"github.com/vojaudio/voj-server/internal/logger"
	"github.com/vojaudio/voj-server/internal/storage"
)

// StorageHandle wraps the storage adapter with shutdown capability.
type StorageHandle struct {
	storage.Adapter
}

// Shutdown implements do.Shutdownable.
func (h *StorageHandle) Shutdown() error {
	return h.Close()
}

// ProvideStorageAdapter provides the configured audio storage backend.
func ProvideStorageAdapter(i do.Injector) (*StorageHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	adapter, err := storage.NewAdapter(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	log.Info("Audio storage initialized",
		"backend", cfg.Storage.Backend,
		"key_prefix", cfg.Storage.KeyPrefix)

	return &StorageHandle{Adapter: adapter}, nil
}

// ProvideIngestValidator provides the upload validator with the ffprobe
// metadata extractor.
func ProvideIngestValidator(i do.Injector) (*ingest.Validator, error) {
	cfg := do.MustInvoke[*config.Config](i)

	extractor := ingest.NewFFprobeExtractor()
	extractor.BinaryPath = cfg.Ingest.FFprobePath

	return ingest.NewValidator(ingest.Options{
		MaxFileSize: cfg.Ingest.MaxFileSize,
		MinDuration: cfg.Ingest.MinDuration.Seconds(),
		MaxDuration: cfg.Ingest.MaxDuration.Seconds(),
	}, extractor), nil
}
