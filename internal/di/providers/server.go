package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/vojaudio/voj-server/internal/api"
	"github.com/vojaudio/voj-server/internal/config"
	"github.com/vojaudio/voj-server/internal/logger"
	"github.com/vojaudio/voj-server/internal/service"
)

// serverVersion is stamped at build time via -ldflags.
var serverVersion = "dev"

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	storageHandle := do.MustInvoke[*StorageHandle](i)

	services := api.Services{
		Auth:    do.MustInvoke[*service.AuthService](i),
		Book:    do.MustInvoke[*service.BookService](i),
		Chapter: do.MustInvoke[*service.ChapterService](i),
		Ingest:  do.MustInvoke[*service.IngestService](i),
		Log:     do.MustInvoke[*service.LogService](i),
	}

	handler := api.NewServer(storeHandle.Store, services, storageHandle.Adapter, serverVersion, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr, "name", cfg.Server.Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
