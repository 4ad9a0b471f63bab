package providers

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/samber/do/v2"

	"github.com/listenupapp/catalog-server/internal/config"
	"github.com/listenupapp/catalog-server/internal/logger"
	"github.com/listenupapp/catalog-server/internal/store"
	"github.com/listenupapp/catalog-server/internal/store/kv"
	"github.com/listenupapp/catalog-server/internal/store/mongo"
	"github.com/listenupapp/catalog-server/internal/store/sqlite"
)

const storeConnectTimeout = 10 * time.Second

// StoreHandle wraps the repository with shutdown capability.
type StoreHandle struct {
	store.Repository
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the repository selected by STORE_DRIVER.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithTimeout(context.Background(), storeConnectTimeout)
	defer cancel()

	repo, err := OpenStore(ctx, cfg, log.Logger)
	if err != nil {
		return nil, err
	}

	return &StoreHandle{Repository: repo}, nil
}

// OpenStore opens the repository backend named by cfg.Store.Driver.
func OpenStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (store.Repository, error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		path := filepath.Join(cfg.Data.BasePath, "catalog.db")
		repo, err := sqlite.Open(path, log)
		if err != nil {
			return nil, err
		}
		log.Info("Database initialized", "driver", cfg.Store.Driver, "path", path)
		return repo, nil

	case config.DriverBadger:
		path := filepath.Join(cfg.Data.BasePath, "kv")
		repo, err := kv.Open(path, log)
		if err != nil {
			return nil, err
		}
		log.Info("Database initialized", "driver", cfg.Store.Driver, "path", path)
		return repo, nil

	case config.DriverMongo:
		repo, err := mongo.Open(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase, log)
		if err != nil {
			return nil, err
		}
		log.Info("Database initialized", "driver", cfg.Store.Driver, "database", cfg.Store.MongoDatabase)
		return repo, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
