package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/catalog-server/internal/auth"
	"github.com/listenupapp/catalog-server/internal/config"
	"github.com/listenupapp/catalog-server/internal/logger"
	"github.com/listenupapp/catalog-server/internal/service"
	"github.com/listenupapp/catalog-server/internal/validation"
)

// ProvideValidator provides the shared input validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	hasher := do.MustInvoke[auth.PasswordHasher](i)
	validator := do.MustInvoke[*validation.Validator](i)
	brokerHandle := do.MustInvoke[*EventBrokerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(
		storeHandle.Repository,
		tokenService,
		hasher,
		validator,
		brokerHandle.Broker,
		cfg.Auth.DefaultPassword,
		log.Logger,
	), nil
}

// CatalogServiceHandle wraps the catalog service so shutdown waits for
// background book count updates.
type CatalogServiceHandle struct {
	*service.CatalogService
}

// Shutdown implements do.Shutdownable.
func (h *CatalogServiceHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.CatalogService.Shutdown(ctx)
}

// ProvideCatalogService provides the catalog service.
func ProvideCatalogService(i do.Injector) (*CatalogServiceHandle, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	brokerHandle := do.MustInvoke[*EventBrokerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewCatalogService(storeHandle.Repository, validator, brokerHandle.Broker, log.Logger)

	return &CatalogServiceHandle{CatalogService: svc}, nil
}
