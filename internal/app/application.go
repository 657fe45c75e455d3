package app

import (
	"context"
	"fmt"

	"github.com/acmecorp/accesshub/internal/app/domain/catalog"
	catalogsvc "github.com/acmecorp/accesshub/internal/app/services/catalog"
	"github.com/acmecorp/accesshub/internal/app/services/notify"
	requestsvc "github.com/acmecorp/accesshub/internal/app/services/requests"
	sessionsvc "github.com/acmecorp/accesshub/internal/app/services/sessions"
	"github.com/acmecorp/accesshub/internal/app/storage"
	"github.com/acmecorp/accesshub/internal/app/storage/memory"
	"github.com/acmecorp/accesshub/internal/app/system"
	"github.com/acmecorp/accesshub/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Catalog      storage.CatalogStore
	Requests     storage.RequestStore
	Entitlements storage.EntitlementStore
}

// Options tunes application wiring.
type Options struct {
	// CatalogApps seeds the catalog store when non-empty. Seeding a store
	// that already holds a catalog fails.
	CatalogApps []catalog.App
	// ProgressionSchedule is a cron spec for the autonomous driver; empty
	// selects the default cadence.
	ProgressionSchedule string
	// Probabilities overrides transition chances when non-zero.
	Probabilities *requestsvc.Probabilities
	// NotificationLimit caps the in-memory feed; 0 selects the default.
	NotificationLimit int
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Catalog       *catalogsvc.Service
	Requests      *requestsvc.Service
	Sessions      *sessionsvc.Service
	Notifications *notify.Service
	Progression   *requestsvc.Progression
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Catalog == nil {
		stores.Catalog = mem
	}
	if stores.Requests == nil {
		stores.Requests = mem
	}
	if stores.Entitlements == nil {
		stores.Entitlements = mem
	}

	if len(opts.CatalogApps) > 0 {
		if err := stores.Catalog.SeedCatalog(context.Background(), opts.CatalogApps); err != nil {
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
	}

	manager := system.NewManager()

	notifications := notify.NewService(opts.NotificationLimit, log)
	catalogService := catalogsvc.New(stores.Catalog, stores.Entitlements, log)
	requestService := requestsvc.New(stores.Catalog, stores.Requests, stores.Entitlements, log)
	requestService.AttachNotifier(notifications)
	sessionService := sessionsvc.New(stores.Catalog, stores.Entitlements, log)
	sessionService.AttachNotifier(notifications)

	progression := requestsvc.NewProgression(requestService, opts.ProgressionSchedule, log)
	if opts.Probabilities != nil {
		progression.WithProbabilities(*opts.Probabilities)
	}

	if err := manager.Register(progression); err != nil {
		return nil, fmt.Errorf("register %s: %w", progression.Name(), err)
	}

	return &Application{
		manager:       manager,
		log:           log,
		Catalog:       catalogService,
		Requests:      requestService,
		Sessions:      sessionService,
		Notifications: notifications,
		Progression:   progression,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
