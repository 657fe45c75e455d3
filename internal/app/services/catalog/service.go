package catalog

import (
	"context"

	"github.com/acmecorp/accesshub/internal/app/domain/catalog"
	"github.com/acmecorp/accesshub/internal/app/storage"
	"github.com/acmecorp/accesshub/pkg/logger"
)

// Service exposes the personalized catalog: intrinsic records overlaid with
// the current user's ownership and in-flight requests, then filtered and
// ranked.
type Service struct {
	store        storage.CatalogStore
	entitlements storage.EntitlementStore
	log          *logger.Logger
}

// New constructs a catalog service.
func New(store storage.CatalogStore, entitlements storage.EntitlementStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("catalog")
	}
	return &Service{
		store:        store,
		entitlements: entitlements,
		log:          log,
	}
}

// List returns the full catalog in declaration order.
func (s *Service) List(ctx context.Context) ([]catalog.App, error) {
	return s.store.ListApps(ctx)
}

// Get retrieves a single catalog record.
func (s *Service) Get(ctx context.Context, id string) (catalog.App, error) {
	return s.store.GetApp(ctx, id)
}

// ResolveAll returns the catalog with effective statuses for the current user.
func (s *Service) ResolveAll(ctx context.Context) ([]catalog.ResolvedApp, error) {
	apps, err := s.store.ListApps(ctx)
	if err != nil {
		return nil, err
	}
	owned, err := s.entitlements.ListOwnedApps(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.entitlements.ListPendingAppIDs(ctx)
	if err != nil {
		return nil, err
	}

	ownedIDs := make([]string, 0, len(owned))
	for _, o := range owned {
		ownedIDs = append(ownedIDs, o.AppID)
	}
	return Resolve(apps, ownedIDs, pending), nil
}

// ResolveApp returns the effective status for one app.
func (s *Service) ResolveApp(ctx context.Context, id string) (catalog.ResolvedApp, error) {
	app, err := s.store.GetApp(ctx, id)
	if err != nil {
		return catalog.ResolvedApp{}, err
	}
	resolved, err := s.ResolveAll(ctx)
	if err != nil {
		return catalog.ResolvedApp{}, err
	}
	for _, r := range resolved {
		if r.ID == app.ID {
			return r, nil
		}
	}
	return catalog.ResolvedApp{App: app, Status: app.BaseStatus}, nil
}

// Browse resolves the catalog and applies the query in one step.
func (s *Service) Browse(ctx context.Context, q Query) ([]catalog.ResolvedApp, error) {
	resolved, err := s.ResolveAll(ctx)
	if err != nil {
		return nil, err
	}
	return Apply(resolved, q), nil
}
