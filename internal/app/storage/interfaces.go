package storage

import (
	"context"

	"github.com/acmecorp/accesshub/internal/app/domain/catalog"
	"github.com/acmecorp/accesshub/internal/app/domain/request"
	"github.com/acmecorp/accesshub/internal/app/domain/session"
)

// CatalogStore holds the immutable application catalog. SeedCatalog is called
// exactly once at startup; list order is the seed order.
type CatalogStore interface {
	SeedCatalog(ctx context.Context, apps []catalog.App) error
	ListApps(ctx context.Context) ([]catalog.App, error)
	GetApp(ctx context.Context, id string) (catalog.App, error)
	GetAppByName(ctx context.Context, name string) (catalog.App, error)
}

// RequestStore persists access requests. ListRequests returns most recent
// first; ListActiveRequests returns requests in non-terminal states.
type RequestStore interface {
	CreateRequest(ctx context.Context, req request.Request) (request.Request, error)
	UpdateRequest(ctx context.Context, req request.Request) (request.Request, error)
	GetRequest(ctx context.Context, id string) (request.Request, error)
	ListRequests(ctx context.Context) ([]request.Request, error)
	ListActiveRequests(ctx context.Context) ([]request.Request, error)
	DeleteRequest(ctx context.Context, id string) error
}

// EntitlementStore tracks the current user's owned applications and the set
// of app ids with an in-flight request.
type EntitlementStore interface {
	AddOwnedApp(ctx context.Context, owned session.OwnedApp) (session.OwnedApp, error)
	TouchOwnedApp(ctx context.Context, appID string) (session.OwnedApp, error)
	GetOwnedApp(ctx context.Context, appID string) (session.OwnedApp, error)
	ListOwnedApps(ctx context.Context) ([]session.OwnedApp, error)

	AddPendingApp(ctx context.Context, appID string) error
	RemovePendingApp(ctx context.Context, appID string) error
	ListPendingAppIDs(ctx context.Context) ([]string, error)

	// ResetUserState drops owned apps, pending ids and requests. Called on
	// logout; catalog records survive.
	ResetUserState(ctx context.Context) error
}
