package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/acmecorp/accesshub/internal/app/domain/catalog"
	"github.com/acmecorp/accesshub/internal/app/domain/request"
	"github.com/acmecorp/accesshub/internal/app/domain/session"
	"github.com/acmecorp/accesshub/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use; the mutex is the single serialization point for the
// request list and the entitlement sets, so the progression runner and user
// commands never observe a partially mutated record.
type Store struct {
	mu           sync.RWMutex
	nextID       int64
	catalog      []catalog.App
	catalogByID  map[string]int
	requests     map[string]request.Request
	requestOrder []string
	owned        map[string]session.OwnedApp
	ownedOrder   []string
	pending      map[string]struct{}
	pendingOrder []string
}

var _ storage.CatalogStore = (*Store)(nil)
var _ storage.RequestStore = (*Store)(nil)
var _ storage.EntitlementStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:      1,
		catalogByID: make(map[string]int),
		requests:    make(map[string]request.Request),
		owned:       make(map[string]session.OwnedApp),
		pending:     make(map[string]struct{}),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("req-%d", id)
}

// CatalogStore implementation -------------------------------------------------

func (s *Store) SeedCatalog(_ context.Context, apps []catalog.App) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.catalog) > 0 {
		return fmt.Errorf("catalog already seeded")
	}
	// Validate into a fresh index so a failed seed leaves the store untouched.
	index := make(map[string]int, len(apps))
	for i, app := range apps {
		if strings.TrimSpace(app.ID) == "" {
			return fmt.Errorf("catalog entry %d: id is required", i)
		}
		if _, exists := index[app.ID]; exists {
			return fmt.Errorf("catalog entry %d: duplicate id %s", i, app.ID)
		}
		index[app.ID] = i
	}
	s.catalogByID = index
	s.catalog = append([]catalog.App(nil), apps...)
	return nil
}

func (s *Store) ListApps(_ context.Context) ([]catalog.App, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]catalog.App(nil), s.catalog...), nil
}

func (s *Store) GetApp(_ context.Context, id string) (catalog.App, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.catalogByID[id]
	if !ok {
		return catalog.App{}, fmt.Errorf("app %s: %w", id, storage.ErrNotFound)
	}
	return s.catalog[idx], nil
}

func (s *Store) GetAppByName(_ context.Context, name string) (catalog.App, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, app := range s.catalog {
		if strings.EqualFold(app.Name, name) {
			return app, nil
		}
	}
	return catalog.App{}, fmt.Errorf("app named %q: %w", name, storage.ErrNotFound)
}

// RequestStore implementation -------------------------------------------------

func (s *Store) CreateRequest(_ context.Context, req request.Request) (request.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.ID == "" {
		req.ID = s.nextIDLocked()
	} else if _, exists := s.requests[req.ID]; exists {
		return request.Request{}, fmt.Errorf("request %s already exists", req.ID)
	}

	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now

	s.requests[req.ID] = req
	s.requestOrder = append(s.requestOrder, req.ID)
	return req, nil
}

func (s *Store) UpdateRequest(_ context.Context, req request.Request) (request.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.requests[req.ID]
	if !ok {
		return request.Request{}, fmt.Errorf("request %s: %w", req.ID, storage.ErrNotFound)
	}

	req.CreatedAt = original.CreatedAt
	req.UpdatedAt = time.Now().UTC()

	s.requests[req.ID] = req
	return req, nil
}

func (s *Store) GetRequest(_ context.Context, id string) (request.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[id]
	if !ok {
		return request.Request{}, fmt.Errorf("request %s: %w", id, storage.ErrNotFound)
	}
	return req, nil
}

func (s *Store) ListRequests(_ context.Context) ([]request.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]request.Request, 0, len(s.requestOrder))
	for i := len(s.requestOrder) - 1; i >= 0; i-- {
		if req, ok := s.requests[s.requestOrder[i]]; ok {
			result = append(result, req)
		}
	}
	return result, nil
}

func (s *Store) ListActiveRequests(_ context.Context) ([]request.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]request.Request, 0)
	for i := len(s.requestOrder) - 1; i >= 0; i-- {
		req, ok := s.requests[s.requestOrder[i]]
		if ok && !req.Status.Terminal() {
			result = append(result, req)
		}
	}
	return result, nil
}

func (s *Store) DeleteRequest(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[id]; !ok {
		return fmt.Errorf("request %s: %w", id, storage.ErrNotFound)
	}
	delete(s.requests, id)
	for i, existing := range s.requestOrder {
		if existing == id {
			s.requestOrder = append(s.requestOrder[:i], s.requestOrder[i+1:]...)
			break
		}
	}
	return nil
}

// EntitlementStore implementation ---------------------------------------------

func (s *Store) AddOwnedApp(_ context.Context, owned session.OwnedApp) (session.OwnedApp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(owned.AppID) == "" {
		return session.OwnedApp{}, fmt.Errorf("app_id is required")
	}
	if existing, ok := s.owned[owned.AppID]; ok {
		return existing, nil
	}

	now := time.Now().UTC()
	if owned.GrantedAt.IsZero() {
		owned.GrantedAt = now
	}
	if owned.LastUsed.IsZero() {
		owned.LastUsed = now
	}

	s.owned[owned.AppID] = owned
	s.ownedOrder = append(s.ownedOrder, owned.AppID)
	return owned, nil
}

func (s *Store) TouchOwnedApp(_ context.Context, appID string) (session.OwnedApp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned, ok := s.owned[appID]
	if !ok {
		return session.OwnedApp{}, fmt.Errorf("owned app %s: %w", appID, storage.ErrNotFound)
	}
	owned.LastUsed = time.Now().UTC()
	s.owned[appID] = owned
	return owned, nil
}

func (s *Store) GetOwnedApp(_ context.Context, appID string) (session.OwnedApp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned, ok := s.owned[appID]
	if !ok {
		return session.OwnedApp{}, fmt.Errorf("owned app %s: %w", appID, storage.ErrNotFound)
	}
	return owned, nil
}

func (s *Store) ListOwnedApps(_ context.Context) ([]session.OwnedApp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]session.OwnedApp, 0, len(s.ownedOrder))
	for _, id := range s.ownedOrder {
		if owned, ok := s.owned[id]; ok {
			result = append(result, owned)
		}
	}
	return result, nil
}

func (s *Store) AddPendingApp(_ context.Context, appID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(appID) == "" {
		return fmt.Errorf("app_id is required")
	}
	if _, ok := s.pending[appID]; ok {
		return nil
	}
	s.pending[appID] = struct{}{}
	s.pendingOrder = append(s.pendingOrder, appID)
	return nil
}

func (s *Store) RemovePendingApp(_ context.Context, appID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[appID]; !ok {
		return nil
	}
	delete(s.pending, appID)
	for i, existing := range s.pendingOrder {
		if existing == appID {
			s.pendingOrder = append(s.pendingOrder[:i], s.pendingOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) ListPendingAppIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string(nil), s.pendingOrder...), nil
}

func (s *Store) ResetUserState(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.owned = make(map[string]session.OwnedApp)
	s.ownedOrder = nil
	s.pending = make(map[string]struct{})
	s.pendingOrder = nil
	s.requests = make(map[string]request.Request)
	s.requestOrder = nil
	return nil
}
