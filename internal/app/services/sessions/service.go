package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/acmecorp/accesshub/internal/app/domain/catalog"
	"github.com/acmecorp/accesshub/internal/app/domain/notification"
	"github.com/acmecorp/accesshub/internal/app/domain/session"
	"github.com/acmecorp/accesshub/internal/app/services/notify"
	"github.com/acmecorp/accesshub/internal/app/storage"
	"github.com/acmecorp/accesshub/pkg/logger"
)

// ErrValidation marks logins rejected for missing credentials.
var ErrValidation = errors.New("validation failed")

// ErrNoSession is returned when no user is logged in.
var ErrNoSession = errors.New("no active session")

// Department defaults seed this many owned apps at login.
const seedLimit = 3

// Service owns the single active user session and the launch action.
// Authentication is stubbed: any well-formed credentials succeed.
type Service struct {
	catalog      storage.CatalogStore
	entitlements storage.EntitlementStore
	notifier     notify.Notifier
	log          *logger.Logger

	mu      sync.Mutex
	current *session.Session
}

// New constructs a session service.
func New(catalogStore storage.CatalogStore, entitlements storage.EntitlementStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("sessions")
	}
	return &Service{
		catalog:      catalogStore,
		entitlements: entitlements,
		log:          log,
	}
}

// AttachNotifier assigns the notification sink. Nil disables notifications.
func (s *Service) AttachNotifier(n notify.Notifier) {
	s.notifier = n
}

// Login validates credentials, replaces any active session and seeds the
// owned set from department defaults: the first seedLimit available apps
// affiliated with the user's department.
func (s *Service) Login(ctx context.Context, name, email, password, department, role string) (session.Session, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	department = strings.TrimSpace(department)
	role = strings.TrimSpace(role)

	if email == "" {
		return session.Session{}, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if password == "" {
		return session.Session{}, fmt.Errorf("%w: password is required", ErrValidation)
	}
	if department == "" {
		return session.Session{}, fmt.Errorf("%w: department is required", ErrValidation)
	}
	if role == "" {
		return session.Session{}, fmt.Errorf("%w: role is required", ErrValidation)
	}
	if name == "" {
		name = email
		if at := strings.IndexByte(email, '@'); at > 0 {
			name = email[:at]
		}
	}

	sess := session.Session{
		ID:         uuid.NewString(),
		Name:       name,
		Email:      email,
		Department: department,
		Role:       role,
		CreatedAt:  time.Now().UTC(),
	}

	s.mu.Lock()
	replaced := s.current != nil
	s.current = &sess
	s.mu.Unlock()

	if replaced {
		// A fresh login restarts the user's world, like a page reload did.
		if err := s.entitlements.ResetUserState(ctx); err != nil {
			return session.Session{}, err
		}
	}
	if err := s.seedDepartmentApps(ctx, department); err != nil {
		return session.Session{}, err
	}

	if s.notifier != nil {
		s.notifier.Publish(notification.KindWelcome, "", fmt.Sprintf("Welcome back, %s!", name))
	}
	s.log.WithField("email", email).
		WithField("department", department).
		Info("user logged in")
	return sess, nil
}

// Logout destroys the session and all per-user state. Safe to call without an
// active session.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	had := s.current != nil
	s.current = nil
	s.mu.Unlock()

	if !had {
		return nil
	}
	if err := s.entitlements.ResetUserState(ctx); err != nil {
		return err
	}
	s.log.Info("user logged out")
	return nil
}

// Current returns the active session.
func (s *Service) Current(context.Context) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return session.Session{}, ErrNoSession
	}
	return *s.current, nil
}

// Launch touches the last-used marker of an owned app. Launching an unknown
// or unowned app is a silent no-op.
func (s *Service) Launch(ctx context.Context, appID string) error {
	app, err := s.catalog.GetApp(ctx, appID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}

	if _, err := s.entitlements.TouchOwnedApp(ctx, app.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}

	if s.notifier != nil {
		s.notifier.Publish(notification.KindLaunch, app.Name, fmt.Sprintf("Launching %s...", app.Name))
	}
	s.log.WithField("app_id", app.ID).Debug("app launched")
	return nil
}

// OwnedApps lists the current user's applications in grant order.
func (s *Service) OwnedApps(ctx context.Context) ([]session.OwnedApp, error) {
	return s.entitlements.ListOwnedApps(ctx)
}

func (s *Service) seedDepartmentApps(ctx context.Context, department string) error {
	apps, err := s.catalog.ListApps(ctx)
	if err != nil {
		return err
	}

	seeded := 0
	for _, app := range apps {
		if seeded >= seedLimit {
			break
		}
		if app.BaseStatus != catalog.StatusAvailable || !app.InDepartment(department) {
			continue
		}
		if _, err := s.entitlements.AddOwnedApp(ctx, session.OwnedApp{AppID: app.ID, AppName: app.Name}); err != nil {
			return err
		}
		seeded++
	}
	if seeded > 0 {
		s.log.WithField("department", department).
			Infof("seeded %d department apps", seeded)
	}
	return nil
}
