package requests

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/acmecorp/accesshub/internal/app/domain/catalog"
	"github.com/acmecorp/accesshub/internal/app/domain/notification"
	"github.com/acmecorp/accesshub/internal/app/domain/request"
	"github.com/acmecorp/accesshub/internal/app/domain/session"
	"github.com/acmecorp/accesshub/internal/app/metrics"
	"github.com/acmecorp/accesshub/internal/app/services/notify"
	"github.com/acmecorp/accesshub/internal/app/storage"
	"github.com/acmecorp/accesshub/pkg/logger"
)

// ErrValidation marks requests rejected for missing or malformed fields.
var ErrValidation = errors.New("validation failed")

// ErrRestricted marks attempts to request an app whose effective status is
// restricted. Surfaced to the user, never fatal.
var ErrRestricted = errors.New("access restricted")

// ErrConflict marks transitions attempted from the wrong state.
var ErrConflict = errors.New("invalid transition")

// Stamps applied by review transitions. The approval pipeline is simulated,
// so approver identity and provisioning estimates are synthetic.
const (
	defaultApprover  = "John Smith (Manager)"
	approvalNote     = "Approved based on business justification."
	provisioningNote = "Within 24 hours"
)

// Service owns the access-request list and its state machine. All transitions
// go through here; the progression runner and the HTTP layer are callers, not
// owners.
type Service struct {
	catalog      storage.CatalogStore
	store        storage.RequestStore
	entitlements storage.EntitlementStore
	notifier     notify.Notifier
	log          *logger.Logger
}

// New constructs a request service.
func New(catalogStore storage.CatalogStore, store storage.RequestStore, entitlements storage.EntitlementStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("requests")
	}
	return &Service{
		catalog:      catalogStore,
		store:        store,
		entitlements: entitlements,
		log:          log,
	}
}

// AttachNotifier assigns the notification sink. Nil disables notifications.
func (s *Service) AttachNotifier(n notify.Notifier) {
	s.notifier = n
}

// Submit validates and files a new access request in the pending state. The
// app id joins the pending set; the request list stays untouched on any
// validation failure.
func (s *Service) Submit(ctx context.Context, appID, justification, duration, urgency, businessCase string) (request.Request, error) {
	appID = strings.TrimSpace(appID)
	justification = strings.TrimSpace(justification)
	duration = strings.TrimSpace(duration)
	urgency = strings.TrimSpace(urgency)

	if appID == "" {
		return request.Request{}, fmt.Errorf("%w: app_id is required", ErrValidation)
	}
	if justification == "" {
		return request.Request{}, fmt.Errorf("%w: justification is required", ErrValidation)
	}
	if duration == "" {
		return request.Request{}, fmt.Errorf("%w: duration is required", ErrValidation)
	}
	if urgency == "" {
		return request.Request{}, fmt.Errorf("%w: urgency is required", ErrValidation)
	}
	if !request.ValidDuration(duration) {
		return request.Request{}, fmt.Errorf("%w: unknown duration %q", ErrValidation, duration)
	}
	if !request.ValidUrgency(urgency) {
		return request.Request{}, fmt.Errorf("%w: unknown urgency %q", ErrValidation, urgency)
	}

	app, err := s.catalog.GetApp(ctx, appID)
	if err != nil {
		return request.Request{}, err
	}
	if app.BaseStatus == catalog.StatusRestricted {
		if _, err := s.entitlements.GetOwnedApp(ctx, appID); err != nil {
			return request.Request{}, fmt.Errorf("%w: %s requires IT administrator approval", ErrRestricted, app.Name)
		}
	}

	req := request.Request{
		AppID:         app.ID,
		AppName:       app.Name,
		Status:        request.StatusPending,
		Justification: justification,
		Duration:      duration,
		Urgency:       urgency,
		BusinessCase:  strings.TrimSpace(businessCase),
	}
	req, err = s.store.CreateRequest(ctx, req)
	if err != nil {
		return request.Request{}, err
	}
	if err := s.entitlements.AddPendingApp(ctx, app.ID); err != nil {
		return request.Request{}, err
	}

	s.notify(notification.KindSubmitted, app.Name, fmt.Sprintf("Access request submitted for %s", app.Name))
	metrics.RecordTransition("", string(request.StatusPending))
	s.log.WithField("request_id", req.ID).
		WithField("app_id", app.ID).
		Info("access request submitted")
	return req, nil
}

// Cancel removes a request outright, whatever its status. Unknown ids are a
// silent no-op. The app id intentionally stays in the pending set; see the
// resolver's ownership precedence for why the catalog view stays coherent.
func (s *Service) Cancel(ctx context.Context, requestID string) error {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := s.store.DeleteRequest(ctx, requestID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}

	s.notify(notification.KindCancelled, req.AppName, "Request cancelled")
	s.log.WithField("request_id", requestID).
		WithField("app_id", req.AppID).
		Info("access request cancelled")
	return nil
}

// Get fetches a request by id.
func (s *Service) Get(ctx context.Context, requestID string) (request.Request, error) {
	return s.store.GetRequest(ctx, requestID)
}

// List returns all requests, most recent first.
func (s *Service) List(ctx context.Context) ([]request.Request, error) {
	return s.store.ListRequests(ctx)
}

// ListActive returns requests in non-terminal states, most recent first.
func (s *Service) ListActive(ctx context.Context) ([]request.Request, error) {
	return s.store.ListActiveRequests(ctx)
}

// Approve moves a pending request to approved, stamping the approver.
func (s *Service) Approve(ctx context.Context, requestID, approver, notes string) (request.Request, error) {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return request.Request{}, err
	}
	if req.Status != request.StatusPending {
		return request.Request{}, fmt.Errorf("%w: cannot approve request in status %s", ErrConflict, req.Status)
	}

	if strings.TrimSpace(approver) == "" {
		approver = defaultApprover
	}
	if strings.TrimSpace(notes) == "" {
		notes = approvalNote
	}
	req.Status = request.StatusApproved
	req.Approver = approver
	req.Notes = notes

	req, err = s.store.UpdateRequest(ctx, req)
	if err != nil {
		return request.Request{}, err
	}

	s.notify(notification.KindApproved, req.AppName, fmt.Sprintf("%s request approved!", req.AppName))
	metrics.RecordTransition(string(request.StatusPending), string(request.StatusApproved))
	s.log.WithField("request_id", req.ID).
		WithField("approver", approver).
		Info("access request approved")
	return req, nil
}

// Reject moves a pending request to the rejected terminal state and releases
// the app's pending marker, so the catalog stops showing it as in flight.
func (s *Service) Reject(ctx context.Context, requestID, notes string) (request.Request, error) {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return request.Request{}, err
	}
	if req.Status != request.StatusPending {
		return request.Request{}, fmt.Errorf("%w: cannot reject request in status %s", ErrConflict, req.Status)
	}

	req.Status = request.StatusRejected
	req.Notes = strings.TrimSpace(notes)

	req, err = s.store.UpdateRequest(ctx, req)
	if err != nil {
		return request.Request{}, err
	}

	s.releasePendingApp(ctx, req.AppID)

	metrics.RecordTransition(string(request.StatusPending), string(request.StatusRejected))
	s.log.WithField("request_id", req.ID).Info("access request rejected")
	return req, nil
}

// BeginProvisioning moves an approved request into provisioning with an
// estimated completion.
func (s *Service) BeginProvisioning(ctx context.Context, requestID, estimate string) (request.Request, error) {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return request.Request{}, err
	}
	if req.Status != request.StatusApproved {
		return request.Request{}, fmt.Errorf("%w: cannot provision request in status %s", ErrConflict, req.Status)
	}

	if strings.TrimSpace(estimate) == "" {
		estimate = provisioningNote
	}
	req.Status = request.StatusProvisioning
	req.EstimatedCompletion = estimate

	req, err = s.store.UpdateRequest(ctx, req)
	if err != nil {
		return request.Request{}, err
	}

	metrics.RecordTransition(string(request.StatusApproved), string(request.StatusProvisioning))
	s.log.WithField("request_id", req.ID).Info("access request provisioning")
	return req, nil
}

// Complete finishes provisioning. The corresponding catalog app, looked up by
// its denormalized name, joins the owned set; a missing app skips the side
// effect. The owned set never gains duplicates.
func (s *Service) Complete(ctx context.Context, requestID string) (request.Request, error) {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return request.Request{}, err
	}
	if req.Status != request.StatusProvisioning {
		return request.Request{}, fmt.Errorf("%w: cannot complete request in status %s", ErrConflict, req.Status)
	}

	req.Status = request.StatusComplete
	req, err = s.store.UpdateRequest(ctx, req)
	if err != nil {
		return request.Request{}, err
	}

	if app, err := s.catalog.GetAppByName(ctx, req.AppName); err == nil {
		if _, err := s.entitlements.AddOwnedApp(ctx, session.OwnedApp{AppID: app.ID, AppName: app.Name}); err != nil {
			s.log.WithError(err).
				WithField("app_id", app.ID).
				Warn("grant owned app failed")
		}
	} else {
		s.log.WithField("app_name", req.AppName).Warn("completed request references unknown app; grant skipped")
	}

	s.notify(notification.KindAvailable, req.AppName,
		fmt.Sprintf("%s is now available! You can launch it from your dashboard.", req.AppName))
	metrics.RecordTransition(string(request.StatusProvisioning), string(request.StatusComplete))
	s.log.WithField("request_id", req.ID).Info("access request complete")
	return req, nil
}

// releasePendingApp drops the pending marker for an app once no active request
// references it. Duplicate in-flight requests keep the marker alive.
func (s *Service) releasePendingApp(ctx context.Context, appID string) {
	active, err := s.store.ListActiveRequests(ctx)
	if err != nil {
		s.log.WithError(err).
			WithField("app_id", appID).
			Warn("release pending app failed")
		return
	}
	for _, r := range active {
		if r.AppID == appID {
			return
		}
	}
	if err := s.entitlements.RemovePendingApp(ctx, appID); err != nil {
		s.log.WithError(err).
			WithField("app_id", appID).
			Warn("release pending app failed")
	}
}

func (s *Service) notify(kind notification.Kind, appName, message string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(kind, appName, message)
}
