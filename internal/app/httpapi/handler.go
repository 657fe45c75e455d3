package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	app "github.com/acmecorp/accesshub/internal/app"
	"github.com/acmecorp/accesshub/internal/app/metrics"
	catalogsvc "github.com/acmecorp/accesshub/internal/app/services/catalog"
	requestsvc "github.com/acmecorp/accesshub/internal/app/services/requests"
	sessionsvc "github.com/acmecorp/accesshub/internal/app/services/sessions"
	"github.com/acmecorp/accesshub/internal/app/storage"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app   *app.Application
	audit *auditLog
}

// NewHandler returns a mux exposing the core REST API. auditPath, when
// non-empty, appends audit entries as JSONL to the given file.
func NewHandler(application *app.Application, auditPath string) (http.Handler, error) {
	sink, err := newFileAuditSink(auditPath)
	if err != nil {
		return nil, fmt.Errorf("open audit sink: %w", err)
	}

	h := &handler{app: application, audit: newAuditLog(0, sink)}
	mux := http.NewServeMux()
	mux.HandleFunc("/session", h.session)
	mux.HandleFunc("/catalog", h.catalog)
	mux.HandleFunc("/apps/", h.appResources)
	mux.HandleFunc("/owned", h.owned)
	mux.HandleFunc("/requests", h.requests)
	mux.HandleFunc("/requests/", h.requestResources)
	mux.HandleFunc("/notifications", h.notifications)
	mux.HandleFunc("/notifications/seen", h.notificationsSeen)
	mux.HandleFunc("/audit", h.auditEntries)
	mux.HandleFunc("/healthz", h.healthz)
	mux.Handle("/metrics", metrics.Handler())

	return h.withAudit(metrics.InstrumentHandler(mux)), nil
}

func (h *handler) session(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var payload struct {
			Name       string `json:"name"`
			Email      string `json:"email"`
			Password   string `json:"password"`
			Department string `json:"department"`
			Role       string `json:"role"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		sess, err := h.app.Sessions.Login(r.Context(), payload.Name, payload.Email, payload.Password, payload.Department, payload.Role)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, sess)

	case http.MethodGet:
		sess, err := h.app.Sessions.Current(r.Context())
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, sess)

	case http.MethodDelete:
		if err := h.app.Sessions.Logout(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		h.app.Notifications.Reset()
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) catalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	q := catalogsvc.Query{
		Department: r.URL.Query().Get("department"),
		Search:     r.URL.Query().Get("q"),
		Compliance: r.URL.Query().Get("compliance"),
		Status:     r.URL.Query().Get("status"),
		Sort:       r.URL.Query().Get("sort"),
	}
	apps, err := h.app.Catalog.Browse(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	metrics.RecordCatalogQuery()
	writeJSON(w, http.StatusOK, apps)
}

func (h *handler) appResources(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/apps"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) == 0 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	appID := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		resolved, err := h.app.Catalog.ResolveApp(r.Context(), appID)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, resolved)
		return
	}

	if len(parts) == 2 && parts[1] == "launch" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := h.app.Sessions.Launch(r.Context(), appID); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.WriteHeader(http.StatusNotFound)
}

func (h *handler) owned(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	apps, err := h.app.Sessions.OwnedApps(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *handler) requests(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var payload struct {
			AppID         string `json:"app_id"`
			Justification string `json:"justification"`
			Duration      string `json:"duration"`
			Urgency       string `json:"urgency"`
			BusinessCase  string `json:"business_case"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		req, err := h.app.Requests.Submit(r.Context(), payload.AppID, payload.Justification, payload.Duration, payload.Urgency, payload.BusinessCase)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, req)

	case http.MethodGet:
		reqs, err := h.app.Requests.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, reqs)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) requestResources(w http.ResponseWriter, r *http.Request) {
	requestID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/requests"), "/")
	if requestID == "" || strings.Contains(requestID, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		req, err := h.app.Requests.Get(r.Context(), requestID)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, req)

	case http.MethodDelete:
		// Cancellation of an unknown id is deliberately a no-op.
		if err := h.app.Requests.Cancel(r.Context(), requestID); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodPatch:
		var payload struct {
			Status   *string `json:"status"`
			Approver string  `json:"approver"`
			Notes    string  `json:"notes"`
			Estimate string  `json:"estimated_completion"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if payload.Status == nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("status is required"))
			return
		}

		var err error
		var updated any
		switch strings.ToLower(strings.TrimSpace(*payload.Status)) {
		case "approved":
			updated, err = h.app.Requests.Approve(r.Context(), requestID, payload.Approver, payload.Notes)
		case "rejected":
			updated, err = h.app.Requests.Reject(r.Context(), requestID, payload.Notes)
		case "provisioning":
			updated, err = h.app.Requests.BeginProvisioning(r.Context(), requestID, payload.Estimate)
		case "complete":
			updated, err = h.app.Requests.Complete(r.Context(), requestID)
		default:
			writeError(w, http.StatusBadRequest, fmt.Errorf("unsupported status %s", *payload.Status))
			return
		}
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, updated)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) notifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = parsed
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"unseen":        h.app.Notifications.HasUnseen(),
		"notifications": h.app.Notifications.List(limit),
	})
}

func (h *handler) notificationsSeen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	h.app.Notifications.MarkSeen()
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) auditEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = parsed
	}
	writeJSON(w, http.StatusOK, h.audit.listLimit(limit))
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, requestsvc.ErrValidation), errors.Is(err, sessionsvc.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, requestsvc.ErrRestricted):
		return http.StatusForbidden
	case errors.Is(err, sessionsvc.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, requestsvc.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
