package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	app "github.com/acmecorp/accesshub/internal/app"
	"github.com/acmecorp/accesshub/internal/app/domain/catalog"
	requestsvc "github.com/acmecorp/accesshub/internal/app/services/requests"
	sessionsvc "github.com/acmecorp/accesshub/internal/app/services/sessions"
	"github.com/acmecorp/accesshub/internal/app/storage"
)

func testCatalog() []catalog.App {
	return []catalog.App{
		{ID: "slack", Name: "Slack", Description: "Team messaging", Departments: []string{"Engineering"}, Rating: 4.7, ReviewCount: 2000, BaseStatus: catalog.StatusAvailable, Trending: true},
		{ID: "github", Name: "GitHub", Description: "Code hosting", Departments: []string{"Engineering"}, Rating: 4.9, ReviewCount: 3000, BaseStatus: catalog.StatusAvailable},
		{ID: "figma", Name: "Figma", Description: "Interface design", Departments: []string{"Design"}, Rating: 4.8, ReviewCount: 1500, BaseStatus: catalog.StatusAvailable},
		{ID: "workday", Name: "Workday", Description: "HR management", Departments: []string{"HR"}, Rating: 3.9, ReviewCount: 900, BaseStatus: catalog.StatusRestricted},
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	application, err := app.New(app.Stores{}, app.Options{CatalogApps: testCatalog()}, nil)
	if err != nil {
		t.Fatalf("build application: %v", err)
	}
	h, err := NewHandler(application, "")
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, client *http.Client, method, url string, payload, out any) *http.Response {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(b)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, url, err)
		}
	}
	return resp
}

func login(t *testing.T, srv *httptest.Server) map[string]any {
	t.Helper()

	var sess map[string]any
	resp := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/session", map[string]string{
		"email":      "dana@corp.example",
		"password":   "pw",
		"department": "Engineering",
		"role":       "Developer",
	}, &sess)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("login: expected 201, got %d", resp.StatusCode)
	}
	return sess
}

func TestSessionEndpoints(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()

	resp := doJSON(t, client, http.MethodGet, srv.URL+"/session", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", resp.StatusCode)
	}

	resp = doJSON(t, client, http.MethodPost, srv.URL+"/session", map[string]string{"email": "dana@corp.example"}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for incomplete login, got %d", resp.StatusCode)
	}

	sess := login(t, srv)
	if sess["email"] != "dana@corp.example" {
		t.Fatalf("unexpected session %v", sess)
	}

	var current map[string]any
	resp = doJSON(t, client, http.MethodGet, srv.URL+"/session", nil, &current)
	if resp.StatusCode != http.StatusOK || current["id"] != sess["id"] {
		t.Fatalf("expected active session back, got %d %v", resp.StatusCode, current)
	}

	resp = doJSON(t, client, http.MethodDelete, srv.URL+"/session", nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", resp.StatusCode)
	}
	resp = doJSON(t, client, http.MethodGet, srv.URL+"/session", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", resp.StatusCode)
	}
}

func TestCatalogEndpoint(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()
	login(t, srv)

	var apps []map[string]any
	resp := doJSON(t, client, http.MethodGet, srv.URL+"/catalog", nil, &apps)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("catalog: expected 200, got %d", resp.StatusCode)
	}
	if len(apps) != 4 {
		t.Fatalf("expected 4 catalog entries, got %d", len(apps))
	}

	statuses := make(map[string]string)
	for _, a := range apps {
		statuses[a["id"].(string)] = a["status"].(string)
	}
	// Department defaults were seeded at login.
	if statuses["slack"] != "owned" || statuses["github"] != "owned" {
		t.Fatalf("expected seeded apps owned, got %v", statuses)
	}
	if statuses["figma"] != "available" || statuses["workday"] != "restricted" {
		t.Fatalf("unexpected statuses %v", statuses)
	}

	apps = nil
	resp = doJSON(t, client, http.MethodGet, srv.URL+"/catalog?department=Engineering&q=messaging", nil, &apps)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("filtered catalog: expected 200, got %d", resp.StatusCode)
	}
	if len(apps) != 1 || apps[0]["id"] != "slack" {
		t.Fatalf("expected [slack], got %v", apps)
	}
}

func TestAppResourceEndpoints(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()
	login(t, srv)

	var resolved map[string]any
	resp := doJSON(t, client, http.MethodGet, srv.URL+"/apps/slack", nil, &resolved)
	if resp.StatusCode != http.StatusOK || resolved["status"] != "owned" {
		t.Fatalf("expected owned slack, got %d %v", resp.StatusCode, resolved)
	}

	resp = doJSON(t, client, http.MethodGet, srv.URL+"/apps/nope", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown app, got %d", resp.StatusCode)
	}

	resp = doJSON(t, client, http.MethodPost, srv.URL+"/apps/slack/launch", nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("launch: expected 204, got %d", resp.StatusCode)
	}

	var owned []map[string]any
	resp = doJSON(t, client, http.MethodGet, srv.URL+"/owned", nil, &owned)
	if resp.StatusCode != http.StatusOK || len(owned) != 2 {
		t.Fatalf("expected 2 owned apps, got %d %v", resp.StatusCode, owned)
	}
}

func TestRequestLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()
	login(t, srv)

	submit := map[string]string{
		"app_id":        "figma",
		"justification": "UI collaboration",
		"duration":      "6-months",
		"urgency":       "medium",
	}
	var created map[string]any
	resp := doJSON(t, client, http.MethodPost, srv.URL+"/requests", submit, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit: expected 201, got %d", resp.StatusCode)
	}
	id := created["id"].(string)
	if created["status"] != "pending" {
		t.Fatalf("expected pending request, got %v", created)
	}

	// The catalog now shows figma as pending.
	var resolved map[string]any
	doJSON(t, client, http.MethodGet, srv.URL+"/apps/figma", nil, &resolved)
	if resolved["status"] != "pending" {
		t.Fatalf("expected figma pending, got %v", resolved)
	}

	var updated map[string]any
	resp = doJSON(t, client, http.MethodPatch, srv.URL+"/requests/"+id, map[string]string{"status": "approved"}, &updated)
	if resp.StatusCode != http.StatusOK || updated["status"] != "approved" {
		t.Fatalf("approve: got %d %v", resp.StatusCode, updated)
	}
	if updated["approver"] != "John Smith (Manager)" {
		t.Fatalf("expected default approver, got %v", updated["approver"])
	}

	// Skipping states is rejected.
	resp = doJSON(t, client, http.MethodPatch, srv.URL+"/requests/"+id, map[string]string{"status": "approved"}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("double approve: expected 409, got %d", resp.StatusCode)
	}

	resp = doJSON(t, client, http.MethodPatch, srv.URL+"/requests/"+id, map[string]string{"status": "provisioning"}, &updated)
	if resp.StatusCode != http.StatusOK || updated["estimated_completion"] != "Within 24 hours" {
		t.Fatalf("provision: got %d %v", resp.StatusCode, updated)
	}

	resp = doJSON(t, client, http.MethodPatch, srv.URL+"/requests/"+id, map[string]string{"status": "complete"}, &updated)
	if resp.StatusCode != http.StatusOK || updated["status"] != "complete" {
		t.Fatalf("complete: got %d %v", resp.StatusCode, updated)
	}

	// Completion granted the app.
	doJSON(t, client, http.MethodGet, srv.URL+"/apps/figma", nil, &resolved)
	if resolved["status"] != "owned" {
		t.Fatalf("expected figma owned after completion, got %v", resolved)
	}

	var list []map[string]any
	resp = doJSON(t, client, http.MethodGet, srv.URL+"/requests", nil, &list)
	if resp.StatusCode != http.StatusOK || len(list) != 1 {
		t.Fatalf("list: got %d %v", resp.StatusCode, list)
	}
}

func TestRequestValidationOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()
	login(t, srv)

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/requests", map[string]string{
		"app_id":        "figma",
		"justification": "reason",
		"duration":      "45-days",
		"urgency":       "low",
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad duration, got %d", resp.StatusCode)
	}

	resp = doJSON(t, client, http.MethodPost, srv.URL+"/requests", map[string]string{
		"app_id":        "workday",
		"justification": "reason",
		"duration":      "30-days",
		"urgency":       "low",
	}, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for restricted app, got %d", resp.StatusCode)
	}

	resp = doJSON(t, client, http.MethodGet, srv.URL+"/requests/req-404", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown request, got %d", resp.StatusCode)
	}

	// Cancellation of an unknown id still succeeds.
	resp = doJSON(t, client, http.MethodDelete, srv.URL+"/requests/req-404", nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 for unknown cancel, got %d", resp.StatusCode)
	}
}

func TestNotificationEndpoints(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()
	login(t, srv)

	var feed struct {
		Unseen        bool             `json:"unseen"`
		Notifications []map[string]any `json:"notifications"`
	}
	resp := doJSON(t, client, http.MethodGet, srv.URL+"/notifications", nil, &feed)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("notifications: expected 200, got %d", resp.StatusCode)
	}
	if !feed.Unseen || len(feed.Notifications) == 0 {
		t.Fatalf("expected unseen welcome notification, got %+v", feed)
	}

	resp = doJSON(t, client, http.MethodPost, srv.URL+"/notifications/seen", nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("mark seen: expected 204, got %d", resp.StatusCode)
	}

	feed.Notifications = nil
	doJSON(t, client, http.MethodGet, srv.URL+"/notifications", nil, &feed)
	if feed.Unseen {
		t.Fatal("expected unseen cleared")
	}

	resp = doJSON(t, client, http.MethodGet, srv.URL+"/notifications?limit=oops", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", resp.StatusCode)
	}
}

func TestAuditEndpoint(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()
	login(t, srv)

	doJSON(t, client, http.MethodGet, srv.URL+"/catalog", nil, nil)

	var entries []map[string]any
	resp := doJSON(t, client, http.MethodGet, srv.URL+"/audit", nil, &entries)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("audit: expected 200, got %d", resp.StatusCode)
	}
	if len(entries) < 2 {
		t.Fatalf("expected login and catalog entries, got %d", len(entries))
	}

	last := entries[len(entries)-1]
	if last["path"] != "/catalog" || last["method"] != http.MethodGet {
		t.Fatalf("unexpected last entry %v", last)
	}
	if last["user"] != "dana@corp.example" || last["department"] != "Engineering" {
		t.Fatalf("expected session attribution, got %v", last)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: justification is required", requestsvc.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: email is required", sessionsvc.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: Workday requires IT administrator approval", requestsvc.ErrRestricted), http.StatusForbidden},
		{sessionsvc.ErrNoSession, http.StatusUnauthorized},
		{fmt.Errorf("app nope: %w", storage.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: cannot approve request in status complete", requestsvc.ErrConflict), http.StatusConflict},
		{errors.New("store unavailable"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Fatalf("statusFor(%v): expected %d, got %d", tc.err, tc.want, got)
		}
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	var status map[string]string
	resp := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/healthz", nil, &status)
	if resp.StatusCode != http.StatusOK || status["status"] != "ok" {
		t.Fatalf("healthz: got %d %v", resp.StatusCode, status)
	}
}
