package requests

import (
	"context"
	"testing"
	"time"

	"github.com/acmecorp/accesshub/internal/app/domain/request"
)

func TestProgressionFullLifecycle(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	req, err := svc.Submit(ctx, "figma", "UI collaboration", "6-months", "medium", "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	prog := NewProgression(svc, "", nil)
	prog.WithRand(RandFunc(func() float64 { return 0 })) // every roll succeeds

	expect := func(status request.Status) {
		t.Helper()
		got, err := svc.Get(ctx, req.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Status != status {
			t.Fatalf("expected status %s, got %s", status, got.Status)
		}
	}

	// One transition per tick, never two.
	prog.Tick(ctx)
	expect(request.StatusApproved)

	got, err := svc.Get(ctx, req.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Approver != "John Smith (Manager)" {
		t.Fatalf("auto approval must stamp the default approver, got %q", got.Approver)
	}

	prog.Tick(ctx)
	expect(request.StatusProvisioning)

	got, err = svc.Get(ctx, req.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.EstimatedCompletion != "Within 24 hours" {
		t.Fatalf("unexpected estimate %q", got.EstimatedCompletion)
	}

	prog.Tick(ctx)
	expect(request.StatusComplete)

	owned, err := store.ListOwnedApps(ctx)
	if err != nil {
		t.Fatalf("list owned: %v", err)
	}
	if len(owned) != 1 || owned[0].AppID != "figma" {
		t.Fatalf("expected figma granted on completion, got %v", owned)
	}

	// Further ticks leave the terminal request alone.
	prog.Tick(ctx)
	expect(request.StatusComplete)
}

func TestProgressionSuppressedRolls(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req := mustSubmit(t, svc, "slack")

	prog := NewProgression(svc, "", nil)
	prog.WithRand(RandFunc(func() float64 { return 1 })) // every roll fails

	for i := 0; i < 5; i++ {
		prog.Tick(ctx)
	}

	got, err := svc.Get(ctx, req.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != request.StatusPending {
		t.Fatalf("expected request untouched, got %s", got.Status)
	}
}

func TestProgressionThresholds(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req := mustSubmit(t, svc, "figma")

	prog := NewProgression(svc, "", nil)

	// A roll exactly at the probability does not fire; strictly below does.
	prog.WithRand(RandFunc(func() float64 { return 0.3 }))
	prog.Tick(ctx)
	got, err := svc.Get(ctx, req.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != request.StatusPending {
		t.Fatalf("roll at threshold must not transition, got %s", got.Status)
	}

	prog.WithRand(RandFunc(func() float64 { return 0.29 }))
	prog.Tick(ctx)
	got, err = svc.Get(ctx, req.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != request.StatusApproved {
		t.Fatalf("roll below threshold must approve, got %s", got.Status)
	}
}

func TestProgressionCustomProbabilities(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req := mustSubmit(t, svc, "figma")

	prog := NewProgression(svc, "", nil)
	prog.WithProbabilities(Probabilities{Approve: 2, Provision: -1, Complete: 0.5})
	prog.WithRand(RandFunc(func() float64 { return 0.99 }))

	// Approve clamps to 1, so even a high roll fires.
	prog.Tick(ctx)
	got, err := svc.Get(ctx, req.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != request.StatusApproved {
		t.Fatalf("expected approved with clamped probability, got %s", got.Status)
	}

	// Provision clamps to 0, so no roll can fire.
	prog.WithRand(RandFunc(func() float64 { return 0 }))
	prog.Tick(ctx)
	got, err = svc.Get(ctx, req.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != request.StatusApproved {
		t.Fatalf("expected approved to hold at zero probability, got %s", got.Status)
	}
}

func TestProgressionInvalidScheduleFallsBack(t *testing.T) {
	svc, _ := newTestService(t)

	prog := NewProgression(svc, "not a schedule", nil)
	if prog.schedule == nil {
		t.Fatal("expected fallback schedule")
	}
	next := prog.untilNext()
	if next <= 0 || next > 6*time.Second {
		t.Fatalf("unexpected fallback cadence %s", next)
	}
}

func TestProgressionStartStop(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	prog := NewProgression(svc, "@every 1h", nil)
	prog.WithRand(RandFunc(func() float64 { return 1 }))

	if err := prog.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	// Second start is a no-op.
	if err := prog.Start(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := prog.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	// Stop is idempotent.
	if err := prog.Stop(stopCtx); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}
