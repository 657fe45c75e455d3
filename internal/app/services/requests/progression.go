package requests

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/acmecorp/accesshub/internal/app/domain/request"
	"github.com/acmecorp/accesshub/internal/app/system"
	"github.com/acmecorp/accesshub/pkg/logger"
)

var _ system.Service = (*Progression)(nil)

// Rand is the random source driving probabilistic transitions. Tests inject a
// deterministic implementation to force or suppress branches.
type Rand interface {
	Float64() float64
}

// RandFunc adapts a function to the Rand interface.
type RandFunc func() float64

func (f RandFunc) Float64() float64 { return f() }

// Probabilities holds the per-tick transition chances for each non-terminal
// state. Each request gets at most one roll per tick.
type Probabilities struct {
	Approve   float64
	Provision float64
	Complete  float64
}

// DefaultProbabilities mirror the observed review pipeline pacing.
func DefaultProbabilities() Probabilities {
	return Probabilities{Approve: 0.3, Provision: 0.2, Complete: 0.1}
}

// DefaultSchedule is the progression cadence as a cron spec.
const DefaultSchedule = "@every 5s"

// Progression autonomously advances in-flight requests on a fixed cadence.
// Rejection is never taken by the simulator; it remains a manual transition.
type Progression struct {
	service  *Service
	log      *logger.Logger
	schedule cron.Schedule
	probs    Probabilities

	mu      sync.Mutex
	rng     Rand
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewProgression creates a lifecycle-managed progression driver. The spec is
// a cron expression or descriptor such as "@every 5s"; an empty or invalid
// spec falls back to the default cadence.
func NewProgression(service *Service, spec string, log *logger.Logger) *Progression {
	if log == nil {
		log = logger.NewDefault("requests-progression")
	}
	if spec == "" {
		spec = DefaultSchedule
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		log.WithError(err).
			WithField("schedule", spec).
			Warn("invalid progression schedule; using default")
		schedule, _ = cron.ParseStandard(DefaultSchedule)
	}
	return &Progression{
		service:  service,
		log:      log,
		schedule: schedule,
		probs:    DefaultProbabilities(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithRand overrides the random source.
func (p *Progression) WithRand(rng Rand) {
	p.mu.Lock()
	if rng != nil {
		p.rng = rng
	}
	p.mu.Unlock()
}

// WithProbabilities overrides the transition chances. Values outside [0, 1]
// are clamped.
func (p *Progression) WithProbabilities(probs Probabilities) {
	p.mu.Lock()
	p.probs = Probabilities{
		Approve:   clamp01(probs.Approve),
		Provision: clamp01(probs.Provision),
		Complete:  clamp01(probs.Complete),
	}
	p.mu.Unlock()
}

func (p *Progression) Name() string { return "requests-progression" }

func (p *Progression) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		timer := time.NewTimer(p.untilNext())
		defer timer.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-timer.C:
				p.Tick(runCtx)
				timer.Reset(p.untilNext())
			}
		}
	}()

	p.log.Info("request progression started")
	return nil
}

// Stop halts the driver. Idempotent; calling it after the driver has already
// stopped returns nil.
func (p *Progression) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	cancel := p.cancel
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	p.log.Info("request progression stopped")
	return nil
}

// Tick evaluates every active request once, applying at most one transition
// each. Exported so tests can drive the state machine deterministically.
func (p *Progression) Tick(ctx context.Context) {
	if p.service == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	reqs, err := p.service.ListActive(ctx)
	if err != nil {
		p.log.WithError(err).Warn("progression tick failed")
		return
	}

	p.mu.Lock()
	rng := p.rng
	probs := p.probs
	p.mu.Unlock()

	for _, req := range reqs {
		switch req.Status {
		case request.StatusPending:
			if rng.Float64() < probs.Approve {
				if _, err := p.service.Approve(ctx, req.ID, "", ""); err != nil {
					p.log.WithError(err).
						WithField("request_id", req.ID).
						Warn("auto approve failed")
				}
			}
		case request.StatusApproved:
			if rng.Float64() < probs.Provision {
				if _, err := p.service.BeginProvisioning(ctx, req.ID, ""); err != nil {
					p.log.WithError(err).
						WithField("request_id", req.ID).
						Warn("auto provision failed")
				}
			}
		case request.StatusProvisioning:
			if rng.Float64() < probs.Complete {
				if _, err := p.service.Complete(ctx, req.ID); err != nil {
					p.log.WithError(err).
						WithField("request_id", req.ID).
						Warn("auto complete failed")
				}
			}
		}
	}
}

func (p *Progression) untilNext() time.Duration {
	now := time.Now()
	next := p.schedule.Next(now)
	if d := next.Sub(now); d > 0 {
		return d
	}
	return time.Second
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
