// Package engine runs webhook messages through normalization, cache
// reconciliation and the active filter generation.
package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"pokewatch/internal/cache"
	"pokewatch/internal/events"
	"pokewatch/internal/filters"
	"pokewatch/internal/geofence"
	"pokewatch/internal/types"
)

// DefaultWorkers bounds ProcessBatch concurrency when none is configured.
const DefaultWorkers = 8

// Generation is one immutable set of filters and the geofences they were
// built against.
type Generation struct {
	ID        uuid.UUID
	LoadedAt  time.Time
	Sets      filters.Sets
	Geofences *geofence.Registry
}

// NewGeneration stamps a fresh generation id.
func NewGeneration(sets filters.Sets, fences *geofence.Registry, loadedAt time.Time) *Generation {
	return &Generation{ID: uuid.New(), LoadedAt: loadedAt, Sets: sets, Geofences: fences}
}

// Message is one webhook entry: {"type": "pokemon", "message": {...}}.
type Message struct {
	Type    string         `json:"type"`
	Message map[string]any `json:"message"`
}

// Verdict is the outcome for one message.
type Verdict struct {
	Event      *events.Event
	Result     string // types.ResultMatched, ResultRejected or ResultDisabled
	Filter     string // name of the first matching filter
	Generation uuid.UUID
}

// Matched reports whether a filter accepted the event.
func (v *Verdict) Matched() bool { return v != nil && v.Result == types.ResultMatched }

// Options wires an Engine. Only Normalizer is required.
type Options struct {
	Normalizer *events.Normalizer
	Cache      *cache.Memory
	Clock      types.Clock
	Logger     types.Logger
	Metrics    *Metrics
	Workers    int
	// Observer is where distance and direction are measured from. Nil
	// leaves them unknown.
	Observer *types.Location
}

// Engine evaluates messages against the active generation. It is safe for
// concurrent use; Swap may run while evaluations are in flight.
type Engine struct {
	normalizer *events.Normalizer
	cache      *cache.Memory
	clock      types.Clock
	logger     types.Logger
	metrics    *Metrics
	workers    int
	observer   *types.Location

	active atomic.Pointer[Generation]
}

// New creates an Engine with no active generation.
func New(opts Options) *Engine {
	e := &Engine{
		normalizer: opts.Normalizer,
		cache:      opts.Cache,
		clock:      opts.Clock,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		workers:    opts.Workers,
		observer:   opts.Observer,
	}
	if e.clock == nil {
		e.clock = types.RealClock{}
	}
	if e.normalizer == nil {
		e.normalizer = events.NewNormalizer(nil, nil, e.clock)
	}
	if e.cache == nil {
		e.cache = cache.NewMemory(e.clock)
	}
	if e.logger == nil {
		e.logger = types.NopLogger{}
	}
	if e.workers <= 0 {
		e.workers = DefaultWorkers
	}
	return e
}

// Swap activates gen and returns the generation it replaced. Evaluations
// already running finish against the generation they loaded.
func (e *Engine) Swap(gen *Generation) *Generation {
	prev := e.active.Swap(gen)
	e.metrics.setGeneration(gen)
	e.logger.Info("rule generation activated",
		"generation", gen.ID.String(),
		"filters", gen.Sets.Count(),
		"geofences", gen.Geofences.Len(),
	)
	return prev
}

// Active returns the current generation, or nil before the first Swap.
func (e *Engine) Active() *Generation {
	return e.active.Load()
}

// Cache returns the engine's cache.
func (e *Engine) Cache() *cache.Memory {
	return e.cache
}

// Process evaluates one message. Malformed payloads return an error that
// matches types.ErrMalformedPayload.
func (e *Engine) Process(ctx context.Context, msg Message) (*Verdict, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	gen := e.active.Load()
	if gen == nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "no active rule generation", nil)
	}

	kind, ok := events.KindFromWebhook(msg.Type, msg.Message)
	if !ok {
		e.metrics.observeMalformed(types.KindLabelUnsupported)
		return nil, types.NewAppErrorWithDetails(types.ErrCodePayloadUnknownKind,
			fmt.Sprintf("unsupported webhook type %q", msg.Type), nil, map[string]any{"type": msg.Type})
	}

	ev, err := e.normalizer.Normalize(kind, msg.Message)
	if err != nil {
		e.metrics.observeMalformed(string(kind))
		return nil, err
	}
	ev.UpdateWithCache(e.cache.Snapshot())
	if e.observer != nil {
		at := types.Location{Lat: ev.Lat, Lng: ev.Lng}
		ev.SetDistance(geofence.Distance(*e.observer, at), geofence.Direction(*e.observer, at))
	}
	if name, ok := gen.Geofences.FirstContaining(ev.Lat, ev.Lng); ok {
		ev.SetGeofence(name)
	}

	v := &Verdict{Event: ev, Result: types.ResultRejected, Generation: gen.ID}
	set := gen.Sets[kind]
	switch {
	case set == nil || !set.Enabled:
		v.Result = types.ResultDisabled
	default:
		now := e.clock.Now()
		start := time.Now()
		f, ok := set.FirstMatch(ev, now)
		e.metrics.observeEval(kind, time.Since(start))
		if ok {
			v.Result = types.ResultMatched
			v.Filter = f.Name()
			if name, ok := f.Geofence(ev).Get(); ok {
				ev.SetGeofence(name)
			}
			ev.SetCustomDTS(f.CustomDTS())
		}
	}
	e.metrics.observeResult(kind, v.Result)

	e.recordInCache(ev)

	e.logger.Debug("event evaluated",
		"kind", string(kind),
		"id", ev.ID,
		"result", v.Result,
		"filter", v.Filter,
	)
	return v, nil
}

// recordInCache publishes what the event says about weather and gyms after
// it has been evaluated.
func (e *Engine) recordInCache(ev *events.Event) {
	switch ev.Kind {
	case types.KindWeather, types.KindGym, types.KindRaid, types.KindEgg:
	default:
		return
	}
	snap := e.cache.Update(ev.CacheUpdate)
	e.metrics.setCacheGeneration(snap.Generation())
}

// BatchResult pairs a message's verdict with its error. Exactly one is set.
type BatchResult struct {
	Verdict *Verdict
	Err     error
}

// ProcessBatch evaluates msgs concurrently. Results are in input order. A
// failing message never stops the others; cancelling ctx stops messages that
// have not started.
func (e *Engine) ProcessBatch(ctx context.Context, msgs []Message) []BatchResult {
	results := make([]BatchResult, len(msgs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range msgs {
		g.Go(func() error {
			v, err := e.Process(gCtx, msgs[i])
			results[i] = BatchResult{Verdict: v, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
