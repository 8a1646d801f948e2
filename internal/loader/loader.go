package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pixil98/go-tileworld/internal/game"
	"github.com/pixil98/go-tileworld/internal/messaging"
	"github.com/pixil98/go-tileworld/internal/storage"
	"github.com/pixil98/go-tileworld/internal/terrain"
)

var ErrUnknownRegion = errors.New("unknown region")

// TerrainExtension is the region spec extension that overrides terrain
// params for a single region.
const TerrainExtension = "terrain"

// Delivery is the outcome of one region request.
type Delivery struct {
	ID        game.RegionID
	RequestID string
	Region    *game.Region
	Err       error
}

// Loader answers region requests. Regions are built off the simulation
// goroutine and queued; Tick hands them to the world.
type Loader struct {
	world     *game.World
	sub       messaging.Subscriber
	store     storage.Storer[*storage.RegionSpec]
	generator *terrain.Generator

	ringPrefix string
	ringLength int
	persist    bool

	newBackOff func() backoff.BackOff
	now        func() time.Time
	// retries is only touched from Tick.
	retries map[game.RegionID]*retry

	ready chan struct{}
	mu    sync.Mutex
	queue []Delivery
}

// retry tracks a region whose delivery failed. The request stays
// outstanding until at, so lookups do not ask for it again meanwhile.
type retry struct {
	backOff  backoff.BackOff
	failures int
	at       time.Time
}

type LoaderOpt func(*Loader)

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = time.Minute
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// WithStore looks requested ids up in the given region store.
func WithStore(st storage.Storer[*storage.RegionSpec]) LoaderOpt {
	return func(l *Loader) {
		l.store = st
	}
}

// WithGenerator sets the generator used for regions without stored blocks.
func WithGenerator(g *terrain.Generator) LoaderOpt {
	return func(l *Loader) {
		l.generator = g
	}
}

// WithGeneratedRing makes ids of the form <prefix>-<n>, 0 <= n < length,
// loadable without a stored spec. They form a ring in order of n.
func WithGeneratedRing(prefix string, length int) LoaderOpt {
	return func(l *Loader) {
		l.ringPrefix = prefix
		l.ringLength = length
	}
}

// WithPersistGenerated saves generated ring regions to the store so that a
// restart rebuilds them from their stored spec.
func WithPersistGenerated() LoaderOpt {
	return func(l *Loader) {
		l.persist = true
	}
}

// WithRetryBackOff sets how long a failed region waits before it may be
// requested again. Each region gets its own BackOff.
func WithRetryBackOff(newBackOff func() backoff.BackOff) LoaderOpt {
	return func(l *Loader) {
		l.newBackOff = newBackOff
	}
}

func WithClock(now func() time.Time) LoaderOpt {
	return func(l *Loader) {
		l.now = now
	}
}

func NewLoader(w *game.World, sub messaging.Subscriber, opts ...LoaderOpt) *Loader {
	l := &Loader{
		world:      w,
		sub:        sub,
		generator:  terrain.NewGenerator(0),
		newBackOff: defaultBackOff,
		now:        time.Now,
		retries:    map[game.RegionID]*retry{},
		ready:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Start subscribes to region requests and serves them until ctx is done.
func (l *Loader) Start(ctx context.Context) error {
	if err := l.sub.WaitReady(ctx); err != nil {
		return fmt.Errorf("waiting for message bus: %w", err)
	}

	unsubscribe, err := messaging.SubscribeRegionRequests(l.sub, func(req messaging.RegionRequest) {
		l.handle(ctx, req)
	})
	if err != nil {
		return fmt.Errorf("subscribing to region requests: %w", err)
	}
	close(l.ready)
	slog.InfoContext(ctx, "region loader started")

	<-ctx.Done()
	unsubscribe()
	return nil
}

// Ready is closed once the loader is subscribed to region requests.
func (l *Loader) Ready() <-chan struct{} {
	return l.ready
}

func (l *Loader) handle(ctx context.Context, req messaging.RegionRequest) {
	id := game.RegionID(req.Region)
	r, err := l.Build(id)
	if err != nil {
		slog.DebugContext(ctx, "building region", "region", id, "request_id", req.RequestID, "error", err)
	}
	l.enqueue(Delivery{ID: id, RequestID: req.RequestID, Region: r, Err: err})
}

func (l *Loader) enqueue(d Delivery) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queue = append(l.queue, d)
}

// Pending returns the number of deliveries waiting for the next Tick.
func (l *Loader) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Tick adds every delivered region to the world. It must run on the
// goroutine that owns the world. A failed region stays requested until its
// backoff has passed, then the request is cancelled so it can be made again.
func (l *Loader) Tick(ctx context.Context) error {
	now := l.now()
	l.releaseRetries(now)

	l.mu.Lock()
	deliveries := l.queue
	l.queue = nil
	l.mu.Unlock()

	for _, d := range deliveries {
		if d.Err != nil {
			l.retryLater(ctx, d.ID, d.Err, now)
			continue
		}

		err := l.world.AddRegion(d.Region)
		switch {
		case err == nil:
			delete(l.retries, d.ID)
			slog.DebugContext(ctx, "region delivered", "region", d.ID, "request_id", d.RequestID)
		case errors.Is(err, game.ErrAlreadyLoaded):
			slog.DebugContext(ctx, "dropping duplicate region delivery", "region", d.ID)
		default:
			l.retryLater(ctx, d.ID, err, now)
		}
	}

	return nil
}

func (l *Loader) releaseRetries(now time.Time) {
	for id, r := range l.retries {
		if l.world.Region(id) != nil {
			delete(l.retries, id)
			continue
		}
		if r.at.IsZero() || now.Before(r.at) {
			continue
		}
		r.at = time.Time{}
		l.world.CancelRequest(id)
	}
}

func (l *Loader) retryLater(ctx context.Context, id game.RegionID, err error, now time.Time) {
	r, ok := l.retries[id]
	if !ok {
		r = &retry{backOff: l.newBackOff()}
		l.retries[id] = r
	}
	r.failures++

	wait := r.backOff.NextBackOff()
	if wait == backoff.Stop {
		r.at = time.Time{}
		slog.ErrorContext(ctx, "giving up on region", "region", id, "failures", r.failures, "error", err)
		return
	}
	r.at = now.Add(wait)
	slog.WarnContext(ctx, "region not delivered", "region", id, "failures", r.failures, "retry_in", wait, "error", err)
}

// Load builds a region and adds it to the world immediately. It is meant for
// bootstrapping before the driver runs.
func (l *Loader) Load(id game.RegionID) (*game.Region, error) {
	r, err := l.Build(id)
	if err != nil {
		return nil, err
	}
	if err := l.world.AddRegion(r); err != nil {
		return nil, err
	}
	return r, nil
}

// Build produces the region with the given id without touching the world.
func (l *Loader) Build(id game.RegionID) (*game.Region, error) {
	if l.store != nil {
		if spec, ok := l.store.Get(id.String()); ok {
			return l.buildFromSpec(id, spec)
		}
	}

	if n, ok := l.ringIndex(id); ok {
		prev := RingID(l.ringPrefix, (n+l.ringLength-1)%l.ringLength)
		next := RingID(l.ringPrefix, (n+1)%l.ringLength)
		r, err := game.NewRegion(id, l.generator.Generate(id), game.WithPrev(prev), game.WithNext(next))
		if err != nil {
			return nil, err
		}
		if l.persist && l.store != nil {
			// The region is still usable when saving fails.
			if err := l.saveRing(id, prev, next); err != nil {
				slog.Warn("saving generated region", "region", id, "error", err)
			}
		}
		return r, nil
	}

	return nil, fmt.Errorf("region %q: %w", id, ErrUnknownRegion)
}

// saveRing stores a generated ring region with the seed and params it was
// generated from.
func (l *Loader) saveRing(id, prev, next game.RegionID) error {
	spec := &storage.RegionSpec{
		Prev: prev.String(),
		Next: next.String(),
		Seed: l.generator.Seed(),
	}
	if err := spec.Extensions.Set(TerrainExtension, l.generator.Params()); err != nil {
		return err
	}
	return l.store.Save(id.String(), spec)
}

func (l *Loader) buildFromSpec(id game.RegionID, spec *storage.RegionSpec) (*game.Region, error) {
	slog.Debug("building stored region", "region", id, "extensions", spec.Extensions.Keys())

	data := spec.BlockData()
	if data == nil {
		gen, err := l.generatorFor(spec)
		if err != nil {
			return nil, fmt.Errorf("region %q: %w", id, err)
		}
		data = gen.Generate(id)
	}

	return game.NewRegion(id, data, spec.RegionOpts()...)
}

// generatorFor applies the spec's seed and terrain overrides, if any, on top
// of the loader's generator.
func (l *Loader) generatorFor(spec *storage.RegionSpec) (*terrain.Generator, error) {
	params := l.generator.Params()
	found, err := spec.Extensions.Get(TerrainExtension, &params)
	if err != nil {
		return nil, err
	}
	if found {
		if err := params.Validate(); err != nil {
			return nil, fmt.Errorf("terrain extension: %w", err)
		}
	}

	if !found && spec.Seed == 0 {
		return l.generator, nil
	}

	seed := l.generator.Seed()
	if spec.Seed != 0 {
		seed = spec.Seed
	}
	return terrain.NewGenerator(seed, terrain.WithParams(params)), nil
}

func (l *Loader) ringIndex(id game.RegionID) (int, bool) {
	if l.ringLength <= 0 {
		return 0, false
	}
	rest, ok := strings.CutPrefix(id.String(), l.ringPrefix+"-")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 || n >= l.ringLength || strconv.Itoa(n) != rest {
		return 0, false
	}
	return n, true
}

// RingID names the nth region of a generated ring.
func RingID(prefix string, n int) game.RegionID {
	return game.RegionID(fmt.Sprintf("%s-%d", prefix, n))
}
