package game

import (
	"fmt"
	"log/slog"
)

// World is the region graph. It owns the loaded regions and the global
// entity registry, completes region links as neighbours arrive in any order,
// and signals when a region it does not have is needed.
//
// A World is not safe for concurrent use. It is meant to be driven from a
// single simulation goroutine.
type World struct {
	regions  map[RegionID]*Region
	entities map[EntityID]*Entity

	// pending holds links declared by loaded regions towards ids that are not
	// loaded yet, keyed by the missing id.
	pending map[RegionID]*pendingLinks

	// requested holds ids for which a region required signal is outstanding.
	requested map[RegionID]struct{}

	regionAvailable listeners[*Region]
	regionRequired  listeners[RegionID]
	regionChanged   listeners[EntityRegionChanged]

	logger *slog.Logger
	debug  bool
}

type pendingLinks struct {
	// prevWaiting declared the missing region as its next.
	prevWaiting *Region
	// nextWaiting declared the missing region as its prev.
	nextWaiting *Region
}

type WorldOpt func(*World)

// WithLogger sets the logger used for lifecycle logging.
func WithLogger(l *slog.Logger) WorldOpt {
	return func(w *World) {
		w.logger = l
	}
}

// WithDebug enables lifecycle debug logging and extra link assertions.
func WithDebug(debug bool) WorldOpt {
	return func(w *World) {
		w.debug = debug
	}
}

func NewWorld(opts ...WorldOpt) *World {
	w := &World{
		regions:   make(map[RegionID]*Region),
		entities:  make(map[EntityID]*Entity),
		pending:   make(map[RegionID]*pendingLinks),
		requested: make(map[RegionID]struct{}),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Region returns the loaded region with the given id, or nil.
func (w *World) Region(id RegionID) *Region {
	return w.regions[id]
}

// Regions returns all loaded regions.
func (w *World) Regions() map[RegionID]*Region {
	regions := make(map[RegionID]*Region, len(w.regions))
	for id, r := range w.regions {
		regions[id] = r
	}
	return regions
}

// AddRegion loads a region into the world. Links that already loaded regions
// declared towards it are completed, and the region's own declared
// neighbours are linked now if loaded or recorded as pending otherwise.
// Regions may be added in any order; the chain assembles itself.
func (w *World) AddRegion(r *Region) error {
	if _, exists := w.regions[r.id]; exists {
		return fmt.Errorf("region %q: %w", r.id, ErrAlreadyLoaded)
	}
	if r.world != nil {
		return fmt.Errorf("region %q belongs to another world: %w", r.id, ErrAlreadyLoaded)
	}

	if err := w.checkLinks(r); err != nil {
		return err
	}

	w.regions[r.id] = r
	r.world = w

	// Complete links other regions left waiting on this one.
	if p, ok := w.pending[r.id]; ok {
		if p.prevWaiting != nil {
			r.prev = p.prevWaiting.id
		}
		if p.nextWaiting != nil {
			r.next = p.nextWaiting.id
		}
		delete(w.pending, r.id)
	}

	delete(w.requested, r.id)

	// Link own neighbours, or wait for them.
	if r.next != "" {
		if n, ok := w.regions[r.next]; ok {
			n.prev = r.id
		} else {
			w.waitingOn(r.next).prevWaiting = r
		}
	}
	if r.prev != "" {
		if p, ok := w.regions[r.prev]; ok {
			p.next = r.id
		} else {
			w.waitingOn(r.prev).nextWaiting = r
		}
	}

	w.debugLog("region loaded", "region", r.id, "prev", r.prev, "next", r.next, "pending", len(w.pending))

	if w.debug {
		if err := w.assertLinked(r); err != nil {
			return err
		}
	}

	w.regionAvailable.emit(r)
	return nil
}

func (w *World) waitingOn(id RegionID) *pendingLinks {
	p, ok := w.pending[id]
	if !ok {
		p = &pendingLinks{}
		w.pending[id] = p
	}
	return p
}

// checkLinks verifies that loading r would not contradict links already in
// the graph. It does not modify anything.
func (w *World) checkLinks(r *Region) error {
	next, prev := r.next, r.prev

	if p, ok := w.pending[r.id]; ok {
		if p.nextWaiting != nil {
			if next != "" && next != p.nextWaiting.id {
				return fmt.Errorf("region %q declares next %q but %q expects to follow it: %w",
					r.id, next, p.nextWaiting.id, ErrLinkConflict)
			}
			next = p.nextWaiting.id
		}
		if p.prevWaiting != nil {
			if prev != "" && prev != p.prevWaiting.id {
				return fmt.Errorf("region %q declares prev %q but %q expects to precede it: %w",
					r.id, prev, p.prevWaiting.id, ErrLinkConflict)
			}
			prev = p.prevWaiting.id
		}
	}

	if next == r.id && prev != "" && prev != r.id {
		return fmt.Errorf("region %q links to itself but declares prev %q: %w", r.id, prev, ErrLinkConflict)
	}
	if prev == r.id && next != "" && next != r.id {
		return fmt.Errorf("region %q links to itself but declares next %q: %w", r.id, next, ErrLinkConflict)
	}

	if next != "" && next != r.id {
		if n, ok := w.regions[next]; ok {
			if n.prev != "" && n.prev != r.id {
				return fmt.Errorf("region %q declares next %q which follows %q: %w", r.id, next, n.prev, ErrLinkConflict)
			}
		} else if p, ok := w.pending[next]; ok && p.prevWaiting != nil {
			return fmt.Errorf("region %q declares next %q which %q already precedes: %w",
				r.id, next, p.prevWaiting.id, ErrLinkConflict)
		}
	}

	if prev != "" && prev != r.id {
		if p, ok := w.regions[prev]; ok {
			if p.next != "" && p.next != r.id {
				return fmt.Errorf("region %q declares prev %q which precedes %q: %w", r.id, prev, p.next, ErrLinkConflict)
			}
		} else if pl, ok := w.pending[prev]; ok && pl.nextWaiting != nil {
			return fmt.Errorf("region %q declares prev %q which %q already follows: %w",
				r.id, prev, pl.nextWaiting.id, ErrLinkConflict)
		}
	}

	return nil
}

// assertLinked checks that every resolved link touching r is mirrored on
// the other side.
func (w *World) assertLinked(r *Region) error {
	if n, ok := w.regions[r.next]; ok && n.prev != r.id {
		return fmt.Errorf("region %q next %q points back to %q: %w", r.id, n.id, n.prev, ErrLinkConflict)
	}
	if p, ok := w.regions[r.prev]; ok && p.next != r.id {
		return fmt.Errorf("region %q prev %q points forward to %q: %w", r.id, p.id, p.next, ErrLinkConflict)
	}
	return nil
}

// RequestRegion signals that the region with the given id is needed. Nothing
// happens if it is loaded or has already been requested; at most one request
// per id is outstanding until the region is added or the request cancelled.
func (w *World) RequestRegion(id RegionID) {
	if id == "" {
		return
	}
	if _, loaded := w.regions[id]; loaded {
		return
	}
	if _, requested := w.requested[id]; requested {
		return
	}

	w.requested[id] = struct{}{}
	w.debugLog("region required", "region", id)
	w.regionRequired.emit(id)
}

// CancelRequest forgets an outstanding request so that the region can be
// requested again. It returns false if no request was outstanding.
func (w *World) CancelRequest(id RegionID) bool {
	if _, ok := w.requested[id]; !ok {
		return false
	}
	delete(w.requested, id)
	w.debugLog("region request cancelled", "region", id)
	return true
}

// Requested reports whether a request for the id is outstanding.
func (w *World) Requested(id RegionID) bool {
	_, ok := w.requested[id]
	return ok
}

// OnRegionAvailable subscribes fn to regions being added to the world.
func (w *World) OnRegionAvailable(fn func(*Region)) (unsubscribe func()) {
	return w.regionAvailable.add(fn)
}

// OnRegionRequired subscribes fn to region required signals. Handlers must
// not block; the region is delivered later through AddRegion.
func (w *World) OnRegionRequired(fn func(RegionID)) (unsubscribe func()) {
	return w.regionRequired.add(fn)
}

// OnEntityRegionChanged subscribes fn to entities crossing between regions.
func (w *World) OnEntityRegionChanged(fn func(EntityRegionChanged)) (unsubscribe func()) {
	return w.regionChanged.add(fn)
}

// Entity returns the registered entity with the given id, or nil.
func (w *World) Entity(id EntityID) *Entity {
	return w.entities[id]
}

// AddEntity registers an entity with the world. It does not place it.
func (w *World) AddEntity(e *Entity) error {
	if _, exists := w.entities[e.id]; exists {
		return fmt.Errorf("entity %q: %w", e.id, ErrDuplicateID)
	}
	w.entities[e.id] = e
	w.debugLog("entity registered", "entity", e.id)
	return nil
}

// RemoveEntity unregisters an entity. Its region placement is left alone.
func (w *World) RemoveEntity(e *Entity) error {
	if cur, ok := w.entities[e.id]; !ok || cur != e {
		return fmt.Errorf("entity %q: %w", e.id, ErrNotPresent)
	}
	delete(w.entities, e.id)
	w.debugLog("entity unregistered", "entity", e.id)
	return nil
}

// Spawn creates an entity, registers it and places it in a loaded region.
func (w *World) Spawn(id EntityID, regionId RegionID, x, y, width, height float64) (*Entity, error) {
	r := w.regions[regionId]
	if r == nil {
		return nil, fmt.Errorf("spawning entity %q in region %q: %w", id, regionId, ErrNotPresent)
	}

	e, err := NewEntity(id, width, height)
	if err != nil {
		return nil, err
	}

	if err := w.AddEntity(e); err != nil {
		return nil, err
	}

	if err := e.Place(r, x, y); err != nil {
		delete(w.entities, id)
		return nil, err
	}

	return e, nil
}

// Despawn removes an entity from its region, if placed, and unregisters it.
func (w *World) Despawn(e *Entity) error {
	if cur, ok := w.entities[e.id]; !ok || cur != e {
		return fmt.Errorf("entity %q: %w", e.id, ErrNotPresent)
	}
	if e.region != nil {
		if err := e.region.RemoveEntity(e); err != nil {
			return err
		}
	}
	return w.RemoveEntity(e)
}

// Stats summarises the world's size.
type Stats struct {
	Regions   int
	Entities  int
	Pending   int
	Requested int
}

func (w *World) Stats() Stats {
	return Stats{
		Regions:   len(w.regions),
		Entities:  len(w.entities),
		Pending:   len(w.pending),
		Requested: len(w.requested),
	}
}

func (w *World) debugLog(msg string, args ...any) {
	if w == nil || !w.debug {
		return
	}
	w.logger.Debug(msg, args...)
}
