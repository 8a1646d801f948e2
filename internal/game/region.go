package game

import (
	"fmt"
	"slices"
)

// RegionID identifies a region. The empty id means "no region".
type RegionID string

func (id RegionID) String() string {
	return string(id)
}

// Region is a RegionWidth x RegionHeight chunk of terrain plus the entities
// currently located in it. Neighbours are held by id and resolved through the
// owning World on demand.
type Region struct {
	id   RegionID
	grid *BlockGrid

	prev RegionID
	next RegionID

	// world is only used to look up and request neighbours.
	world    *World
	entities map[EntityID]*Entity
}

type RegionOpt func(*Region)

// WithPrev declares the id of the region before this one.
func WithPrev(id RegionID) RegionOpt {
	return func(r *Region) {
		r.prev = id
	}
}

// WithNext declares the id of the region after this one.
func WithNext(id RegionID) RegionOpt {
	return func(r *Region) {
		r.next = id
	}
}

// NewRegion builds a region from column-major block data of exactly
// RegionBlocks codes.
func NewRegion(id RegionID, data []BlockType, opts ...RegionOpt) (*Region, error) {
	if id == "" {
		return nil, fmt.Errorf("region id is required")
	}

	grid, err := NewBlockGrid(data)
	if err != nil {
		return nil, fmt.Errorf("region %q: %w", id, err)
	}

	r := &Region{
		id:       id,
		grid:     grid,
		entities: make(map[EntityID]*Entity),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

func (r *Region) ID() RegionID {
	return r.id
}

// PrevID returns the id of the previous region, known or declared. It is
// empty when the region is the start of the chain.
func (r *Region) PrevID() RegionID {
	return r.prev
}

// NextID returns the id of the next region, known or declared. It is empty
// when the region is the end of the chain.
func (r *Region) NextID() RegionID {
	return r.next
}

// Block returns the block at (x, y) in this region.
func (r *Region) Block(x, y int) (BlockType, error) {
	b, err := r.grid.Get(x, y)
	if err != nil {
		return b, fmt.Errorf("region %q: %w", r.id, err)
	}
	return b, nil
}

// solidAt treats anything outside the grid as solid.
func (r *Region) solidAt(x, y int) bool {
	b, err := r.grid.Get(x, y)
	return err != nil || b.Solid()
}

// Next returns the next region if it is loaded. If the next region is known
// by id but not loaded, the owning World is asked for it once and nil is
// returned; callers should treat the boundary as solid.
func (r *Region) Next() *Region {
	return r.neighbor(r.next)
}

// Prev is the Next counterpart for the previous region.
func (r *Region) Prev() *Region {
	return r.neighbor(r.prev)
}

func (r *Region) neighbor(id RegionID) *Region {
	if id == "" || r.world == nil {
		return nil
	}

	if n := r.world.Region(id); n != nil {
		return n
	}

	r.world.RequestRegion(id)
	return nil
}

// World returns the world the region has been added to, if any.
func (r *Region) World() *World {
	return r.world
}

// AddEntity places an entity in the region.
func (r *Region) AddEntity(e *Entity) error {
	if e.region != nil {
		return fmt.Errorf("entity %q is in region %q: %w", e.id, e.region.id, ErrAlreadyPlaced)
	}
	if _, exists := r.entities[e.id]; exists {
		return fmt.Errorf("entity %q in region %q: %w", e.id, r.id, ErrDuplicateID)
	}

	r.entities[e.id] = e
	e.region = r

	r.world.debugLog("entity added to region", "entity", e.id, "region", r.id, "count", len(r.entities))
	return nil
}

// RemoveEntity takes an entity out of the region.
func (r *Region) RemoveEntity(e *Entity) error {
	if cur, ok := r.entities[e.id]; !ok || cur != e {
		return fmt.Errorf("entity %q in region %q: %w", e.id, r.id, ErrNotPresent)
	}

	delete(r.entities, e.id)
	e.region = nil

	r.world.debugLog("entity removed from region", "entity", e.id, "region", r.id, "count", len(r.entities))
	return nil
}

// Entity returns the entity with the given id if it is in this region.
func (r *Region) Entity(id EntityID) *Entity {
	return r.entities[id]
}

func (r *Region) EntityCount() int {
	return len(r.entities)
}

func (r *Region) entityIds() []EntityID {
	ids := make([]EntityID, 0, len(r.entities))
	for id := range r.entities {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// RegionSnapshot is a read-only view of a region's link state and occupants.
type RegionSnapshot struct {
	ID       RegionID
	Prev     RegionID
	Next     RegionID
	Entities []EntityID
}

func (r *Region) Snapshot() RegionSnapshot {
	return RegionSnapshot{
		ID:       r.id,
		Prev:     r.prev,
		Next:     r.next,
		Entities: r.entityIds(),
	}
}
