package game

import "fmt"

// EntityID identifies an entity within a World.
type EntityID string

func (id EntityID) String() string {
	return string(id)
}

// Collisions records which edges of an entity were blocked by the most recent
// call to Move.
type Collisions struct {
	Up    bool
	Down  bool
	Left  bool
	Right bool
}

// Entity is a movable rectangular body located in at most one region.
//
// X is the distance from the left edge of the current region to the left side
// of the entity. Y is the row of the entity's base; rows grow downwards, so
// the body spans Y-(Height-1) .. Y. Both are in blocks and may be fractional.
type Entity struct {
	id     EntityID
	width  float64
	height float64

	x float64
	y float64

	colliding Collisions
	region    *Region

	regionChange listeners[*RegionChange]
}

// NewEntity creates an unplaced entity.
func NewEntity(id EntityID, width, height float64) (*Entity, error) {
	if id == "" {
		return nil, fmt.Errorf("entity id is required")
	}
	if width <= 0 || width > RegionWidth || height <= 0 || height > RegionHeight {
		return nil, fmt.Errorf("entity %q size %gx%g: %w", id, width, height, ErrOutOfRange)
	}

	return &Entity{
		id:     id,
		width:  width,
		height: height,
	}, nil
}

func (e *Entity) ID() EntityID {
	return e.id
}

func (e *Entity) X() float64 {
	return e.x
}

func (e *Entity) Y() float64 {
	return e.y
}

func (e *Entity) Width() float64 {
	return e.width
}

func (e *Entity) Height() float64 {
	return e.height
}

// Colliding returns the collision flags from the last Move.
func (e *Entity) Colliding() Collisions {
	return e.colliding
}

// Region returns the region the entity is in, or nil when unplaced.
func (e *Entity) Region() *Region {
	return e.region
}

// Place puts an unplaced entity into a region at (x, y).
func (e *Entity) Place(r *Region, x, y float64) error {
	if x < 0 || x >= RegionWidth || y < e.height-1 || y > RegionHeight-1 {
		return fmt.Errorf("placing entity %q at (%g,%g): %w", e.id, x, y, ErrOutOfRange)
	}

	if err := r.AddEntity(e); err != nil {
		return err
	}

	e.x = x
	e.y = y
	e.colliding = Collisions{}
	return nil
}

// OnRegionChange subscribes fn to the entity leaving its region for a
// neighbour. fn runs before anything is changed and may cancel the move.
func (e *Entity) OnRegionChange(fn func(*RegionChange)) (unsubscribe func()) {
	return e.regionChange.add(fn)
}

// changeRegion moves the entity into a neighbouring region at x. It returns
// false if a handler vetoed the change.
func (e *Entity) changeRegion(to *Region, x float64) (bool, error) {
	from := e.region

	change := &RegionChange{Entity: e, From: from, To: to}
	e.regionChange.emit(change)
	if change.Cancelled() {
		from.world.debugLog("region change vetoed", "entity", e.id, "from", from.id, "to", to.id)
		return false, nil
	}

	if err := from.RemoveEntity(e); err != nil {
		return false, err
	}
	if err := to.AddEntity(e); err != nil {
		// from just released the entity, so it takes it back
		_ = from.AddEntity(e)
		return false, err
	}
	e.x = x

	if w := to.world; w != nil {
		w.regionChanged.emit(EntityRegionChanged{Entity: e, From: from.id, To: to.id})
	}
	return true, nil
}

// EntitySnapshot is a read-only view of an entity for presentation layers.
type EntitySnapshot struct {
	ID        EntityID
	Region    RegionID
	X         float64
	Y         float64
	Width     float64
	Height    float64
	Colliding Collisions
}

func (e *Entity) Snapshot() EntitySnapshot {
	s := EntitySnapshot{
		ID:        e.id,
		X:         e.x,
		Y:         e.y,
		Width:     e.width,
		Height:    e.height,
		Colliding: e.colliding,
	}
	if e.region != nil {
		s.Region = e.region.id
	}
	return s
}
