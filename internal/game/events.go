package game

import "slices"

// RegionChange is raised before an entity moves from one region into a
// neighbouring one. Any handler may cancel it, in which case the whole move
// is rolled back.
type RegionChange struct {
	Entity *Entity
	From   *Region
	To     *Region

	cancelled bool
}

// Cancel vetoes the region change.
func (c *RegionChange) Cancel() {
	c.cancelled = true
}

// Cancelled reports whether a handler vetoed the change.
func (c *RegionChange) Cancelled() bool {
	return c.cancelled
}

// EntityRegionChanged is published by the World after an entity has been
// moved between regions.
type EntityRegionChanged struct {
	Entity *Entity
	From   RegionID
	To     RegionID
}

type subscription[T any] struct {
	id int
	fn func(T)
}

// listeners is an ordered set of callbacks. The zero value is ready to use.
type listeners[T any] struct {
	nextId int
	subs   []subscription[T]
}

func (l *listeners[T]) add(fn func(T)) (unsubscribe func()) {
	id := l.nextId
	l.nextId++
	l.subs = append(l.subs, subscription[T]{id: id, fn: fn})

	return func() {
		l.remove(id)
	}
}

func (l *listeners[T]) remove(id int) {
	l.subs = slices.DeleteFunc(l.subs, func(s subscription[T]) bool {
		return s.id == id
	})
}

// emit calls every callback in subscription order. Callbacks may unsubscribe
// while being called.
func (l *listeners[T]) emit(v T) {
	for _, s := range slices.Clone(l.subs) {
		s.fn(v)
	}
}
