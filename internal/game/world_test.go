package game

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/pixil98/go-testutil"
)

// ringRegions builds six regions declaring a closed ring r1 -> r2 -> ... -> r6 -> r1.
func ringRegions(t *testing.T) map[RegionID]*Region {
	t.Helper()
	ids := []RegionID{"r1", "r2", "r3", "r4", "r5", "r6"}
	regions := make(map[RegionID]*Region, len(ids))
	for i, id := range ids {
		prev := ids[(i+len(ids)-1)%len(ids)]
		next := ids[(i+1)%len(ids)]
		regions[id] = newTestRegion(t, id, WithPrev(prev), WithNext(next))
	}
	return regions
}

func TestWorld_AddRegionAnyOrder(t *testing.T) {
	tests := map[string]struct {
		order []RegionID
	}{
		"forward":     {order: []RegionID{"r1", "r2", "r3", "r4", "r5", "r6"}},
		"reverse":     {order: []RegionID{"r6", "r5", "r4", "r3", "r2", "r1"}},
		"interleaved": {order: []RegionID{"r3", "r1", "r5", "r2", "r6", "r4"}},
		"alternating": {order: []RegionID{"r1", "r4", "r2", "r5", "r3", "r6"}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			regions := ringRegions(t)
			w := NewWorld(WithDebug(true), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

			var required []RegionID
			w.OnRegionRequired(func(id RegionID) {
				required = append(required, id)
			})

			for _, id := range tt.order {
				if err := w.AddRegion(regions[id]); err != nil {
					t.Fatalf("adding %q: unexpected error: %v", id, err)
				}
			}

			for id, r := range regions {
				next := r.Next()
				prev := r.Prev()
				if next == nil || prev == nil {
					t.Fatalf("region %q: expected both neighbours loaded", id)
				}
				assertRegion(t, string(id)+" next.prev", next.Prev(), r)
				assertRegion(t, string(id)+" prev.next", prev.Next(), r)
			}

			testutil.AssertEqual(t, "stats", w.Stats(), Stats{Regions: 6})
			testutil.AssertEqual(t, "requests", len(required), 0)
		})
	}
}

func TestWorld_AddRegionPartialChain(t *testing.T) {
	regions := ringRegions(t)
	w := NewWorld()

	for _, id := range []RegionID{"r1", "r3"} {
		if err := w.AddRegion(regions[id]); err != nil {
			t.Fatalf("adding %q: unexpected error: %v", id, err)
		}
	}

	// r6, r2 and r4 are awaited.
	testutil.AssertEqual(t, "pending", w.Stats().Pending, 3)

	if err := w.AddRegion(regions["r2"]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "pending", w.Stats().Pending, 2)
	assertRegion(t, "r1 next", regions["r1"].Next(), regions["r2"])
	assertRegion(t, "r3 prev", regions["r3"].Prev(), regions["r2"])
	assertRegion(t, "r2 prev", regions["r2"].Prev(), regions["r1"])
	assertRegion(t, "r2 next", regions["r2"].Next(), regions["r3"])
}

func TestWorld_AddRegionOneSidedDeclaration(t *testing.T) {
	tests := map[string]struct {
		declarerFirst bool
	}{
		"declarer loaded first": {declarerFirst: true},
		"declarer loaded last":  {declarerFirst: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			a := newTestRegion(t, "a", WithNext("b"))
			b := newTestRegion(t, "b")
			order := []*Region{b, a}
			if tt.declarerFirst {
				order = []*Region{a, b}
			}

			w := NewWorld()
			for _, r := range order {
				if err := w.AddRegion(r); err != nil {
					t.Fatalf("adding %q: unexpected error: %v", r.ID(), err)
				}
			}

			testutil.AssertEqual(t, "b prev id", b.PrevID(), RegionID("a"))
			assertRegion(t, "a next", a.Next(), b)
			assertRegion(t, "b prev", b.Prev(), a)
			testutil.AssertEqual(t, "pending", w.Stats().Pending, 0)
		})
	}
}

func TestWorld_AddRegionSelfLink(t *testing.T) {
	r := newTestRegion(t, "solo", WithNext("solo"), WithPrev("solo"))
	w := NewWorld()

	if err := w.AddRegion(r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertRegion(t, "next", r.Next(), r)
	assertRegion(t, "prev", r.Prev(), r)
}

func TestWorld_AddRegionErrors(t *testing.T) {
	tests := map[string]struct {
		setup  func(t *testing.T, w *World) *Region
		expErr error
	}{
		"same id loaded twice": {
			setup: func(t *testing.T, w *World) *Region {
				_ = w.AddRegion(newTestRegion(t, "r1"))
				return newTestRegion(t, "r1")
			},
			expErr: ErrAlreadyLoaded,
		},
		"region owned by another world": {
			setup: func(t *testing.T, w *World) *Region {
				r := newTestRegion(t, "r1")
				_ = NewWorld().AddRegion(r)
				return r
			},
			expErr: ErrAlreadyLoaded,
		},
		"two regions claim the same next": {
			setup: func(t *testing.T, w *World) *Region {
				_ = w.AddRegion(newTestRegion(t, "r1", WithNext("r2")))
				return newTestRegion(t, "r3", WithNext("r2"))
			},
			expErr: ErrLinkConflict,
		},
		"two regions claim the same prev": {
			setup: func(t *testing.T, w *World) *Region {
				_ = w.AddRegion(newTestRegion(t, "r3", WithPrev("r2")))
				return newTestRegion(t, "r4", WithPrev("r2"))
			},
			expErr: ErrLinkConflict,
		},
		"declared next contradicts waiting region": {
			setup: func(t *testing.T, w *World) *Region {
				_ = w.AddRegion(newTestRegion(t, "r3", WithPrev("r2")))
				return newTestRegion(t, "r2", WithNext("r9"))
			},
			expErr: ErrLinkConflict,
		},
		"loaded next already has a prev": {
			setup: func(t *testing.T, w *World) *Region {
				_ = w.AddRegion(newTestRegion(t, "r1", WithNext("r2")))
				_ = w.AddRegion(newTestRegion(t, "r2"))
				return newTestRegion(t, "r0", WithNext("r2"))
			},
			expErr: ErrLinkConflict,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			w := NewWorld()
			r := tt.setup(t, w)
			before := w.Stats()

			var available int
			w.OnRegionAvailable(func(*Region) { available++ })

			err := w.AddRegion(r)
			if !errors.Is(err, tt.expErr) {
				t.Fatalf("expected %v, got %v", tt.expErr, err)
			}
			testutil.AssertEqual(t, "stats", w.Stats(), before)
			testutil.AssertEqual(t, "available events", available, 0)
		})
	}
}

func TestWorld_RegionAvailable(t *testing.T) {
	w := NewWorld()
	a := newTestRegion(t, "a", WithNext("b"))
	b := newTestRegion(t, "b", WithPrev("a"))

	var got []*Region
	var linked bool
	unsubscribe := w.OnRegionAvailable(func(r *Region) {
		got = append(got, r)
		if r == b {
			linked = r.Prev() == a && a.Next() == b
		}
	})

	if err := w.AddRegion(a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.AddRegion(b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "events", len(got), 2)
	assertRegion(t, "first", got[0], a)
	assertRegion(t, "second", got[1], b)
	testutil.AssertEqual(t, "linked when announced", linked, true)

	unsubscribe()
	if err := w.AddRegion(newTestRegion(t, "c")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "events after unsubscribe", len(got), 2)
}

func TestWorld_RequestRegion(t *testing.T) {
	w := NewWorld()

	var required []RegionID
	w.OnRegionRequired(func(id RegionID) {
		required = append(required, id)
	})

	w.RequestRegion("x")
	w.RequestRegion("x")
	testutil.AssertEqual(t, "after duplicate request", len(required), 1)
	testutil.AssertEqual(t, "requested", w.Requested("x"), true)

	w.RequestRegion("")
	testutil.AssertEqual(t, "after empty request", len(required), 1)

	if err := w.AddRegion(newTestRegion(t, "x")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "requested after load", w.Requested("x"), false)

	w.RequestRegion("x")
	testutil.AssertEqual(t, "after request for loaded", len(required), 1)

	w.RequestRegion("y")
	testutil.AssertEqual(t, "cancel outstanding", w.CancelRequest("y"), true)
	testutil.AssertEqual(t, "cancel again", w.CancelRequest("y"), false)

	w.RequestRegion("y")
	testutil.AssertEqual(t, "after re-request", len(required), 3)
	testutil.AssertEqual(t, "last id", required[2], RegionID("y"))
}

func TestWorld_EntityRegistry(t *testing.T) {
	w := NewWorld()
	e := newTestEntity(t, "e1", 1, 1)

	if err := w.AddEntity(e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertEntity(t, "lookup", w.Entity("e1"), e)

	err := w.AddEntity(newTestEntity(t, "e1", 1, 1))
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	err = w.RemoveEntity(newTestEntity(t, "e1", 1, 1))
	if !errors.Is(err, ErrNotPresent) {
		t.Fatalf("expected ErrNotPresent, got %v", err)
	}

	if err := w.RemoveEntity(e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Entity("e1") != nil {
		t.Error("expected entity to be unregistered")
	}

	err = w.RemoveEntity(e)
	if !errors.Is(err, ErrNotPresent) {
		t.Fatalf("expected ErrNotPresent, got %v", err)
	}
}

func TestWorld_Spawn(t *testing.T) {
	tests := map[string]struct {
		id       EntityID
		regionId RegionID
		x, y     float64
		expErr   error
	}{
		"placed": {
			id: "e1", regionId: "r1", x: 10, y: 100,
		},
		"unknown region": {
			id: "e1", regionId: "nope", x: 10, y: 100,
			expErr: ErrNotPresent,
		},
		"off the region": {
			id: "e1", regionId: "r1", x: RegionWidth, y: 100,
			expErr: ErrOutOfRange,
		},
		"duplicate id": {
			id: "taken", regionId: "r1", x: 10, y: 100,
			expErr: ErrDuplicateID,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			w := NewWorld()
			r := newTestRegion(t, "r1")
			if err := w.AddRegion(r); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if _, err := w.Spawn("taken", "r1", 1, 100, 1, 1); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			e, err := w.Spawn(tt.id, tt.regionId, tt.x, tt.y, 1, 2)
			if tt.expErr != nil {
				if !errors.Is(err, tt.expErr) {
					t.Fatalf("expected %v, got %v", tt.expErr, err)
				}
				testutil.AssertEqual(t, "entities", w.Stats().Entities, 1)
				testutil.AssertEqual(t, "region entities", r.EntityCount(), 1)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			assertRegion(t, "region", e.Region(), r)
			testutil.AssertEqual(t, "x", e.X(), tt.x)
			testutil.AssertEqual(t, "y", e.Y(), tt.y)
			assertEntity(t, "registered", w.Entity(tt.id), e)

			if err := w.Despawn(e); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if e.Region() != nil {
				t.Error("expected despawned entity to be unplaced")
			}
			testutil.AssertEqual(t, "entities after despawn", w.Stats().Entities, 1)

			err = w.Despawn(e)
			if !errors.Is(err, ErrNotPresent) {
				t.Fatalf("expected ErrNotPresent, got %v", err)
			}
		})
	}
}
