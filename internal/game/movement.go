package game

import (
	"fmt"
	"math"
)

// Move displaces the entity by (dx, dy) blocks, stopping at the nearest solid
// block. Movement is resolved one axis at a time, vertical first, so a
// diagonal move is not swept as a single vector. Crossing the left or right
// edge of the region moves the entity into the neighbouring region; if that
// neighbour is not loaded yet it is requested and the edge acts as a wall.
//
// Collision flags are recomputed for each axis that moves. A move larger than
// one region width fails with ErrExceedsRegionWidth without changing anything.
// A NaN or infinite delta fails with ErrOutOfRange.
func (e *Entity) Move(dx, dy float64) error {
	if dx == 0 && dy == 0 {
		return nil
	}
	if !finite(dx) || !finite(dy) {
		return fmt.Errorf("moving entity %q by (%g,%g): %w", e.id, dx, dy, ErrOutOfRange)
	}
	if e.region == nil {
		return fmt.Errorf("moving entity %q: %w", e.id, ErrNotPlaced)
	}
	if math.Abs(dx) > RegionWidth {
		return fmt.Errorf("moving entity %q by %g: %w", e.id, dx, ErrExceedsRegionWidth)
	}

	x, y, colliding := e.x, e.y, e.colliding

	if dy != 0 {
		e.y, e.colliding.Up, e.colliding.Down = e.sweepVertical(dy)
	}

	if dx != 0 {
		moved, err := e.moveHorizontal(dx)
		if err != nil || !moved {
			e.x, e.y, e.colliding = x, y, colliding
			return err
		}
	}

	return nil
}

// sweepVertical returns the new base row and the up/down collision flags.
func (e *Entity) sweepVertical(dy float64) (ny float64, up, down bool) {
	ny = e.y
	heightAdjust := e.height - 1
	widthAdjust := e.width - 1

	// Regions do not chain vertically.
	if ny+dy < heightAdjust {
		return heightAdjust, true, false
	}
	if ny+dy > RegionHeight-1 {
		return RegionHeight - 1, false, true
	}

	r := e.region
	endX := int(math.Ceil(e.x + widthAdjust))
	for x := int(math.Floor(e.x)); x <= endX; x++ {
		if x >= RegionWidth {
			if r = r.Next(); r == nil {
				break
			}
			x -= RegionWidth
			endX -= RegionWidth
		}

		var y, first int
		if dy > 0 {
			first = int(math.Ceil(ny))
			for y = first; float64(y) < ny+1+dy; y++ {
				if r.solidAt(x, y) {
					dy = math.Min(float64(y)-ny-1, dy)
					down = true
					break
				}
			}
		} else {
			first = int(math.Floor(ny - heightAdjust - 1))
			end := ny + dy - heightAdjust - 1
			for y = first; float64(y) > end; y-- {
				if r.solidAt(x, y) {
					dy = math.Max(float64(y)+1+heightAdjust-ny, dy)
					up = true
					break
				}
			}
		}

		// A block directly above or below ends the sweep. Columns further
		// along are not checked, so an obstacle that only they would have
		// found is missed this tick.
		if y == first {
			break
		}
	}

	return ny + dy, up, down
}

// moveHorizontal clamps dx against the blocks beside the entity and applies
// it, changing region when the entity leaves the current one. It returns
// false if the region change was vetoed.
func (e *Entity) moveHorizontal(dx float64) (bool, error) {
	nx, ny := e.x, e.y
	heightAdjust := e.height - 1
	var left, right bool

	maxY := int(math.Ceil(ny))
	for y := int(math.Floor(ny - heightAdjust)); y <= maxY; y++ {
		var stoppedFirst bool
		if dx > 0 {
			dx, right, stoppedFirst = e.scanRight(y, dx, right)
		} else {
			dx, left, stoppedFirst = e.scanLeft(y, dx, left)
		}

		// Same early exit as the vertical sweep: rows further along are
		// skipped once the block right beside the entity stops it.
		if stoppedFirst {
			break
		}
	}

	switch {
	case nx+dx < 0:
		prev := e.region.Prev()
		if prev == nil {
			e.x = 0
			left = true
			break
		}
		moved, err := e.changeRegion(prev, RegionWidth+nx+dx)
		if err != nil || !moved {
			return false, err
		}
	case nx+dx >= RegionWidth:
		next := e.region.Next()
		if next == nil {
			e.x = RegionWidth - 1
			right = true
			break
		}
		moved, err := e.changeRegion(next, nx+dx-RegionWidth)
		if err != nil || !moved {
			return false, err
		}
	default:
		e.x = nx + dx
	}

	e.colliding.Left = left
	e.colliding.Right = right
	return true, nil
}

// scanRight walks row y from the entity's right side towards its destination.
// tx tracks the entity's x in the frame of the region being scanned so the
// clamp is always expressed in the origin region's frame. stoppedFirst is
// true when the scan ended on the first block it checked.
func (e *Entity) scanRight(y int, dx float64, hit bool) (float64, bool, bool) {
	widthAdjust := e.width - 1
	r := e.region
	tx := e.x

	first := int(math.Ceil(e.x + widthAdjust + 1))
	end := e.x + widthAdjust + 1 + dx
	checked := 0
	for x := first; float64(x) < end; x++ {
		checked++
		if x >= RegionWidth {
			if r = r.Next(); r == nil {
				// Unloaded neighbour: its edge is a wall for now.
				dx = math.Max(0, math.Min(RegionWidth-1-widthAdjust-tx, dx))
				return dx, true, checked == 1
			}
			x -= RegionWidth
			tx -= RegionWidth
			end -= RegionWidth
		}

		if r.solidAt(x, y) {
			return math.Min(float64(x)-1-widthAdjust-tx, dx), true, checked == 1
		}
	}

	return dx, hit, checked == 0
}

// scanLeft mirrors scanRight for leftward movement.
func (e *Entity) scanLeft(y int, dx float64, hit bool) (float64, bool, bool) {
	r := e.region
	tx := e.x

	first := int(math.Floor(e.x - 1))
	end := e.x + dx - 1
	checked := 0
	for x := first; float64(x) > end; x-- {
		checked++
		if x < 0 {
			if r = r.Prev(); r == nil {
				dx = math.Min(0, math.Max(-tx, dx))
				return dx, true, checked == 1
			}
			x += RegionWidth
			tx += RegionWidth
			end += RegionWidth
		}

		if r.solidAt(x, y) {
			return math.Max(float64(x)+1-tx, dx), true, checked == 1
		}
	}

	return dx, hit, checked == 0
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
