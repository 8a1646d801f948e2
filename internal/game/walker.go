package game

import (
	"context"
	"fmt"
	"log/slog"
)

// Walker moves an entity by a fixed velocity every tick.
type Walker struct {
	Entity *Entity
	DX     float64
	DY     float64
}

// Walkers is a Ticker that moves its walkers each tick. A walker that hits
// something on its left or right turns around.
type Walkers struct {
	walkers []*Walker
}

func NewWalkers(walkers ...*Walker) *Walkers {
	return &Walkers{walkers: walkers}
}

func (ws *Walkers) Add(w *Walker) {
	ws.walkers = append(ws.walkers, w)
}

func (ws *Walkers) Tick(ctx context.Context) error {
	for _, w := range ws.walkers {
		// Despawned entities stay in the list but no longer move.
		if w.Entity.Region() == nil {
			continue
		}

		err := w.Entity.Move(w.DX, w.DY)
		if err != nil {
			return fmt.Errorf("moving entity %q: %w", w.Entity.ID(), err)
		}

		c := w.Entity.Colliding()
		if (w.DX > 0 && c.Right) || (w.DX < 0 && c.Left) {
			w.DX = -w.DX
			slog.DebugContext(ctx, "walker turned around", "entity", w.Entity.ID(), "region", w.Entity.Region().ID())
		}
	}
	return nil
}
