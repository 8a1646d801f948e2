package command

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-tileworld/internal/game"
	"github.com/pixil98/go-tileworld/internal/storage"
)

type WorldConfig struct {
	StartRegion string         `json:"start_region"`
	Debug       bool           `json:"debug"`
	Walkers     []WalkerConfig `json:"walkers"`
}

func (c *WorldConfig) validate() error {
	el := errors.NewErrorList()

	el.Add(storage.ValidateIdentifier("start_region", c.StartRegion, true))
	for i, w := range c.Walkers {
		if err := w.validate(); err != nil {
			el.Add(fmt.Errorf("walker %d: %w", i, err))
		}
	}

	return el.Err()
}

// WalkerConfig places an entity that moves by (dx, dy) every tick. An empty
// id gets a random one; an empty region means the start region.
type WalkerConfig struct {
	ID     string  `json:"id"`
	Region string  `json:"region"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
}

func (c *WalkerConfig) validate() error {
	el := errors.NewErrorList()

	el.Add(storage.ValidateIdentifier("region", c.Region, false))
	if c.Width <= 0 || c.Width > game.RegionWidth {
		el.Add(fmt.Errorf("width must be within (0,%d]", game.RegionWidth))
	}
	if c.Height <= 0 || c.Height > game.RegionHeight {
		el.Add(fmt.Errorf("height must be within (0,%d]", game.RegionHeight))
	}
	if c.DX < -game.RegionWidth || c.DX > game.RegionWidth {
		el.Add(fmt.Errorf("dx must be within [-%d,%d]", game.RegionWidth, game.RegionWidth))
	}

	return el.Err()
}

func (c *WorldConfig) buildWalkers(w *game.World) (*game.Walkers, error) {
	walkers := game.NewWalkers()
	for i, wc := range c.Walkers {
		id := wc.ID
		if id == "" {
			id = uuid.NewString()
		}
		region := wc.Region
		if region == "" {
			region = c.StartRegion
		}

		e, err := w.Spawn(game.EntityID(id), game.RegionID(region), wc.X, wc.Y, wc.Width, wc.Height)
		if err != nil {
			return nil, fmt.Errorf("spawning walker %d: %w", i, err)
		}
		walkers.Add(&game.Walker{Entity: e, DX: wc.DX, DY: wc.DY})
	}
	return walkers, nil
}
