package command

import (
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-tileworld/internal/game"
	"github.com/pixil98/go-tileworld/internal/loader"
	"github.com/pixil98/go-tileworld/internal/messaging"
	"github.com/pixil98/go-tileworld/internal/storage"
	"github.com/pixil98/go-tileworld/internal/terrain"
)

type LoaderConfig struct {
	Seed            int64                  `json:"seed"`
	Terrain         *terrain.Params        `json:"terrain"`
	GenerateMissing *GenerateMissingConfig `json:"generate_missing"`
}

// GenerateMissingConfig makes <prefix>-<n> ids loadable without a stored spec.
// With Persist set, generated regions are saved to the region store.
type GenerateMissingConfig struct {
	Prefix  string `json:"prefix"`
	Length  int    `json:"length"`
	Persist bool   `json:"persist"`
}

func (c *LoaderConfig) validate() error {
	el := errors.NewErrorList()

	if c.Terrain != nil {
		if err := c.Terrain.Validate(); err != nil {
			el.Add(fmt.Errorf("terrain: %w", err))
		}
	}

	if g := c.GenerateMissing; g != nil {
		el.Add(storage.ValidateIdentifier("generate_missing.prefix", g.Prefix, true))
		if g.Length <= 0 {
			el.Add(fmt.Errorf("generate_missing.length must be positive"))
		}
	}

	return el.Err()
}

func (c *LoaderConfig) buildLoader(w *game.World, sub messaging.Subscriber, st *storage.FileStore[*storage.RegionSpec]) *loader.Loader {
	var genOpts []terrain.GeneratorOpt
	if c.Terrain != nil {
		genOpts = append(genOpts, terrain.WithParams(*c.Terrain))
	}

	opts := []loader.LoaderOpt{
		loader.WithGenerator(terrain.NewGenerator(c.Seed, genOpts...)),
	}
	if st != nil {
		opts = append(opts, loader.WithStore(st))
	}
	if g := c.GenerateMissing; g != nil {
		opts = append(opts, loader.WithGeneratedRing(g.Prefix, g.Length))
		if g.Persist {
			opts = append(opts, loader.WithPersistGenerated())
		}
	}

	return loader.NewLoader(w, sub, opts...)
}
