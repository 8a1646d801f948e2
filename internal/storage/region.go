package storage

import (
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-tileworld/internal/game"
)

// RegionSpec is the stored definition of a region. Blocks, when present,
// holds column-major block codes; otherwise the region's terrain is
// generated from Seed.
type RegionSpec struct {
	Prev       string     `json:"prev,omitempty"`
	Next       string     `json:"next,omitempty"`
	Seed       int64      `json:"seed,omitempty"`
	Blocks     []byte     `json:"blocks,omitempty"`
	Extensions Extensions `json:"ext,omitempty"`
}

func (s *RegionSpec) Validate() error {
	if s == nil {
		return fmt.Errorf("spec must be set")
	}

	el := errors.NewErrorList()

	el.Add(ValidateIdentifier("prev", s.Prev, false))
	el.Add(ValidateIdentifier("next", s.Next, false))

	if len(s.Blocks) != 0 {
		if len(s.Blocks) != game.RegionBlocks {
			el.Add(fmt.Errorf("blocks must hold %d entries, got %d", game.RegionBlocks, len(s.Blocks)))
		}
		for i, b := range s.Blocks {
			if game.BlockType(b) > game.BlockOre {
				el.Add(fmt.Errorf("blocks[%d]: unknown block type %d", i, b))
				break
			}
		}
	}

	return el.Err()
}

// BlockData converts the stored blocks for game.NewRegion. It returns nil when
// the spec carries no blocks.
func (s *RegionSpec) BlockData() []game.BlockType {
	if len(s.Blocks) == 0 {
		return nil
	}
	data := make([]game.BlockType, len(s.Blocks))
	for i, b := range s.Blocks {
		data[i] = game.BlockType(b)
	}
	return data
}

// RegionOpts returns the neighbour options declared by the spec.
func (s *RegionSpec) RegionOpts() []game.RegionOpt {
	var opts []game.RegionOpt
	if s.Prev != "" {
		opts = append(opts, game.WithPrev(game.RegionID(s.Prev)))
	}
	if s.Next != "" {
		opts = append(opts, game.WithNext(game.RegionID(s.Next)))
	}
	return opts
}
