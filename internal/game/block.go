package game

import "fmt"

// Region dimensions, in blocks.
const (
	RegionWidth  = 64
	RegionHeight = 256
	RegionBlocks = RegionWidth * RegionHeight
)

// BlockType is the terrain code stored in each cell of a region.
type BlockType uint8

const (
	BlockAir BlockType = iota
	BlockDirt
	BlockStone
	// BlockOre has no name in the terrain data. It renders differently from
	// stone but collides exactly like it.
	BlockOre
)

func (b BlockType) String() string {
	switch b {
	case BlockAir:
		return "air"
	case BlockDirt:
		return "dirt"
	case BlockStone:
		return "stone"
	case BlockOre:
		return "ore"
	default:
		return fmt.Sprintf("block(%d)", uint8(b))
	}
}

// Solid reports whether entities collide with the block. Air is the only
// passable block.
func (b BlockType) Solid() bool {
	return b != BlockAir
}

// BlockGrid is a fixed RegionWidth x RegionHeight grid of blocks stored
// column-major: index(x, y) = x*RegionHeight + y.
type BlockGrid struct {
	data []BlockType
}

// NewBlockGrid copies data into a new grid. The data must hold exactly
// RegionBlocks codes.
func NewBlockGrid(data []BlockType) (*BlockGrid, error) {
	if len(data) != RegionBlocks {
		return nil, fmt.Errorf("got %d blocks, want %d: %w", len(data), RegionBlocks, ErrInvalidLength)
	}

	g := &BlockGrid{data: make([]BlockType, RegionBlocks)}
	copy(g.data, data)
	return g, nil
}

// Get returns the block at (x, y). There is no wraparound at this level.
func (g *BlockGrid) Get(x, y int) (BlockType, error) {
	if x < 0 || x >= RegionWidth || y < 0 || y >= RegionHeight {
		return BlockAir, fmt.Errorf("block (%d,%d): %w", x, y, ErrOutOfRange)
	}
	return g.data[x*RegionHeight+y], nil
}
