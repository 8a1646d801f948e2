package terrain

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/aquilax/go-perlin"
	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-tileworld/internal/game"
)

// Params shape the generated ground. Rows grow downwards, so a larger
// Surface means lower ground.
type Params struct {
	// Surface is the highest row the ground can start at.
	Surface float64 `json:"surface"`
	// Variation is how far below Surface the ground may start.
	Variation float64 `json:"variation"`
	// DirtDepth and DirtVariation give the dirt layer a depth in
	// [DirtDepth, DirtDepth+DirtVariation).
	DirtDepth     float64 `json:"dirt_depth"`
	DirtVariation float64 `json:"dirt_variation"`
	// OreChance is the probability that a stone block is ore instead.
	OreChance float64 `json:"ore_chance"`
	// NoiseScale stretches the surface noise along x.
	NoiseScale float64 `json:"noise_scale"`
}

var DefaultParams = Params{
	Surface:       118,
	Variation:     3,
	DirtDepth:     3,
	DirtVariation: 3,
	OreChance:     0.1,
	NoiseScale:    0.05,
}

func (p *Params) Validate() error {
	el := errors.NewErrorList()

	if p.Surface < 0 || p.Surface >= game.RegionHeight {
		el.Add(fmt.Errorf("surface must be within [0,%d)", game.RegionHeight))
	}
	if p.Variation < 0 {
		el.Add(fmt.Errorf("variation must not be negative"))
	}
	if p.DirtDepth < 0 || p.DirtVariation < 0 {
		el.Add(fmt.Errorf("dirt depth must not be negative"))
	}
	if p.OreChance < 0 || p.OreChance > 1 {
		el.Add(fmt.Errorf("ore_chance must be within [0,1]"))
	}
	if p.NoiseScale <= 0 {
		el.Add(fmt.Errorf("noise_scale must be positive"))
	}

	return el.Err()
}

// Generator produces block data for regions. Output depends only on the seed,
// the params and the region id.
type Generator struct {
	seed   int64
	params Params
	noise  *perlin.Perlin
}

type GeneratorOpt func(*Generator)

func WithParams(p Params) GeneratorOpt {
	return func(g *Generator) {
		g.params = p
	}
}

func NewGenerator(seed int64, opts ...GeneratorOpt) *Generator {
	g := &Generator{
		seed:   seed,
		params: DefaultParams,
	}

	for _, opt := range opts {
		opt(g)
	}

	g.noise = perlin.NewPerlin(2, 2, 3, seed)
	return g
}

func (g *Generator) Seed() int64 {
	return g.seed
}

func (g *Generator) Params() Params {
	return g.params
}

// Generate returns column-major block data for the region, ready for
// game.NewRegion.
func (g *Generator) Generate(id game.RegionID) []game.BlockType {
	h := regionHash(id)
	rng := rand.New(rand.NewSource(g.seed ^ int64(h)))
	row := float64(h % 4096)

	data := make([]game.BlockType, game.RegionBlocks)
	i := 0
	for x := 0; x < game.RegionWidth; x++ {
		threshold := g.params.Surface + g.params.Variation*g.unitNoise(float64(x)*g.params.NoiseScale, row)
		for y := 0; y < game.RegionHeight; y, i = y+1, i+1 {
			data[i] = g.block(float64(y), threshold, rng)
		}
	}

	return data
}

func (g *Generator) block(y, threshold float64, rng *rand.Rand) game.BlockType {
	if y < threshold {
		return game.BlockAir
	}
	if y-threshold < g.params.DirtDepth+rng.Float64()*g.params.DirtVariation {
		return game.BlockDirt
	}
	if rng.Float64() < g.params.OreChance {
		return game.BlockOre
	}
	return game.BlockStone
}

// unitNoise maps the noise onto [0,1).
func (g *Generator) unitNoise(x, y float64) float64 {
	n := (g.noise.Noise2D(x, y) + 1) / 2
	return math.Max(0, math.Min(n, math.Nextafter(1, 0)))
}

func regionHash(id game.RegionID) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return h.Sum32()
}
