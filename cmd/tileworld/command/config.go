package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-tileworld/internal/game"
)

type Config struct {
	TickInterval string        `json:"tick_interval"`
	Nats         NatsConfig    `json:"nats"`
	Storage      StorageConfig `json:"storage"`
	World        WorldConfig   `json:"world"`
	Loader       LoaderConfig  `json:"loader"`
	Metrics      MetricsConfig `json:"metrics"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if c.TickInterval != "" {
		d, err := time.ParseDuration(c.TickInterval)
		if err != nil {
			el.Add(fmt.Errorf("parsing tick_interval: %w", err))
		} else if d <= 0 {
			el.Add(fmt.Errorf("tick_interval must be positive"))
		}
	}

	el.Add(c.Nats.validate())
	el.Add(c.Storage.validate())
	el.Add(c.World.validate())
	el.Add(c.Loader.validate())
	el.Add(c.Metrics.validate())

	if g := c.Loader.GenerateMissing; g != nil && g.Persist && c.Storage.Regions.Path == "" {
		el.Add(fmt.Errorf("generate_missing.persist requires storage.regions.path"))
	}

	return el.Err()
}

func (c *Config) tickLength() time.Duration {
	d, err := time.ParseDuration(c.TickInterval)
	if err != nil || d <= 0 {
		return game.DefaultTickLength
	}
	return d
}
