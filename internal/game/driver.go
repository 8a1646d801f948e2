package game

import (
	"context"
	"time"
)

const (
	DefaultTickLength = 20 * time.Millisecond
)

// Ticker is called once per simulation tick, always from the driver's
// goroutine.
type Ticker interface {
	Tick(context.Context) error
}

// Driver runs the simulation loop. All world state is touched from the
// goroutine running Start.
type Driver struct {
	tickLength time.Duration
	handlers   []Ticker
}

type DriverOpt func(*Driver)

func WithTickLength(tickLength time.Duration) DriverOpt {
	return func(d *Driver) {
		d.tickLength = tickLength
	}
}

func NewDriver(h []Ticker, opts ...DriverOpt) *Driver {
	d := &Driver{
		tickLength: DefaultTickLength,
		handlers:   h,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *Driver) Start(ctx context.Context) error {
	ticker := time.NewTicker(d.tickLength)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := d.Tick(ctx)
			if err != nil {
				return err
			}
		}
	}
}

// Tick runs every handler once, in order, stopping at the first error.
func (d *Driver) Tick(ctx context.Context) error {
	for _, h := range d.handlers {
		err := h.Tick(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}
