package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pixil98/go-tileworld/internal/game"
)

const namespace = "tileworld"

// Collector turns world lifecycle events into prometheus metrics.
type Collector struct {
	regionsLoaded    prometheus.Counter
	regionsRequested prometheus.Counter
	regionChanges    *prometheus.CounterVec
	regionsPending   prometheus.Gauge
	entities         prometheus.Gauge

	world *game.World
}

// NewCollector creates the collectors and registers them with reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		regionsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "regions_loaded_total",
			Help:      "Regions added to the world.",
		}),
		regionsRequested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "regions_requested_total",
			Help:      "Region required signals emitted by the world.",
		}),
		regionChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entity_region_changes_total",
			Help:      "Entities crossing from one region into another.",
		}, []string{"to"}),
		regionsPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "regions_pending",
			Help:      "Region ids that loaded regions link to but which are not loaded yet.",
		}),
		entities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entities",
			Help:      "Entities registered with the world.",
		}),
	}

	for _, col := range []prometheus.Collector{
		c.regionsLoaded,
		c.regionsRequested,
		c.regionChanges,
		c.regionsPending,
		c.entities,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Observe subscribes the collector to w. The returned func unsubscribes it.
func (c *Collector) Observe(w *game.World) (unsubscribe func()) {
	c.world = w
	unsubs := []func(){
		w.OnRegionAvailable(func(*game.Region) {
			c.regionsLoaded.Inc()
			c.Update(w)
		}),
		w.OnRegionRequired(func(game.RegionID) {
			c.regionsRequested.Inc()
		}),
		w.OnEntityRegionChanged(func(ev game.EntityRegionChanged) {
			c.regionChanges.WithLabelValues(ev.To.String()).Inc()
		}),
	}
	c.Update(w)

	return func() {
		for _, u := range unsubs {
			u()
		}
		c.world = nil
	}
}

// Tick refreshes the gauges of the observed world once per simulation tick.
func (c *Collector) Tick(context.Context) error {
	if c.world != nil {
		c.Update(c.world)
	}
	return nil
}

// Update refreshes the gauges from the world's current stats. It must run on
// the goroutine that owns the world.
func (c *Collector) Update(w *game.World) {
	s := w.Stats()
	c.regionsPending.Set(float64(s.Pending))
	c.entities.Set(float64(s.Entities))
}
