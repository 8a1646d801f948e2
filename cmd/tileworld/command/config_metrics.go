package command

import (
	"fmt"
	"net"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/pixil98/go-tileworld/internal/metrics"
)

type MetricsConfig struct {
	// Addr is the listen address for /metrics. Empty disables metrics.
	Addr string `json:"addr"`
}

func (c *MetricsConfig) validate() error {
	if c.Addr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("metrics addr: %w", err)
	}
	return nil
}

func (c *MetricsConfig) buildMetrics() (*metrics.Collector, *metrics.Server, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	col, err := metrics.NewCollector(reg)
	if err != nil {
		return nil, nil, fmt.Errorf("registering metrics: %w", err)
	}

	return col, metrics.NewServer(c.Addr, reg), nil
}
