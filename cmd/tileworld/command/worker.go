package command

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pixil98/go-service/service"
	"github.com/pixil98/go-tileworld/internal/game"
	"github.com/pixil98/go-tileworld/internal/loader"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	logger := slog.Default()
	if cfg.World.Debug {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		slog.SetDefault(logger)
	}

	world := game.NewWorld(game.WithLogger(logger), game.WithDebug(cfg.World.Debug))

	natsServer, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}

	store, err := cfg.Storage.buildRegionStore()
	if err != nil {
		return nil, err
	}

	// Metrics tick last so gauges reflect the finished tick.
	var metricsTicker []game.Ticker
	workers := service.WorkerList{
		"nats": natsServer,
	}

	if cfg.Metrics.Addr != "" {
		collector, server, err := cfg.Metrics.buildMetrics()
		if err != nil {
			return nil, err
		}
		collector.Observe(world)
		metricsTicker = append(metricsTicker, collector)
		workers["metrics"] = server
	}

	regionLoader := cfg.Loader.buildLoader(world, natsServer, store)
	requester := loader.NewRequester(world, natsServer, loader.WithReady(regionLoader.Ready()))

	// The start region is loaded before anything ticks so walkers have
	// somewhere to stand.
	start, err := regionLoader.Load(game.RegionID(cfg.World.StartRegion))
	if err != nil {
		return nil, fmt.Errorf("loading start region: %w", err)
	}
	slog.Info("start region loaded", "region", start.ID(), "prev", start.PrevID(), "next", start.NextID())

	walkers, err := cfg.World.buildWalkers(world)
	if err != nil {
		return nil, err
	}

	tickers := append([]game.Ticker{requester, regionLoader, walkers}, metricsTicker...)
	workers["loader"] = regionLoader
	workers["driver"] = game.NewDriver(tickers, game.WithTickLength(cfg.tickLength()))

	return workers, nil
}
