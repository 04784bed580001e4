package main

import (
	"context"
	"os"
	"time"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Geo-Web-Project/cadastre-sub000/config"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/event"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/metrics"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/repository"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/service/auctioneer"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/service/consumer"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/service/interrupter"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/service/matcher"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/service/simulator"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/service/tracker"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/service/watcher"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/service/web"
	"github.com/Geo-Web-Project/cadastre-sub000/pkg/app"
	"github.com/Geo-Web-Project/cadastre-sub000/pkg/ebus"
	"github.com/Geo-Web-Project/cadastre-sub000/pkg/utils"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Consume indexer snapshots and publish live balances, prices and matching estimates",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Build()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func newLogger(cfg config.Log) zerolog.Logger {
	var log zerolog.Logger
	if cfg.Pretty {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(cfg.ZerologLevel()).With().Timestamp().Logger()
}

func serve(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := newLogger(cfg.Log)
	eBus := ebus.New()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry)

	kafkaCl := utils.Must(sarama.NewClient(cfg.Kafka.Brokers, cfg.Kafka.SaramaConfig()))
	defer kafkaCl.Close()
	prod := utils.Must(sarama.NewSyncProducerFromClient(kafkaCl))
	defer prod.Close()

	stateRepo := repository.NewState(kafkaCl, prod, cfg.Kafka.StateTopic)
	snapshotRepo := repository.NewSnapshot(prod, repository.Topics{
		Balances: cfg.Kafka.BalancesTopic,
		Pools:    cfg.Kafka.PoolsTopic,
		Auctions: cfg.Kafka.AuctionsTopic,
	})

	consumer := utils.Must(consumer.NewConsumer(kafkaCl, consumer.Topics{
		Balances: cfg.Kafka.BalancesTopic,
		Pools:    cfg.Kafka.PoolsTopic,
		Auctions: cfg.Kafka.AuctionsTopic,
	}, cfg.Kafka.Group, eBus, log))
	tracker := tracker.NewTracker(stateRepo, eBus, m, log).SaveEvery(cfg.Frames.State)
	auctioneer := auctioneer.NewAuctioneer(cfg.Frames.History, eBus, m, log)
	matcher := matcher.NewMatcher(eBus, m, log)
	web := web.New(cfg.Web.Addr, cfg.Web.Decimals, web.Deps{
		Balances:  tracker,
		Prices:    auctioneer,
		Estimator: matcher,
		Metrics:   metrics.Handler(registry),
		Bus:       eBus,
		OnConns:   func(n int) { m.WSConnections.Set(float64(n)) },
	}, log)
	watch := watcher.NewWatcher(eBus, log).
		EmitEvery(cfg.Frames.Balance, func(ctx context.Context, now time.Time) (any, error) {
			return tracker.Balances(now.UnixMilli()), nil
		}).
		EmitEvery(cfg.Frames.Price, func(ctx context.Context, now time.Time) (any, error) {
			return auctioneer.Prices(now.Unix()), nil
		})

	eBus.
		Subscribe(event.StateSaved{}, ebus.Typed(watcher.LogAny[event.StateSaved](log))).
		Subscribe(event.StateRestored{}, ebus.Typed(watcher.LogAny[event.StateRestored](log))).
		Subscribe(event.SnapshotSkipped{}, ebus.Typed(watcher.LogAny[event.SnapshotSkipped](log))).
		Subscribe(event.AuctionRejected{}, ebus.Typed(watcher.LogAny[event.AuctionRejected](log))).
		Subscribe(event.ImpactFailed{}, ebus.Typed(watcher.LogAny[event.ImpactFailed](log))).
		Subscribe(event.StateSaved{}, ebus.Typed(consumer.Commit)).
		Subscribe(event.SnapshotReceived{}, ebus.Typed(tracker.HandleSnapshot)).
		Subscribe(event.PoolReceived{}, ebus.Typed(matcher.HandlePool)).
		Subscribe(event.AuctionReceived{}, ebus.Typed(auctioneer.HandleAuction)).
		Subscribe(event.ContributionRequested{}, ebus.Typed(matcher.HandleContribution)).
		Subscribe(event.ImpactEstimated{}, ebus.Typed(web.PublishImpact)).
		Subscribe(event.ImpactFailed{}, ebus.Typed(web.PublishImpactFailed)).
		Subscribe(event.BalancesUpdated{}, ebus.Typed(web.UpdateBalances)).
		Subscribe(event.PricesUpdated{}, ebus.Typed(web.UpdatePrices))

	a := app.NewApp(log).
		WithService(tracker).
		WithService(watch).
		WithService(consumer).
		WithService(web).
		WithService(interrupter.Interrupter{})
	if cfg.Simulate {
		a.WithService(simulator.NewSimulator(snapshotRepo, "ETHx", "0xa11ce", "0xb0b", "0xca201").Every(cfg.Frames.State))
	}

	return a.Run(ctx)
}
