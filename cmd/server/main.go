package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"slotkeeper/internal/chain"
	"slotkeeper/internal/events"
	"slotkeeper/internal/platform/config"
	"slotkeeper/internal/platform/httpserver"
	"slotkeeper/internal/platform/logger"
	"slotkeeper/internal/platform/postgres"
	redisclient "slotkeeper/internal/platform/redis"
	"slotkeeper/internal/registry/handler"
	"slotkeeper/internal/registry/metrics"
	"slotkeeper/internal/registry/ports"
	"slotkeeper/internal/registry/service"
	"slotkeeper/internal/registry/store/counters"
	"slotkeeper/internal/registry/store/ledger"
	"slotkeeper/internal/registry/store/params"
	"slotkeeper/internal/registry/store/slots"
	"slotkeeper/internal/token"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Admission logic lives in internal/registry.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	var slotStore ports.SlotStore
	pool, err := postgres.New(ctx, cfg.PostgresURL)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
		pg := slots.NewPostgresSlotStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			return err
		}
		slotStore = pg
		log.Info("using postgres slot store")
	} else {
		slotStore = slots.NewInMemorySlotStore()
		log.Info("using in-memory slot store")
	}

	var counterStore ports.CounterStore
	rdb, err := redisclient.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		counterStore = counters.NewRedisCounterStore(rdb)
		log.Info("using redis counter store")
	} else {
		counterStore = counters.NewInMemoryCounterStore()
	}

	var publisher ports.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer kp.Close()
		publisher = kp
		log.Info("publishing registration events to kafka", "topic", cfg.KafkaTopic)
	} else {
		publisher = events.NewMemoryPublisher()
	}

	paramsStore := params.NewInMemoryParamsStore()
	ledgerStore := ledger.NewInMemoryLedger()
	clock := chain.NewClock(cfg.BlockTime)

	m := metrics.New()
	svc, err := service.New(slotStore, paramsStore, counterStore, ledgerStore, clock,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithEventPublisher(publisher),
	)
	if err != nil {
		return err
	}

	tokens := token.NewService(cfg.JWTSigningKey, "slotkeeper")
	h := handler.New(svc, slotStore, paramsStore, counterStore, tokens, cfg.AdminToken, log)

	router := chi.NewRouter()
	h.Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := httpserver.New(cfg.Addr, router)
	worker := chain.NewWorker(clock, counterStore, cfg.BlockTime/4, cfg.IntervalBlocks, log)

	log.Info("starting slotkeeper", "addr", cfg.Addr, "block_time", cfg.BlockTime)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
