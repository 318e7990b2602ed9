// Command jobpool-demo runs a synthetic workload through the pool and
// serves pool statistics over HTTP. It exists to exercise the engine
// end to end; real hosts embed the pool in their own tick loop.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tickforge/jobpool"
	"github.com/tickforge/jobpool/config"
	"github.com/tickforge/jobpool/core"
	"github.com/tickforge/jobpool/metrics"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address for /stats and /metrics")
	rate := flag.Duration("rate", 50*time.Millisecond, "interval between synthetic job submissions")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error:", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	recorder := metrics.NewRecorder()
	options := append(cfg.PoolOptions(), core.WithObserver(recorder.Observe))

	pool, err := jobpool.Init(context.Background(), options...)
	if err != nil {
		log.Fatal("Error:", err)
	}
	defer jobpool.Shutdown(cfg.ShutdownTimeout)

	registry := prometheus.NewRegistry()
	registry.MustRegister(metrics.NewCollector(pool), recorder)

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	router.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(pool.Stats()); err != nil {
			slog.Error("encoding stats", "error", err)
		}
	})

	go func() {
		if err := http.ListenAndServe(*addr, router); err != nil {
			slog.Error("http server", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go submitLoop(ctx, pool, *rate)

	slog.Info("demo running", "addr", *addr, "workers", cfg.Workers)
	jobpool.RunDrainLoop(ctx, pool, 16*time.Millisecond, cfg.DrainBatch)
	slog.Info("demo exiting")
}

// submitLoop feeds the pool a mix of job shapes until ctx is done.
func submitLoop(ctx context.Context, pool *core.Pool, rate time.Duration) {
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var err error
		switch rand.Intn(3) {
		case 0:
			_, err = core.Submit(pool, sumJob(rand.Intn(1000)),
				func(int) {}, logFailure)
		case 1:
			_, err = core.SubmitAsync(pool, delayedJob(rate/2),
				func(time.Time) {}, logFailure)
		default:
			_, err = core.SubmitStream(pool, countdownJob(rand.Intn(5)+1),
				func(int) {}, func() {}, logFailure)
		}
		if err != nil {
			slog.Warn("submission rejected", "error", err)
		}
	}
}

func logFailure(err error) {
	slog.Error("job failed", "error", err)
}

func sumJob(n int) core.Job[int] {
	return func(ctx context.Context) (int, error) {
		total := 0
		for i := 0; i <= n; i++ {
			total += i
		}
		return total, nil
	}
}

func delayedJob(d time.Duration) core.AsyncJob[time.Time] {
	return func(ctx context.Context) <-chan core.Result[time.Time] {
		ch := make(chan core.Result[time.Time], 1)
		go func() {
			select {
			case <-time.After(d):
				ch <- core.Result[time.Time]{Value: time.Now()}
			case <-ctx.Done():
				ch <- core.Result[time.Time]{Err: ctx.Err()}
			}
		}()
		return ch
	}
}

func countdownJob(from int) core.StreamJob[int] {
	return func(ctx context.Context, emit func(int)) error {
		for i := from; i > 0; i-- {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			emit(i)
		}
		return nil
	}
}
