package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kolkov/simpletm/internal/stm/config"
	"github.com/kolkov/simpletm/internal/stm/engine"
	"github.com/kolkov/simpletm/internal/stm/memory"
	"github.com/kolkov/simpletm/tm"
)

// seed of the value sequence shared by producer and verifier.
const seed = 1

type runOptions struct {
	configPath  string
	duration    time.Duration
	rate        float64
	lowMem      int
	metricsAddr string
}

type runResult struct {
	Produced   int
	Consumed   int
	Dropped    int // producer found the slot still full
	Recovered  int // producer transactions that hit an allocation failure
	Mismatches int
	Stats      engine.Stats
}

func newRunCommand() *cobra.Command {
	var opts runOptions
	m := &cobra.Command{
		Use:   "run",
		Short: "Run the producer/consumer demo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := runDemo(cmd.Context(), opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if res.Mismatches > 0 {
				return errors.Errorf("%d inconsistent value pairs observed", res.Mismatches)
			}
			return nil
		},
	}
	m.Flags().StringVarP(&opts.configPath, "config", "c", "", "TOML configuration file")
	m.Flags().DurationVarP(&opts.duration, "duration", "d", 0, "Stop after this long (default: until interrupted)")
	m.Flags().Float64Var(&opts.rate, "rate", 1, "Transactions per second for each of producer and consumer")
	m.Flags().IntVar(&opts.lowMem, "low-mem", 0, "Fail every n-th allocation to exercise recovery (0 disables)")
	m.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	return m
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.NewDefaultConfig(), nil
	}
	return config.Load(path)
}

func newDemoEngine(cfg *config.Config, lowMem int, lg *zap.Logger) (*engine.Engine, func(), error) {
	if err := cfg.CheckVersion(tm.Version); err != nil {
		return nil, nil, err
	}
	if lowMem <= 0 {
		e, err := engine.New(cfg, engine.WithLogger(lg))
		if err != nil {
			return nil, nil, err
		}
		return e, func() { _ = e.Close() }, nil
	}

	size, err := cfg.ArenaBytes()
	if err != nil {
		return nil, nil, err
	}
	a, err := memory.NewArena(uintptr(cfg.ArenaBase), size)
	if err != nil {
		return nil, nil, err
	}
	e, err := engine.New(cfg,
		engine.WithLogger(lg),
		engine.WithSpace(a),
		engine.WithAllocator(memory.NewLowMemory(memory.NewHeap(a), lowMem)),
	)
	if err != nil {
		_ = a.Close()
		return nil, nil, err
	}
	return e, func() {
		_ = e.Close()
		_ = a.Close()
	}, nil
}

func serveMetrics(addr string, lg *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.Error("metrics server stopped", zap.Error(err))
		}
	}()
	lg.Info("serving metrics", zap.String("addr", addr))
	return srv
}

// nth returns the n-th value (1-based) of the seeded sequence.
func nth(n int32) int32 {
	gen := rand.New(rand.NewSource(seed))
	var v int32
	for i := int32(0); i < n; i++ {
		v = gen.Int31()
	}
	return v
}

func runDemo(ctx context.Context, opts runOptions, out io.Writer) (res runResult, err error) {
	if opts.rate <= 0 {
		return res, errors.Errorf("rate must be positive, got %v", opts.rate)
	}
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return res, err
	}
	lg, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return res, err
	}
	defer func() { _ = lg.Sync() }()

	e, closeEngine, err := newDemoEngine(cfg, opts.lowMem, lg)
	if err != nil {
		return res, err
	}
	defer closeEngine()

	if opts.metricsAddr != "" {
		srv := serveMetrics(opts.metricsAddr, lg)
		defer func() { _ = srv.Close() }()
	}
	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	slot, err := e.Allocator().Allocate(8)
	if err != nil {
		return res, errors.Wrap(err, "allocate shared slot")
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex // guards out
	)
	printf := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(out, format, args...)
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		lim := rate.NewLimiter(rate.Limit(opts.rate), 1)
		gen := rand.New(rand.NewSource(seed))
		var i0 int32
		for lim.Wait(ctx) == nil {
			i0++
			i1 := gen.Int31()
			printf("Storing i0=%d, i1=%d\n", i0, i1)

			stored := false
			err := e.Atomically(func(tx *engine.Tx) error {
				stored = false
				if tx.LoadUintptr(slot) != 0 {
					return nil
				}
				buf := tx.AllocTx(8)
				tx.StoreInt32(buf, i0)
				tx.StoreInt32(buf+4, i1)
				tx.StoreUintptr(slot, buf)
				stored = true
				return nil
			})
			switch {
			case err != nil:
				res.Recovered++
				lg.Warn("producer transaction recovered", zap.Int32("i0", i0), zap.Error(err))
			case stored:
				res.Produced++
			default:
				res.Dropped++
			}
		}
	}()

	go func() {
		defer wg.Done()
		lim := rate.NewLimiter(rate.Limit(opts.rate), 1)
		for lim.Wait(ctx) == nil {
			var i0, i1 int32
			found := false
			err := e.Atomically(func(tx *engine.Tx) error {
				found = false
				buf := tx.LoadUintptr(slot)
				if buf == 0 {
					return nil
				}
				i0, i1 = tx.LoadInt32(buf), tx.LoadInt32(buf+4)
				tx.FreeTx(buf)
				tx.StoreUintptr(slot, 0)
				found = true
				return nil
			})
			if err != nil {
				lg.Error("consumer transaction recovered", zap.Error(err))
				continue
			}
			if !found {
				continue
			}
			res.Consumed++
			if want := nth(i0); want != i1 {
				res.Mismatches++
				printf("Incorrect value pair (%d,%d), should be (%d,%d)\n", i0, i1, i0, want)
			}
			printf("Loaded i0=%d, i1=%d\n", i0, i1)
		}
	}()
	wg.Wait()

	res.Stats = e.Stats()
	size, _ := cfg.ArenaBytes()
	printf("%s transactions committed, %s restarts, %s recoveries (arena %s, %d words)\n",
		humanize.Comma(int64(res.Stats.Commits)),
		humanize.Comma(int64(res.Stats.Restarts)),
		humanize.Comma(int64(res.Stats.Recoveries)),
		humanize.IBytes(uint64(size)),
		e.Directory().Capacity(),
	)
	return res, nil
}
