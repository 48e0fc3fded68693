package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"github.com/Krishna8167/sizecache"
	"github.com/prometheus/client_golang/prometheus"
)

// Panel is the kind of value a dashboard caches: a rendered metric panel.
type Panel struct {
	Name      string    `json:"name"`
	Values    []float64 `json:"values"`
	UpdatedAt time.Time `json:"updated_at"`
}

func main() {
	configPath := flag.String("config", "", "path to a YAML cache config (defaults are used when empty)")
	workers := flag.Int("workers", 8, "number of concurrent collaborators")
	ops := flag.Int("ops", 1000, "lookups per collaborator")
	panels := flag.Int("panels", 200, "distinct panel keys")
	flag.Parse()

	cfg := sizecache.DefaultConfig()
	if *configPath != "" {
		loaded, err := sizecache.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	opts, err := cfg.Options()
	if err != nil {
		logger.Error("invalid cache config", "error", err)
		os.Exit(1)
	}
	opts = append(opts, sizecache.WithLogger(logger))

	cache, err := sizecache.New[Panel](opts...)
	if err != nil {
		logger.Error("failed to create cache", "error", err)
		os.Exit(1)
	}
	defer cache.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(sizecache.NewCollector("dashboard", cache, prometheus.Labels{"cache": "panels"}))

	logger.Info("cache ready",
		"capacity_bytes", cache.Capacity(),
		"policy", string(cache.Policy()),
		"compression", cfg.Compression.Enabled,
	)

	start := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runCollaborator(cache, id, *ops, *panels)
		}(w)
	}
	wg.Wait()

	stats := cache.Stats()
	logger.Info("run finished",
		"duration", time.Since(start),
		"hits", stats.Hits,
		"misses", stats.Misses,
		"evictions", stats.Evictions,
		"expirations", stats.Expirations,
		"hit_ratio", fmt.Sprintf("%.2f", stats.HitRatio()),
		"entries", cache.Len(),
		"size_bytes", cache.SizeBytes(),
	)

	families, err := registry.Gather()
	if err != nil {
		logger.Error("failed to gather metrics", "error", err)
		os.Exit(1)
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			value := m.GetGauge().GetValue()
			if c := m.GetCounter(); c != nil {
				value = c.GetValue()
			}
			logger.Debug("metric", "name", mf.GetName(), "value", value)
		}
	}
}

// runCollaborator plays a dashboard tab: look a panel up, render it on a
// miss. Hot panels are picked more often so the eviction policy matters.
func runCollaborator(cache *sizecache.Cache[Panel], id, ops, panels int) {
	rng := rand.New(rand.NewPCG(uint64(id), uint64(id)*31+7))
	ctx := context.Background()

	for i := 0; i < ops; i++ {
		n := rng.IntN(panels)
		if rng.IntN(4) != 0 {
			n = rng.IntN(max(panels/10, 1))
		}
		key := fmt.Sprintf("panel:%d", n)

		_, err := cache.GetOrLoad(ctx, key, 30*time.Second, func(context.Context) (Panel, error) {
			return renderPanel(key, rng), nil
		})
		if err != nil {
			slog.Warn("panel lookup failed", "key", key, "error", err)
		}
	}
}

func renderPanel(name string, rng *rand.Rand) Panel {
	values := make([]float64, 32)
	for i := range values {
		values[i] = rng.Float64() * 100
	}
	return Panel{Name: name, Values: values, UpdatedAt: time.Now()}
}
