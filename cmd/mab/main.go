package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thalesfsp/mab"
	"github.com/thalesfsp/mab/dataset"
	"github.com/thalesfsp/mab/lab"
	"go.uber.org/zap"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to the YAML config (default $MAB_CONFIG or mab.yaml)")
		dataDir     = flag.String("data", "", "Dataset directory, overrides data.dir")
		workers     = flag.Int("workers", 0, "Worker pool size, overrides workers")
		budget      = flag.Int("budget", -1, "Pulls per dataset, overrides budget")
		policy      = flag.String("policy", "", "Policy: ucb, epsilon-greedy, softmax, proposed")
		outDir      = flag.String("out", "", "Artifact directory, overrides output")
		metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
		groundTruth = flag.Int("ground-truth", -1, "Random-search pulls per model for the ground truth, 0 disables")
	)
	flag.Parse()

	config, err := lab.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *dataDir != "" {
		config.Data.Dir = *dataDir
	}

	if *workers > 0 {
		config.Workers = *workers
	}

	if *budget >= 0 {
		config.Budget = *budget
	}

	if *policy != "" {
		config.Policy.Type = mab.PolicyType(strings.ToLower(*policy))
	}

	if *outDir != "" {
		config.Output = *outDir
	}

	if *groundTruth >= 0 {
		config.GroundTruthBudget = *groundTruth
	}

	if err := config.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger, err := lab.NewLogger(config.LogLevel, config.LogFormat)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	metrics := mab.NewMetrics(registry)

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr, registry, logger)
	}

	datasets, err := dataset.All(config.Data.Dir, config.Data.Header, config.Data.Include, config.Data.Exclude)
	if err != nil {
		logger.Fatal("Failed to load datasets", zap.Error(err))
	}

	if len(datasets) == 0 {
		logger.Warn("No datasets found", zap.String("dir", config.Data.Dir))
		return
	}

	logger.Info("Experiment starting",
		zap.String("name", config.Name),
		zap.String("policy", string(config.Policy.Type)),
		zap.Int("datasets", len(datasets)),
		zap.Int("budget", config.Budget),
		zap.Int("workers", config.Workers),
	)

	runner := lab.NewRunner(config, logger, metrics)

	if config.GroundTruthBudget > 0 {
		truths, err := runner.GroundTruth(ctx, datasets)
		if err != nil {
			logger.Fatal("Ground truth failed", zap.Error(err))
		}

		if config.Output != "" {
			if err := writeTruths(config.Output, truths); err != nil {
				logger.Fatal("Failed to write ground truth", zap.Error(err))
			}
		}
	}

	start := time.Now()

	reports, err := runner.Run(ctx, datasets)
	if err != nil {
		logger.Fatal("Experiment failed", zap.Error(err))
	}

	if err := lab.RenderSummary(os.Stdout, reports); err != nil {
		logger.Error("Failed to render summary", zap.Error(err))
	}

	logger.Info("Experiment done", zap.Duration("elapsed", time.Since(start)))
}

func serveMetrics(addr string, registry *prometheus.Registry, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	logger.Info("Metrics server listening", zap.String("addr", addr))

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("Metrics server exited", zap.Error(err))
	}
}

func writeTruths(dir string, truths []lab.Truth) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(dir, "ground_truth.json"))
	if err != nil {
		return err
	}
	defer f.Close()

	return lab.WriteJSON(f, truths)
}
