package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"studygate/adapters/baseline"
	"studygate/adapters/excel"
	"studygate/adapters/rng"
	"studygate/domain/core"
	"studygate/internal"
	"studygate/internal/analysis"
	"studygate/internal/config"
	"studygate/internal/ledger"
	"studygate/internal/metrics"
	"studygate/internal/testkit"
	"studygate/internal/validator"
)

func newSimulateCmd(configPath *string) *cobra.Command {
	study := testkit.DefaultStudyConfig()
	var serve bool

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Stream a synthetic loan study through validation and analysis",
		Long: `Generate a synthetic loan-simulation study, screen every observation,
then run one analysis checkpoint over the accepted data and print the
recommendation.

Example: studygate simulate --subjects 60 --effect 0.4 --seed 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cfg.Metrics.Enabled {
				if err := metrics.Register(prometheus.DefaultRegisterer, cfg.Metrics.Namespace); err != nil {
					return err
				}
			}
			if err := runSimulation(ctx, cfg, logger, study); err != nil {
				return err
			}
			if serve && cfg.Metrics.Enabled {
				return serveMetrics(ctx, cfg.Metrics.Address, logger)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&study.Subjects, "subjects", study.Subjects, "Number of subjects, split evenly between arms")
	cmd.Flags().IntVar(&study.EventsPerSubject, "events", study.EventsPerSubject, "Observations per subject")
	cmd.Flags().Float64Var(&study.Effect, "effect", study.Effect, "Treatment shift in baseline standard deviations")
	cmd.Flags().Float64Var(&study.CorruptionRate, "corruption", study.CorruptionRate, "Fraction of observations damaged on purpose")
	cmd.Flags().Int64Var(&study.Seed, "seed", study.Seed, "Seed for study generation")
	cmd.Flags().BoolVar(&serve, "serve", false, "Keep serving /metrics after the run until interrupted")

	return cmd
}

func runSimulation(ctx context.Context, cfg *config.Config, logger *internal.Logger, study testkit.StudyConfig) error {
	baselines, err := loadBaselines(cfg, logger)
	if err != nil {
		return err
	}

	study.Now = time.Now().UTC()
	gen := testkit.NewStudyGenerator(study, baselines)
	events, err := gen.Generate()
	if err != nil {
		return err
	}

	flags := ledger.NewEmergencyFlags()
	v := validator.New(baselines,
		ledger.NewHistory(cfg.Validation.HistoryCapacity),
		flags,
		validator.WithConfig(cfg.Validation),
		validator.WithClock(core.FixedClock(gen.Now())),
		validator.WithLogger(logger),
		validator.WithMetrics(cfg.Metrics.Enabled),
	)
	items := make([]validator.Item, len(events))
	for i, e := range events {
		items[i] = validator.Item{Observation: e.Observation, Context: e.Context}
	}
	results, err := v.ValidateBatch(ctx, items)
	if err != nil {
		return err
	}

	snap := v.Snapshot()
	logger.Info("validated %d observations: avg score %.2f, %d quarantined (%.1f%%), %d subjects flagged",
		snap.TotalValidations, snap.AverageScore, snap.Quarantined, snap.QuarantineRate*100, snap.EmergencyFlags)
	for _, subject := range flags.Subjects() {
		logger.Warn("subject %s escalated: %v", subject, flags.Reasons(subject))
	}

	sample := testkit.Sample(events, results, baselines)
	analyzer := analysis.New(cfg.Analysis, cfg.Quality,
		analysis.WithRNG(rng.FromSeed(cfg.Analysis.BootstrapSeed)),
		analysis.WithLogger(logger),
		analysis.WithMetrics(cfg.Metrics.Enabled),
	)
	res, err := analyzer.Analyze(ctx, sample)
	if err != nil {
		var pe *analysis.PreconditionError
		if errors.As(err, &pe) {
			logger.Error("analysis not run (%s): %v", pe.Stage, pe.Err)
		}
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, res.Interpretation)
	return nil
}

func loadBaselines(cfg *config.Config, logger *internal.Logger) (*baseline.Live, error) {
	live := baseline.NewLive(baseline.DefaultStore())
	if cfg.Baseline.WorkbookPath == "" {
		return live, nil
	}
	overrides, err := excel.NewBaselineReader(cfg.Baseline.WorkbookPath, cfg.Baseline.Sheet, logger).Read()
	if err != nil {
		return nil, err
	}
	if err := live.Recalibrate(overrides); err != nil {
		return nil, err
	}
	logger.Info("recalibrated %d baselines from %s", len(overrides), cfg.Baseline.WorkbookPath)
	return live, nil
}

func serveMetrics(ctx context.Context, addr string, logger *internal.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
