package cli

import (
	"context"
	"fmt"
	"io"

	"airbnb-cleaner/config"
	"airbnb-cleaner/services"
	"airbnb-cleaner/storage"
	"airbnb-cleaner/telemetry"
	"airbnb-cleaner/utils"
)

// Run wires config, logger, registry, artifact store, tracker and metrics
// into a cleaning Job and executes it. The clean-data report is printed to out.
func Run(ctx context.Context, opts Options, out io.Writer) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	logger := utils.NewLoggerWith(utils.LoggerOptions{
		Level: cfg.Log.Level,
		JSON:  cfg.Log.JSON,
		Color: cfg.Log.Color,
	})

	logger.Info("=== basic_cleaning starting ===")
	logger.Info("Config: artifacts=%s | registry=%s | price=[%g, %g]",
		cfg.Artifacts.Root, cfg.Registry.Dialect, opts.Params.MinPrice, opts.Params.MaxPrice)

	reg, err := storage.OpenRegistry(ctx, cfg.Registry.Dialect, cfg.Registry.DSN)
	if err != nil {
		return err
	}
	defer reg.Close()

	store, err := storage.NewFileStore(cfg.Artifacts.Root, reg, logger)
	if err != nil {
		return err
	}

	job := services.NewJob(store, storage.NewTracker(reg, logger), telemetry.NewMetrics(), logger)
	job.Project = cfg.Tracking.Project
	job.Group = cfg.Tracking.Group
	job.PushgatewayURL = cfg.Metrics.PushgatewayURL

	res, err := job.Run(ctx, opts.Params)
	if err != nil {
		return fmt.Errorf("basic_cleaning: %w", err)
	}

	services.NewInsightService(logger).Print(out, res.Report)
	fmt.Fprintf(out, "  Done. %s -> %s (%s)\n\n", res.Input.Ref(), res.Output.Ref(), res.Output.Path)
	return nil
}
