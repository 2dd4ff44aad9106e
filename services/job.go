package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"airbnb-cleaner/dataset"
	"airbnb-cleaner/models"
	"airbnb-cleaner/storage"
	"airbnb-cleaner/telemetry"
	"airbnb-cleaner/utils"
)

// JobType names the cleaning step in run records and metrics.
const JobType = "basic_cleaning"

// DefaultOutputFileName is the file name the cleaned dataset is published under.
const DefaultOutputFileName = "clean_sample.csv"

// Params are the inputs of one cleaning run.
type Params struct {
	InputArtifact     string
	OutputArtifact    string
	OutputType        string
	OutputDescription string
	MinPrice          float64
	MaxPrice          float64

	// WorkDir receives the cleaned file before it is published. A fresh
	// temporary directory is used when empty.
	WorkDir        string
	OutputFileName string
}

func (p Params) config() map[string]any {
	return map[string]any{
		"input_artifact":     p.InputArtifact,
		"output_artifact":    p.OutputArtifact,
		"output_type":        p.OutputType,
		"output_description": p.OutputDescription,
		"min_price":          p.MinPrice,
		"max_price":          p.MaxPrice,
	}
}

// Result describes a successful run.
type Result struct {
	Run    *models.Run
	Input  *models.Artifact
	Output *models.Artifact
	Stats  Stats
	Report *models.InsightReport
}

// Job wraps the cleaning transform with artifact resolution, publishing and
// provenance tracking.
type Job struct {
	store    storage.ArtifactStore
	tracker  storage.RunTracker
	cleaner  *Cleaner
	insights *InsightService
	metrics  *telemetry.Metrics
	logger   *utils.Logger

	Project        string
	Group          string
	PushgatewayURL string
}

// NewJob creates a Job. metrics may be nil.
func NewJob(store storage.ArtifactStore, tracker storage.RunTracker, metrics *telemetry.Metrics, logger *utils.Logger) *Job {
	return &Job{
		store:    store,
		tracker:  tracker,
		cleaner:  NewCleaner(logger),
		insights: NewInsightService(logger),
		metrics:  metrics,
		logger:   logger,
	}
}

// Run executes one cleaning run. The output artifact is published only after
// the full transform and file write succeeded; on any failure the run is
// recorded as failed and the error is returned as is.
func (j *Job) Run(ctx context.Context, p Params) (res *Result, err error) {
	started := time.Now()

	run, err := j.tracker.Start(ctx, JobType, j.Project, j.Group, p.config())
	if err != nil {
		return nil, err
	}
	defer func() {
		// The outcome is recorded even when ctx was cancelled mid-run.
		if ferr := j.tracker.Finish(context.WithoutCancel(ctx), run, err); ferr != nil {
			j.logger.Error("[job] Could not record run outcome: %v", ferr)
		}
		if j.metrics != nil {
			j.metrics.ObserveDuration(time.Since(started))
			if perr := j.metrics.Push(j.PushgatewayURL, JobType, run.ID); perr != nil {
				j.logger.Warn("[job] Metrics push failed: %v", perr)
			}
		}
	}()

	res = &Result{Run: run}

	res.Input, err = j.store.Resolve(ctx, p.InputArtifact)
	if err != nil {
		return nil, err
	}
	if err = j.tracker.UseArtifact(ctx, run, res.Input); err != nil {
		return nil, err
	}
	j.logger.Info("[job] Using %s (%s)", res.Input.Ref(), res.Input.Path)

	raw, err := dataset.ReadFile(res.Input.Path)
	if err != nil {
		return nil, err
	}

	clean, stats, err := j.cleaner.Clean(raw, Bounds{MinPrice: p.MinPrice, MaxPrice: p.MaxPrice})
	if err != nil {
		return nil, err
	}
	res.Stats = stats
	if j.metrics != nil {
		j.metrics.ObserveRows(stats.InputRows, stats.OutputRows, stats.DroppedPrice, stats.DroppedGeo, stats.InvalidDates)
	}

	outPath, cleanup, err := j.outputPath(p)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if err = clean.WriteFile(outPath); err != nil {
		return nil, err
	}

	res.Output, err = j.store.Publish(ctx, outPath, p.OutputArtifact, p.OutputType, p.OutputDescription)
	if err != nil {
		return nil, err
	}
	if err = j.tracker.LogArtifact(ctx, run, res.Output); err != nil {
		return nil, err
	}

	res.Report = j.insights.Generate(clean.Listings())
	j.insights.Log(res.Report)

	j.logger.Info("[job] Published %s: %d of %d rows kept", res.Output.Ref(), stats.OutputRows, stats.InputRows)
	return res, nil
}

// outputPath returns where the cleaned file is written and a cleanup func
// that removes any temporary directory created for it.
func (j *Job) outputPath(p Params) (string, func(), error) {
	name := p.OutputFileName
	if name == "" {
		name = DefaultOutputFileName
	}

	if p.WorkDir != "" {
		if err := os.MkdirAll(p.WorkDir, 0755); err != nil {
			return "", nil, fmt.Errorf("job: create work dir: %w", err)
		}
		return filepath.Join(p.WorkDir, name), func() {}, nil
	}

	dir, err := os.MkdirTemp("", "basic-cleaning-*")
	if err != nil {
		return "", nil, fmt.Errorf("job: create temp dir: %w", err)
	}
	return filepath.Join(dir, name), func() { _ = os.RemoveAll(dir) }, nil
}
