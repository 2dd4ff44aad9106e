package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"airbnb-cleaner/models"
	"airbnb-cleaner/utils"
)

// Lineage directions recorded for a run.
const (
	DirectionInput  = "input"
	DirectionOutput = "output"
)

// Tracker records runs, their configuration and the artifacts they use and
// produce.
type Tracker struct {
	reg    *Registry
	logger *utils.Logger
	now    func() time.Time
}

// NewTracker creates a Tracker on top of reg.
func NewTracker(reg *Registry, logger *utils.Logger) *Tracker {
	return &Tracker{reg: reg, logger: logger, now: time.Now}
}

// Start registers a new running run.
func (t *Tracker) Start(ctx context.Context, jobType, project, group string, config map[string]any) (*models.Run, error) {
	cfgJSON, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("tracker: encode config: %w", err)
	}

	run := &models.Run{
		ID:        uuid.NewString(),
		JobType:   jobType,
		Project:   project,
		Group:     group,
		Config:    config,
		Status:    models.RunRunning,
		StartedAt: t.now().UTC(),
	}

	query, args, err := t.reg.sb.Insert("runs").
		Columns("id", "job_type", "project", "run_group", "config", "status", "started_at").
		Values(run.ID, run.JobType, run.Project, run.Group, string(cfgJSON), run.Status,
			run.StartedAt.Format(timeLayout)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("tracker: building insert query: %w", err)
	}
	if _, err := t.reg.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("tracker: insert run: %w", err)
	}

	t.logger.Info("[tracker] Started run %s (%s, project=%s group=%s)", run.ID, jobType, project, group)
	return run, nil
}

// UseArtifact records that run consumed a.
func (t *Tracker) UseArtifact(ctx context.Context, run *models.Run, a *models.Artifact) error {
	return t.link(ctx, run, a, DirectionInput)
}

// LogArtifact records that run produced a.
func (t *Tracker) LogArtifact(ctx context.Context, run *models.Run, a *models.Artifact) error {
	return t.link(ctx, run, a, DirectionOutput)
}

func (t *Tracker) link(ctx context.Context, run *models.Run, a *models.Artifact, direction string) error {
	query, args, err := t.reg.sb.Insert("run_artifacts").
		Columns("run_id", "artifact_id", "direction").
		Values(run.ID, a.ID, direction).
		ToSql()
	if err != nil {
		return fmt.Errorf("tracker: building link query: %w", err)
	}
	if _, err := t.reg.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("tracker: link %s artifact %s: %w", direction, a.Ref(), err)
	}
	t.logger.Debug("[tracker] Run %s %s %s", run.ID, direction, a.Ref())
	return nil
}

// Finish closes the run as finished, or failed when runErr is not nil.
func (t *Tracker) Finish(ctx context.Context, run *models.Run, runErr error) error {
	finished := t.now().UTC()
	run.FinishedAt = &finished
	run.Status = models.RunFinished
	if runErr != nil {
		run.Status = models.RunFailed
		run.Error = runErr.Error()
	}

	query, args, err := t.reg.sb.Update("runs").
		Set("status", run.Status).
		Set("error", run.Error).
		Set("finished_at", finished.Format(timeLayout)).
		Where(squirrel.Eq{"id": run.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("tracker: building update query: %w", err)
	}
	if _, err := t.reg.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("tracker: finish run %s: %w", run.ID, err)
	}

	t.logger.Info("[tracker] Run %s %s in %s", run.ID, run.Status, finished.Sub(run.StartedAt).Round(time.Millisecond))
	return nil
}

// Get loads a run by id.
func (t *Tracker) Get(ctx context.Context, id string) (*models.Run, error) {
	query, args, err := t.reg.sb.Select("id", "job_type", "project", "run_group", "config",
		"status", "error", "started_at", "finished_at").
		From("runs").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("tracker: building select query: %w", err)
	}

	var (
		run      models.Run
		cfgJSON  string
		started  string
		finished sql.NullString
	)
	err = t.reg.db.QueryRowContext(ctx, query, args...).Scan(&run.ID, &run.JobType, &run.Project,
		&run.Group, &cfgJSON, &run.Status, &run.Error, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tracker: run %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("tracker: fetch run %q: %w", id, err)
	}

	if err := json.Unmarshal([]byte(cfgJSON), &run.Config); err != nil {
		return nil, fmt.Errorf("tracker: decode config: %w", err)
	}
	if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return nil, fmt.Errorf("tracker: bad started_at: %w", err)
	}
	if finished.Valid {
		ft, err := time.Parse(timeLayout, finished.String)
		if err != nil {
			return nil, fmt.Errorf("tracker: bad finished_at: %w", err)
		}
		run.FinishedAt = &ft
	}
	return &run, nil
}

// Lineage returns the ids of the artifacts a run used and logged.
func (t *Tracker) Lineage(ctx context.Context, runID string) (inputs, outputs []string, err error) {
	query, args, err := t.reg.sb.Select("artifact_id", "direction").
		From("run_artifacts").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("direction", "artifact_id").
		ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("tracker: building lineage query: %w", err)
	}
	rows, err := t.reg.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("tracker: lineage of %s: %w", runID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, dir string
		if err := rows.Scan(&id, &dir); err != nil {
			return nil, nil, fmt.Errorf("tracker: scan lineage: %w", err)
		}
		if dir == DirectionInput {
			inputs = append(inputs, id)
		} else {
			outputs = append(outputs, id)
		}
	}
	return inputs, outputs, rows.Err()
}
