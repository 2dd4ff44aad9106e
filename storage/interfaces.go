package storage

import (
	"context"

	"airbnb-cleaner/models"
)

// ArtifactStore resolves and publishes versioned dataset artifacts.
type ArtifactStore interface {
	Resolve(ctx context.Context, ref string) (*models.Artifact, error)
	Publish(ctx context.Context, localPath, name, artifactType, description string) (*models.Artifact, error)
}

// RunTracker records provenance for one job invocation.
type RunTracker interface {
	Start(ctx context.Context, jobType, project, group string, config map[string]any) (*models.Run, error)
	UseArtifact(ctx context.Context, run *models.Run, a *models.Artifact) error
	LogArtifact(ctx context.Context, run *models.Run, a *models.Artifact) error
	Finish(ctx context.Context, run *models.Run, runErr error) error
}

var (
	_ ArtifactStore = (*FileStore)(nil)
	_ RunTracker    = (*Tracker)(nil)
)
