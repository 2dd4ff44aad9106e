package models

import (
	"fmt"
	"time"
)

// Artifact is one registered, immutable version of a named dataset.
type Artifact struct {
	ID          string
	Name        string
	Version     int
	Type        string
	Description string
	FileName    string
	Digest      string
	Size        int64
	CreatedAt   time.Time

	// Path is the local blob location, filled in by the store.
	Path string
}

// Ref returns the "name:vN" reference of the artifact.
func (a *Artifact) Ref() string {
	return fmt.Sprintf("%s:v%d", a.Name, a.Version)
}

// Run status values.
const (
	RunRunning  = "running"
	RunFinished = "finished"
	RunFailed   = "failed"
)

// Run records one invocation of a job for provenance.
type Run struct {
	ID         string
	JobType    string
	Project    string
	Group      string
	Config     map[string]any
	Status     string
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}
