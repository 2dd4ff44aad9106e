package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"airbnb-cleaner/models"
	"airbnb-cleaner/utils"
)

// ArtifactNotFoundError reports a reference that does not resolve to a stored
// artifact version.
type ArtifactNotFoundError struct {
	Ref string
}

func (e *ArtifactNotFoundError) Error() string {
	return fmt.Sprintf("artifact %q not found", e.Ref)
}

// ParseRef splits "name", "name:latest" or "name:vN". Version 0 means latest.
func ParseRef(ref string) (name string, version int, err error) {
	name, alias, hasAlias := strings.Cut(strings.TrimSpace(ref), ":")
	if name == "" {
		return "", 0, &ArtifactNotFoundError{Ref: ref}
	}
	if !hasAlias || alias == "latest" {
		return name, 0, nil
	}
	n, convErr := strconv.Atoi(strings.TrimPrefix(alias, "v"))
	if !strings.HasPrefix(alias, "v") || convErr != nil || n < 1 {
		return "", 0, &ArtifactNotFoundError{Ref: ref}
	}
	return name, n, nil
}

// FileStore keeps artifact blobs under a root directory and their metadata in
// the registry. Blobs live at <root>/<name>/v<N>/<file>.
type FileStore struct {
	root   string
	reg    *Registry
	logger *utils.Logger
	now    func() time.Time
}

// NewFileStore creates a store rooted at root, creating the directory if needed.
func NewFileStore(root string, reg *Registry, logger *utils.Logger) (*FileStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("store: create root %q: %w", root, err)
	}
	return &FileStore{root: root, reg: reg, logger: logger, now: time.Now}, nil
}

func (s *FileStore) blobPath(a *models.Artifact) string {
	return filepath.Join(s.root, a.Name, "v"+strconv.Itoa(a.Version), a.FileName)
}

// Resolve returns the artifact ref points to, with Path set to a readable
// local file.
func (s *FileStore) Resolve(ctx context.Context, ref string) (*models.Artifact, error) {
	name, version, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}

	a, err := s.reg.findArtifact(ctx, name, version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ArtifactNotFoundError{Ref: ref}
	}
	if err != nil {
		return nil, err
	}

	a.Path = s.blobPath(a)
	if _, err := os.Stat(a.Path); err != nil {
		s.logger.Warn("[store] %s is registered but its file is missing: %v", a.Ref(), err)
		return nil, &ArtifactNotFoundError{Ref: ref}
	}
	s.logger.Debug("[store] Resolved %s → %s", ref, a.Path)
	return a, nil
}

// Publish copies localPath into the store as the next version of name.
func (s *FileStore) Publish(ctx context.Context, localPath, name, artifactType, description string) (*models.Artifact, error) {
	if name == "" || strings.ContainsAny(name, ":/\\") {
		return nil, fmt.Errorf("store: invalid artifact name %q", name)
	}
	if artifactType == "" {
		return nil, fmt.Errorf("store: artifact type is required")
	}

	src, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", localPath, err)
	}
	defer src.Close()

	tx, err := s.reg.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	version, err := s.reg.nextVersion(ctx, tx, name)
	if err != nil {
		return nil, err
	}

	a := &models.Artifact{
		ID:          uuid.NewString(),
		Name:        name,
		Version:     version,
		Type:        artifactType,
		Description: description,
		FileName:    filepath.Base(localPath),
		CreatedAt:   s.now().UTC(),
	}
	a.Path = s.blobPath(a)

	size, digest, err := copyBlob(src, a.Path)
	if err != nil {
		return nil, err
	}
	a.Size, a.Digest = size, digest

	if err := s.reg.insertArtifact(ctx, tx, a); err != nil {
		_ = os.RemoveAll(filepath.Dir(a.Path))
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		_ = os.RemoveAll(filepath.Dir(a.Path))
		return nil, fmt.Errorf("store: commit %s: %w", a.Ref(), err)
	}

	s.logger.Info("[store] Published %s (%s, %d bytes, %s)", a.Ref(), a.Type, a.Size, a.Digest)
	return a, nil
}

// List returns every version of name, oldest first.
func (s *FileStore) List(ctx context.Context, name string) ([]*models.Artifact, error) {
	arts, err := s.reg.listArtifacts(ctx, name)
	if err != nil {
		return nil, err
	}
	for _, a := range arts {
		a.Path = s.blobPath(a)
	}
	return arts, nil
}

// copyBlob writes src to dst via a temp file and returns size and digest.
func copyBlob(src io.Reader, dst string) (int64, string, error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, "", fmt.Errorf("store: create blob dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".blob-*")
	if err != nil {
		return 0, "", fmt.Errorf("store: create temp blob: %w", err)
	}
	defer os.Remove(tmp.Name())

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), src)
	if err != nil {
		_ = tmp.Close()
		return 0, "", fmt.Errorf("store: copy blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, "", fmt.Errorf("store: close blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return 0, "", fmt.Errorf("store: place blob: %w", err)
	}
	return n, "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}
