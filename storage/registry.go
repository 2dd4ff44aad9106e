package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"airbnb-cleaner/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var gooseMu sync.Mutex

// Supported registry dialects.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const timeLayout = time.RFC3339Nano

// Registry is the SQL catalogue behind the artifact store and run tracker.
type Registry struct {
	db      *sql.DB
	dialect string
	sb      squirrel.StatementBuilderType
}

// OpenRegistry connects to the registry database and applies the schema.
func OpenRegistry(ctx context.Context, dialect, dsn string) (*Registry, error) {
	var (
		driver      string
		placeholder squirrel.PlaceholderFormat
	)
	switch dialect {
	case DialectPostgres:
		driver, placeholder = "postgres", squirrel.Dollar
	case DialectSQLite:
		driver, placeholder = "sqlite", squirrel.Question
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("registry: unsupported dialect %q", dialect)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("registry: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("registry: ping: %w", err)
	}

	r := &Registry{
		db:      db,
		dialect: dialect,
		sb:      squirrel.StatementBuilder.PlaceholderFormat(placeholder),
	}
	if err := r.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("registry: migrate: %w", err)
	}
	return r, nil
}

func (r *Registry) migrate(ctx context.Context) error {
	gooseDialect := "postgres"
	if r.dialect == DialectSQLite {
		gooseDialect = "sqlite3"
	}

	gooseMu.Lock()
	defer func() {
		goose.SetBaseFS(nil)
		gooseMu.Unlock()
	}()
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(gooseDialect); err != nil {
		return err
	}
	return goose.UpContext(ctx, r.db, "migrations")
}

// ensureDir creates the parent directory of a file-backed sqlite DSN.
func ensureDir(dsn string) error {
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
		return fmt.Errorf("registry: create dir for %q: %w", dsn, err)
	}
	return nil
}

// Close releases the database handle.
func (r *Registry) Close() error {
	return r.db.Close()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

var artifactColumns = []string{
	"id", "name", "version", "type", "description", "file_name", "digest", "size_bytes", "created_at",
}

func scanArtifact(row rowScanner) (*models.Artifact, error) {
	a := &models.Artifact{}
	var created string
	if err := row.Scan(&a.ID, &a.Name, &a.Version, &a.Type, &a.Description,
		&a.FileName, &a.Digest, &a.Size, &created); err != nil {
		return nil, err
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return nil, fmt.Errorf("registry: bad created_at %q: %w", created, err)
	}
	a.CreatedAt = t
	return a, nil
}

// nextVersion returns the version the next artifact named name will get.
func (r *Registry) nextVersion(ctx context.Context, q queryer, name string) (int, error) {
	query, args, err := r.sb.Select("COALESCE(MAX(version), 0)").
		From("artifacts").
		Where(squirrel.Eq{"name": name}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("registry: building version query: %w", err)
	}
	var current int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&current); err != nil {
		return 0, fmt.Errorf("registry: query version of %q: %w", name, err)
	}
	return current + 1, nil
}

func (r *Registry) insertArtifact(ctx context.Context, q queryer, a *models.Artifact) error {
	query, args, err := r.sb.Insert("artifacts").
		Columns(artifactColumns...).
		Values(a.ID, a.Name, a.Version, a.Type, a.Description, a.FileName, a.Digest, a.Size,
			a.CreatedAt.UTC().Format(timeLayout)).
		ToSql()
	if err != nil {
		return fmt.Errorf("registry: building insert query: %w", err)
	}
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("registry: insert artifact %s: %w", a.Ref(), err)
	}
	return nil
}

// findArtifact looks up name at version, or its newest version when version
// is 0. It returns sql.ErrNoRows when nothing matches.
func (r *Registry) findArtifact(ctx context.Context, name string, version int) (*models.Artifact, error) {
	b := r.sb.Select(artifactColumns...).
		From("artifacts").
		Where(squirrel.Eq{"name": name})
	if version > 0 {
		b = b.Where(squirrel.Eq{"version": version})
	} else {
		b = b.OrderBy("version DESC").Limit(1)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("registry: building select query: %w", err)
	}
	a, err := scanArtifact(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("registry: fetch artifact %q: %w", name, err)
	}
	return a, nil
}

func (r *Registry) listArtifacts(ctx context.Context, name string) ([]*models.Artifact, error) {
	query, args, err := r.sb.Select(artifactColumns...).
		From("artifacts").
		Where(squirrel.Eq{"name": name}).
		OrderBy("version").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("registry: building list query: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("registry: list artifacts %q: %w", name, err)
	}
	defer rows.Close()

	var out []*models.Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("registry: scan artifact: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
