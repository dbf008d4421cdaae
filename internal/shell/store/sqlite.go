package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/artpar/uniform/internal/core/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// Executor Interface - Shared by DB and Transaction
// =============================================================================

// executor abstracts database operations that can be performed on both
// a database connection and a transaction.
type executor interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to open database", ErrConnectionFailed)
	}
	// One connection: every ":memory:" connection is its own database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateProject(ctx context.Context, project *domain.Project) error {
	return createProject(ctx, s.db, project)
}

func (s *SQLiteStore) GetProjectByName(ctx context.Context, name string) (*domain.Project, error) {
	return getProjectByName(ctx, s.db, name)
}

func (s *SQLiteStore) UpdateProject(ctx context.Context, project *domain.Project) error {
	return updateProject(ctx, s.db, project)
}

func (s *SQLiteStore) DeleteProject(ctx context.Context, name string) error {
	return deleteProject(ctx, s.db, name)
}

func (s *SQLiteStore) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return listProjects(ctx, s.db)
}

func (s *SQLiteStore) GetActiveProject(ctx context.Context) (*domain.Project, error) {
	return getActiveProject(ctx, s.db)
}

// SetActiveProject runs in its own transaction so a missing name leaves
// the previous active project in place.
func (s *SQLiteStore) SetActiveProject(ctx context.Context, name string) error {
	return s.WithTx(ctx, func(tx Store) error {
		return tx.SetActiveProject(ctx, name)
	})
}

// =============================================================================
// Transaction Support
// =============================================================================

func (s *SQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return NewStoreError("WithTx", "", "", "failed to begin transaction", ErrTxFailed)
	}

	txS := &txSQLiteStore{tx: tx}

	if err := fn(txS); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return NewStoreError("WithTx", "", "", fmt.Sprintf("rollback failed after error: %v", err), ErrTxFailed)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError("WithTx", "", "", "failed to commit transaction", ErrTxFailed)
	}

	return nil
}

// =============================================================================
// Transaction Store
// =============================================================================

// txSQLiteStore implements Store within a transaction.
type txSQLiteStore struct {
	tx *sqlx.Tx
}

func (s *txSQLiteStore) CreateProject(ctx context.Context, project *domain.Project) error {
	return createProject(ctx, s.tx, project)
}

func (s *txSQLiteStore) GetProjectByName(ctx context.Context, name string) (*domain.Project, error) {
	return getProjectByName(ctx, s.tx, name)
}

func (s *txSQLiteStore) UpdateProject(ctx context.Context, project *domain.Project) error {
	return updateProject(ctx, s.tx, project)
}

func (s *txSQLiteStore) DeleteProject(ctx context.Context, name string) error {
	return deleteProject(ctx, s.tx, name)
}

func (s *txSQLiteStore) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return listProjects(ctx, s.tx)
}

func (s *txSQLiteStore) GetActiveProject(ctx context.Context) (*domain.Project, error) {
	return getActiveProject(ctx, s.tx)
}

func (s *txSQLiteStore) SetActiveProject(ctx context.Context, name string) error {
	return setActiveProject(ctx, s.tx, name)
}

func (s *txSQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	// Already in a transaction
	return fn(s)
}

func (s *txSQLiteStore) Close() error {
	return nil
}

// =============================================================================
// Project Operations
// =============================================================================

// projectRow represents a project row in the database.
type projectRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Path      string `db:"path"`
	Active    bool   `db:"active"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func createProject(ctx context.Context, exec executor, project *domain.Project) error {
	query := `
		INSERT INTO projects (id, name, path, active, created_at, updated_at)
		VALUES (:id, :name, :path, 0, :created_at, :updated_at)`

	row := map[string]any{
		"id":         project.ID,
		"name":       project.Name,
		"path":       project.Path,
		"created_at": project.CreatedAt.Format(time.RFC3339),
		"updated_at": project.UpdatedAt.Format(time.RFC3339),
	}

	_, err := exec.NamedExecContext(ctx, query, row)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: projects.name") {
			return NewStoreError("CreateProject", "project", project.Name, "project with this name already exists", ErrDuplicateName)
		}
		return NewStoreError("CreateProject", "project", project.Name, err.Error(), err)
	}

	return nil
}

func getProjectByName(ctx context.Context, exec executor, name string) (*domain.Project, error) {
	query := `SELECT * FROM projects WHERE name = ?`

	var row projectRow
	err := exec.GetContext(ctx, &row, query, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetProjectByName", "project", name, "project not found", ErrNotFound)
		}
		return nil, NewStoreError("GetProjectByName", "project", name, err.Error(), err)
	}

	return rowToProject(&row), nil
}

func updateProject(ctx context.Context, exec executor, project *domain.Project) error {
	query := `
		UPDATE projects SET
			path = :path,
			updated_at = :updated_at
		WHERE name = :name`

	row := map[string]any{
		"name":       project.Name,
		"path":       project.Path,
		"updated_at": project.UpdatedAt.Format(time.RFC3339),
	}

	result, err := exec.NamedExecContext(ctx, query, row)
	if err != nil {
		return NewStoreError("UpdateProject", "project", project.Name, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("UpdateProject", "project", project.Name, "project not found", ErrNotFound)
	}

	return nil
}

func deleteProject(ctx context.Context, exec executor, name string) error {
	query := `DELETE FROM projects WHERE name = ?`

	result, err := exec.ExecContext(ctx, query, name)
	if err != nil {
		return NewStoreError("DeleteProject", "project", name, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("DeleteProject", "project", name, "project not found", ErrNotFound)
	}

	return nil
}

func listProjects(ctx context.Context, exec executor) ([]domain.Project, error) {
	query := `SELECT * FROM projects ORDER BY name ASC`

	var rows []projectRow
	if err := exec.SelectContext(ctx, &rows, query); err != nil {
		return nil, NewStoreError("ListProjects", "project", "", err.Error(), err)
	}

	projects := make([]domain.Project, 0, len(rows))
	for i := range rows {
		projects = append(projects, *rowToProject(&rows[i]))
	}
	return projects, nil
}

func getActiveProject(ctx context.Context, exec executor) (*domain.Project, error) {
	query := `SELECT * FROM projects WHERE active = 1`

	var row projectRow
	err := exec.GetContext(ctx, &row, query)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetActiveProject", "project", "", "no active project", ErrNotFound)
		}
		return nil, NewStoreError("GetActiveProject", "project", "", err.Error(), err)
	}

	return rowToProject(&row), nil
}

func setActiveProject(ctx context.Context, exec executor, name string) error {
	if _, err := exec.ExecContext(ctx, `UPDATE projects SET active = 0 WHERE active = 1`); err != nil {
		return NewStoreError("SetActiveProject", "project", name, err.Error(), err)
	}

	result, err := exec.ExecContext(ctx,
		`UPDATE projects SET active = 1, updated_at = ? WHERE name = ?`,
		time.Now().UTC().Format(time.RFC3339), name)
	if err != nil {
		return NewStoreError("SetActiveProject", "project", name, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("SetActiveProject", "project", name, "project not found", ErrNotFound)
	}

	return nil
}

// =============================================================================
// Row Conversion
// =============================================================================

// rowToProject converts a database row to a domain.Project.
func rowToProject(row *projectRow) *domain.Project {
	createdAt, _ := time.Parse(time.RFC3339, row.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, row.UpdatedAt)

	return &domain.Project{
		ID:        row.ID,
		Name:      row.Name,
		Path:      row.Path,
		Active:    row.Active,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}
