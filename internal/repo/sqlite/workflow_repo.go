package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shaiso/Graphflow/internal/domain"
	"github.com/shaiso/Graphflow/internal/repo"
)

// WorkflowRepo — репозиторий workflows в SQLite.
type WorkflowRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewWorkflowRepo создаёт новый WorkflowRepo.
func NewWorkflowRepo(db *sql.DB) *WorkflowRepo {
	return &WorkflowRepo{db: db, now: time.Now}
}

var _ repo.WorkflowStore = (*WorkflowRepo)(nil)

const workflowColumns = `id, name, nodes, edges, created_at`

// Upsert сохраняет workflow по имени. created_at пишется только при вставке.
func (r *WorkflowRepo) Upsert(ctx context.Context, w *domain.Workflow) error {
	nodes, edges, err := repo.EncodeGraph(w)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO workflows (name, nodes, edges, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE
		SET nodes = excluded.nodes, edges = excluded.edges
		RETURNING id, created_at
	`
	var createdAt string
	err = r.db.QueryRowContext(ctx, query, w.Name, string(nodes), string(edges), formatTime(r.now())).
		Scan(&w.ID, &createdAt)
	if err != nil {
		return mapSQLiteError("upsert workflow", err)
	}
	w.CreatedAt, err = parseTime(createdAt)
	return err
}

// Create создаёт новый workflow.
func (r *WorkflowRepo) Create(ctx context.Context, w *domain.Workflow) error {
	nodes, edges, err := repo.EncodeGraph(w)
	if err != nil {
		return err
	}

	now := r.now()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO workflows (name, nodes, edges, created_at) VALUES (?, ?, ?, ?)`,
		w.Name, string(nodes), string(edges), formatTime(now),
	)
	if err != nil {
		return mapSQLiteError("insert workflow", err)
	}
	w.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	w.CreatedAt = now.UTC()
	return nil
}

// GetByID возвращает workflow по ID.
func (r *WorkflowRepo) GetByID(ctx context.Context, id int64) (*domain.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE id = ?`
	w, err := scanWorkflow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get workflow by id: %w", err)
	}
	return w, nil
}

// GetByName возвращает workflow по имени.
func (r *WorkflowRepo) GetByName(ctx context.Context, name string) (*domain.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE name = ?`
	w, err := scanWorkflow(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		return nil, fmt.Errorf("get workflow by name: %w", err)
	}
	return w, nil
}

// List возвращает workflows по ID. Поиск — подстрока без учёта регистра
// (lower в SQLite только для ASCII), без шаблонов LIKE.
func (r *WorkflowRepo) List(ctx context.Context, search string) ([]domain.Workflow, error) {
	query := `
		SELECT ` + workflowColumns + `
		FROM workflows
		WHERE (?1 = '' OR instr(lower(name), lower(?1)) > 0)
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, search)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	workflows := []domain.Workflow{}
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan workflow: %w", err)
		}
		workflows = append(workflows, *w)
	}
	return workflows, rows.Err()
}

// Update обновляет имя, nodes и edges по ID.
func (r *WorkflowRepo) Update(ctx context.Context, w *domain.Workflow) error {
	nodes, edges, err := repo.EncodeGraph(w)
	if err != nil {
		return err
	}

	var createdAt string
	err = r.db.QueryRowContext(ctx, `
		UPDATE workflows SET name = ?, nodes = ?, edges = ?
		WHERE id = ?
		RETURNING created_at
	`, w.Name, string(nodes), string(edges), w.ID).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return repo.ErrNotFound
	}
	if err != nil {
		return mapSQLiteError("update workflow", err)
	}
	w.CreatedAt, err = parseTime(createdAt)
	return err
}

// Delete удаляет workflow вместе с его nodes.
func (r *WorkflowRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM workflows WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete workflow: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// rowScanner — общий интерфейс *sql.Row и *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*domain.Workflow, error) {
	var (
		w                       domain.Workflow
		nodes, edges, createdAt string
	)
	err := row.Scan(&w.ID, &w.Name, &nodes, &edges, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := repo.DecodeGraph([]byte(nodes), []byte(edges), &w); err != nil {
		return nil, err
	}
	w.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse created_at: %w", err)
	}
	return t, nil
}
