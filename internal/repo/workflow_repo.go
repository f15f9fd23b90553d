package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Graphflow/internal/domain"
)

// WorkflowRepo — репозиторий workflows в PostgreSQL.
type WorkflowRepo struct {
	pool *pgxpool.Pool
}

// NewWorkflowRepo создаёт новый WorkflowRepo.
func NewWorkflowRepo(pool *pgxpool.Pool) *WorkflowRepo {
	return &WorkflowRepo{pool: pool}
}

var _ WorkflowStore = (*WorkflowRepo)(nil)

const workflowColumns = `id, name, nodes, edges, created_at`

// Upsert сохраняет workflow по имени одним запросом.
// Для существующего имени меняются только nodes и edges.
func (r *WorkflowRepo) Upsert(ctx context.Context, w *domain.Workflow) error {
	nodes, edges, err := EncodeGraph(w)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO workflows (name, nodes, edges, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (name) DO UPDATE
		SET nodes = EXCLUDED.nodes, edges = EXCLUDED.edges
		RETURNING id, created_at
	`
	err = r.pool.QueryRow(ctx, query, w.Name, nodes, edges).Scan(&w.ID, &w.CreatedAt)
	if err != nil {
		return mapPgError("upsert workflow", err)
	}
	return nil
}

// Create создаёт новый workflow.
func (r *WorkflowRepo) Create(ctx context.Context, w *domain.Workflow) error {
	nodes, edges, err := EncodeGraph(w)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO workflows (name, nodes, edges, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`
	err = r.pool.QueryRow(ctx, query, w.Name, nodes, edges).Scan(&w.ID, &w.CreatedAt)
	if err != nil {
		return mapPgError("insert workflow", err)
	}
	return nil
}

// GetByID возвращает workflow по ID.
func (r *WorkflowRepo) GetByID(ctx context.Context, id int64) (*domain.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE id = $1`
	w, err := scanWorkflow(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get workflow by id: %w", err)
	}
	return w, nil
}

// GetByName возвращает workflow по имени.
func (r *WorkflowRepo) GetByName(ctx context.Context, name string) (*domain.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE name = $1`
	w, err := scanWorkflow(r.pool.QueryRow(ctx, query, name))
	if err != nil {
		return nil, fmt.Errorf("get workflow by name: %w", err)
	}
	return w, nil
}

// List возвращает workflows, отсортированные по ID.
// search — подстрока имени без учёта регистра; % и _ ищутся буквально.
func (r *WorkflowRepo) List(ctx context.Context, search string) ([]domain.Workflow, error) {
	query := `
		SELECT ` + workflowColumns + `
		FROM workflows
		WHERE ($1::text IS NULL OR strpos(lower(name), lower($1)) > 0)
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query, nullString(search))
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

// Update обновляет имя, nodes и edges по ID. CreatedAt не меняется.
func (r *WorkflowRepo) Update(ctx context.Context, w *domain.Workflow) error {
	nodes, edges, err := EncodeGraph(w)
	if err != nil {
		return err
	}

	query := `
		UPDATE workflows
		SET name = $2, nodes = $3, edges = $4
		WHERE id = $1
		RETURNING created_at
	`
	err = r.pool.QueryRow(ctx, query, w.ID, w.Name, nodes, edges).Scan(&w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return mapPgError("update workflow", err)
	}
	return nil
}

// Delete удаляет workflow (каскадно удалит его nodes).
func (r *WorkflowRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete workflow: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanWorkflow читает строку workflows. pgx.ErrNoRows превращается в ErrNotFound.
func scanWorkflow(row pgx.Row) (*domain.Workflow, error) {
	var (
		w            domain.Workflow
		nodes, edges []byte
	)
	err := row.Scan(&w.ID, &w.Name, &nodes, &edges, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := DecodeGraph(nodes, edges, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// nullString возвращает nil для пустой строки.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
