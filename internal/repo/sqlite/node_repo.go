package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shaiso/Graphflow/internal/domain"
	"github.com/shaiso/Graphflow/internal/repo"
)

// NodeRepo — репозиторий отдельных узлов в SQLite.
type NodeRepo struct {
	db *sql.DB
}

// NewNodeRepo создаёт новый NodeRepo.
func NewNodeRepo(db *sql.DB) *NodeRepo {
	return &NodeRepo{db: db}
}

var _ repo.NodeStore = (*NodeRepo)(nil)

const nodeColumns = `id, workflow_id, node_type, position_x, position_y, data`

// Create создаёт узел.
func (r *NodeRepo) Create(ctx context.Context, n *domain.Node) error {
	data, err := repo.EncodeData(n.Data)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO nodes (workflow_id, node_type, position_x, position_y, data)
		VALUES (?, ?, ?, ?, ?)
	`, n.WorkflowID, n.NodeType, n.PositionX, n.PositionY, string(data))
	if err != nil {
		return mapSQLiteError("insert node", err)
	}
	n.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	if n.Data == nil {
		n.Data = map[string]any{}
	}
	return nil
}

// GetByID возвращает узел по ID.
func (r *NodeRepo) GetByID(ctx context.Context, id int64) (*domain.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes WHERE id = ?`
	n, err := scanNode(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get node by id: %w", err)
	}
	return n, nil
}

// List возвращает узлы с фильтрацией по workflow и типу.
func (r *NodeRepo) List(ctx context.Context, filter domain.NodeFilter) ([]domain.Node, error) {
	query := `
		SELECT ` + nodeColumns + `
		FROM nodes
		WHERE (?1 IS NULL OR workflow_id = ?1)
		  AND (?2 = '' OR node_type = ?2)
		ORDER BY id
	`
	var workflowID sql.NullInt64
	if filter.WorkflowID != nil {
		workflowID = sql.NullInt64{Int64: *filter.WorkflowID, Valid: true}
	}

	rows, err := r.db.QueryContext(ctx, query, workflowID, filter.NodeType)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	nodes := []domain.Node{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, *n)
	}
	return nodes, rows.Err()
}

// Update обновляет узел.
func (r *NodeRepo) Update(ctx context.Context, n *domain.Node) error {
	data, err := repo.EncodeData(n.Data)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE nodes
		SET workflow_id = ?, node_type = ?, position_x = ?, position_y = ?, data = ?
		WHERE id = ?
	`, n.WorkflowID, n.NodeType, n.PositionX, n.PositionY, string(data), n.ID)
	if err != nil {
		return mapSQLiteError("update node", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// Delete удаляет узел.
func (r *NodeRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete node: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func scanNode(row rowScanner) (*domain.Node, error) {
	var (
		n    domain.Node
		data string
	)
	err := row.Scan(&n.ID, &n.WorkflowID, &n.NodeType, &n.PositionX, &n.PositionY, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	n.Data, err = repo.DecodeData([]byte(data))
	if err != nil {
		return nil, err
	}
	return &n, nil
}
