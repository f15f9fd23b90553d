package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Graphflow/internal/domain"
)

// NodeRepo — репозиторий отдельных узлов в PostgreSQL.
type NodeRepo struct {
	pool *pgxpool.Pool
}

// NewNodeRepo создаёт новый NodeRepo.
func NewNodeRepo(pool *pgxpool.Pool) *NodeRepo {
	return &NodeRepo{pool: pool}
}

var _ NodeStore = (*NodeRepo)(nil)

const nodeColumns = `id, workflow_id, node_type, position_x, position_y, data`

// Create создаёт узел.
func (r *NodeRepo) Create(ctx context.Context, n *domain.Node) error {
	data, err := EncodeData(n.Data)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO nodes (workflow_id, node_type, position_x, position_y, data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err = r.pool.QueryRow(ctx, query,
		n.WorkflowID,
		n.NodeType,
		n.PositionX,
		n.PositionY,
		data,
	).Scan(&n.ID)
	if err != nil {
		return mapPgError("insert node", err)
	}
	if n.Data == nil {
		n.Data = map[string]any{}
	}
	return nil
}

// GetByID возвращает узел по ID.
func (r *NodeRepo) GetByID(ctx context.Context, id int64) (*domain.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes WHERE id = $1`
	n, err := scanNode(r.pool.QueryRow(ctx, query, id))
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
		WHERE ($1::bigint IS NULL OR workflow_id = $1)
		  AND ($2::text IS NULL OR node_type = $2)
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query,
		filter.WorkflowID,
		nullString(filter.NodeType),
	)
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
	data, err := EncodeData(n.Data)
	if err != nil {
		return err
	}

	query := `
		UPDATE nodes
		SET workflow_id = $2, node_type = $3, position_x = $4, position_y = $5, data = $6
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		n.ID,
		n.WorkflowID,
		n.NodeType,
		n.PositionX,
		n.PositionY,
		data,
	)
	if err != nil {
		return mapPgError("update node", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет узел.
func (r *NodeRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM nodes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete node: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanNode(row pgx.Row) (*domain.Node, error) {
	var (
		n    domain.Node
		data []byte
	)
	err := row.Scan(&n.ID, &n.WorkflowID, &n.NodeType, &n.PositionX, &n.PositionY, &data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	n.Data, err = DecodeData(data)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
