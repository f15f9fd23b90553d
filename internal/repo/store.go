package repo

import (
	"context"

	"github.com/shaiso/Graphflow/internal/domain"
)

// WorkflowStore — хранилище workflows.
// Реализации: WorkflowRepo (PostgreSQL) и sqlite.WorkflowRepo.
type WorkflowStore interface {
	// Upsert создаёт workflow или заменяет nodes/edges существующего
	// с тем же именем. Заполняет ID и CreatedAt.
	Upsert(ctx context.Context, w *domain.Workflow) error

	// Create создаёт workflow. Дубликат имени — ErrAlreadyExists.
	Create(ctx context.Context, w *domain.Workflow) error

	GetByID(ctx context.Context, id int64) (*domain.Workflow, error)
	GetByName(ctx context.Context, name string) (*domain.Workflow, error)

	// List возвращает workflows, чьё имя содержит search (пустой — все).
	List(ctx context.Context, search string) ([]domain.Workflow, error)

	Update(ctx context.Context, w *domain.Workflow) error
	Delete(ctx context.Context, id int64) error
}

// NodeStore — хранилище отдельных узлов.
type NodeStore interface {
	// Create создаёт узел. Несуществующий workflow — ErrInvalidReference.
	Create(ctx context.Context, n *domain.Node) error
	GetByID(ctx context.Context, id int64) (*domain.Node, error)
	List(ctx context.Context, filter domain.NodeFilter) ([]domain.Node, error)
	Update(ctx context.Context, n *domain.Node) error
	Delete(ctx context.Context, id int64) error
}
