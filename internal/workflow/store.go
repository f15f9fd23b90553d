// Package workflow — хранилище графов: сохранение по имени и загрузка.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shaiso/Graphflow/internal/domain"
	"github.com/shaiso/Graphflow/internal/repo"
	"github.com/shaiso/Graphflow/internal/telemetry"
)

// MaxNameLength — ограничение колонки workflows.name.
const MaxNameLength = 255

// Repository — то, что Store требует от хранилища.
type Repository interface {
	Upsert(ctx context.Context, w *domain.Workflow) error
	GetByName(ctx context.Context, name string) (*domain.Workflow, error)
}

// FunctionNamer возвращает имя обработчика для типа узла.
// Реализуется dispatch.Registry.
type FunctionNamer interface {
	FunctionName(nodeType string) string
}

// Store сохраняет и загружает workflows по имени.
//
// Логгер берётся из контекста запроса (telemetry.FromContext).
type Store struct {
	repo  Repository
	funcs FunctionNamer
}

// NewStore создаёт Store.
func NewStore(r Repository, funcs FunctionNamer) *Store {
	return &Store{repo: r, funcs: funcs}
}

// ResolveName возвращает имя или DefaultWorkflowName для пустого.
func ResolveName(name string) string {
	if name == "" {
		return domain.DefaultWorkflowName
	}
	return name
}

// Save сохраняет граф под именем name.
//
// Каждому узлу проставляется function — имя обработчика для его nodeType
// (или "unknown_function"). Существующий workflow с тем же именем
// перезаписывается, его ID и CreatedAt сохраняются.
func (s *Store) Save(ctx context.Context, name string, nodes []domain.NodeRecord, edges []domain.Edge) (*domain.Workflow, error) {
	const op = "save"
	name = ResolveName(name)

	if strings.TrimSpace(name) == "" {
		return nil, inputError(op, "name must not be blank")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return nil, inputError(op, fmt.Sprintf("name must be at most %d characters", MaxNameLength))
	}

	stamped := make([]domain.NodeRecord, len(nodes))
	for i, n := range nodes {
		if n.NodeType() == "" {
			return nil, inputError(op, fmt.Sprintf("node %d: nodeType is required", i))
		}
		n.Function = s.funcs.FunctionName(n.NodeType())
		stamped[i] = n
	}

	w := &domain.Workflow{
		Name:  name,
		Nodes: stamped,
		Edges: edges,
	}
	if err := s.repo.Upsert(ctx, w); err != nil {
		return nil, storageError(op, err)
	}

	telemetry.WithWorkflow(telemetry.FromContext(ctx), w.ID, w.Name).Info("workflow saved",
		"nodes", len(w.Nodes),
		"edges", len(w.Edges),
	)
	return w, nil
}

// Load возвращает сохранённый граф без изменений.
func (s *Store) Load(ctx context.Context, name string) (*domain.Workflow, error) {
	const op = "load"
	name = ResolveName(name)

	w, err := s.repo.GetByName(ctx, name)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, &Error{Op: op, Kind: ErrNotFound, Message: "Workflow not found"}
	}
	if err != nil {
		return nil, storageError(op, err)
	}
	return w, nil
}
