package repo

import (
	"encoding/json"
	"fmt"

	"github.com/shaiso/Graphflow/internal/domain"
)

// Кодирование JSON-колонок. Используется всеми бэкендами хранилища.

// EncodeGraph сериализует nodes и edges workflow.
func EncodeGraph(w *domain.Workflow) (nodes, edges []byte, err error) {
	w.Normalize()

	nodes, err = json.Marshal(w.Nodes)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal nodes: %w", err)
	}
	edges, err = json.Marshal(w.Edges)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal edges: %w", err)
	}
	return nodes, edges, nil
}

// DecodeGraph восстанавливает nodes и edges из JSON-колонок.
func DecodeGraph(nodes, edges []byte, w *domain.Workflow) error {
	if err := json.Unmarshal(nodes, &w.Nodes); err != nil {
		return fmt.Errorf("unmarshal nodes: %w", err)
	}
	if err := json.Unmarshal(edges, &w.Edges); err != nil {
		return fmt.Errorf("unmarshal edges: %w", err)
	}
	w.Normalize()
	return nil
}

// EncodeData сериализует data узла; nil пишется как {}.
func EncodeData(data map[string]any) ([]byte, error) {
	if data == nil {
		data = map[string]any{}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal data: %w", err)
	}
	return b, nil
}

// DecodeData восстанавливает data узла.
func DecodeData(b []byte) (map[string]any, error) {
	data := map[string]any{}
	if len(b) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("unmarshal data: %w", err)
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}
