package domain

import (
	"time"
)

// DefaultWorkflowName — имя, под которым сохраняется и загружается
// workflow, если клиент не передал name.
const DefaultWorkflowName = "Untitled Workflow"

// Workflow — именованный граф, нарисованный в редакторе.
//
// Workflow идентифицируется по имени: повторное сохранение с тем же именем
// заменяет nodes/edges, но сохраняет ID и CreatedAt.
type Workflow struct {
	// ID — идентификатор, назначенный хранилищем.
	ID int64 `json:"id"`

	// Name — уникальное имя workflow (например, "MyWorkflow").
	Name string `json:"name"`

	// Nodes — узлы графа в порядке, в котором их прислал клиент.
	Nodes []NodeRecord `json:"nodes"`

	// Edges — связи между узлами. Ядро их не интерпретирует.
	Edges []Edge `json:"edges"`

	// CreatedAt — время первого сохранения.
	CreatedAt time.Time `json:"created_at"`
}

// Normalize заменяет nil-списки пустыми, чтобы в JSON уходило [] вместо null.
func (w *Workflow) Normalize() {
	if w.Nodes == nil {
		w.Nodes = []NodeRecord{}
	}
	if w.Edges == nil {
		w.Edges = []Edge{}
	}
}

// Node — узел как отдельная сущность (таблица nodes).
//
// Узлы принадлежат workflow и удаляются вместе с ним.
// С Workflow.Nodes никак не связаны: это параллельная таблица.
type Node struct {
	// ID — идентификатор узла.
	ID int64 `json:"id"`

	// WorkflowID — workflow-владелец.
	WorkflowID int64 `json:"workflow_id"`

	// NodeType — тип узла ("process-1", ...).
	NodeType string `json:"node_type"`

	// PositionX, PositionY — координаты на холсте.
	PositionX float64 `json:"position_x"`
	PositionY float64 `json:"position_y"`

	// Data — произвольные данные узла.
	Data map[string]any `json:"data"`
}

// NodeFilter — фильтр для списка узлов.
type NodeFilter struct {
	WorkflowID *int64
	NodeType   string
}
