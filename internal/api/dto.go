package api

import (
	"time"

	"github.com/shaiso/Graphflow/internal/domain"
)

// Editor DTOs

// SaveWorkflowRequest — тело /api/save_workflow/.
type SaveWorkflowRequest struct {
	Name  string              `json:"name"`
	Nodes []domain.NodeRecord `json:"nodes"`
	Edges []domain.Edge       `json:"edges"`
}

// SaveWorkflowResponse — ответ на сохранение.
type SaveWorkflowResponse struct {
	Message    string `json:"message"`
	WorkflowID int64  `json:"workflow_id"`
}

// LoadWorkflowResponse — ответ /api/load_workflow/.
type LoadWorkflowResponse struct {
	Name  string              `json:"name"`
	Nodes []domain.NodeRecord `json:"nodes"`
	Edges []domain.Edge       `json:"edges"`
}

// ExecuteNodeRequest — тело /api/execute_node/. Прочие поля
// (например task_data) игнорируются.
type ExecuteNodeRequest struct {
	NodeID   string `json:"node_id"`
	NodeType string `json:"node_type"`
}

// Workflow DTOs

// CreateWorkflowRequest — запрос на создание workflow.
type CreateWorkflowRequest struct {
	Name  string              `json:"name"`
	Nodes []domain.NodeRecord `json:"nodes"`
	Edges []domain.Edge       `json:"edges"`
}

// UpdateWorkflowRequest — запрос на обновление workflow.
type UpdateWorkflowRequest struct {
	Name  *string              `json:"name,omitempty"`
	Nodes *[]domain.NodeRecord `json:"nodes,omitempty"`
	Edges *[]domain.Edge       `json:"edges,omitempty"`
}

// WorkflowResponse — ответ с workflow.
type WorkflowResponse struct {
	ID        int64               `json:"id"`
	Name      string              `json:"name"`
	Nodes     []domain.NodeRecord `json:"nodes"`
	Edges     []domain.Edge       `json:"edges"`
	CreatedAt time.Time           `json:"created_at"`
}

// WorkflowFromDomain конвертирует domain.Workflow в WorkflowResponse.
func WorkflowFromDomain(w domain.Workflow) WorkflowResponse {
	w.Normalize()
	return WorkflowResponse{
		ID:        w.ID,
		Name:      w.Name,
		Nodes:     w.Nodes,
		Edges:     w.Edges,
		CreatedAt: w.CreatedAt,
	}
}

// Node DTOs

// CreateNodeRequest — запрос на создание узла.
type CreateNodeRequest struct {
	WorkflowID int64          `json:"workflow_id"`
	NodeType   string         `json:"node_type"`
	PositionX  float64        `json:"position_x"`
	PositionY  float64        `json:"position_y"`
	Data       map[string]any `json:"data"`
}

// UpdateNodeRequest — запрос на обновление узла.
type UpdateNodeRequest struct {
	NodeType  *string         `json:"node_type,omitempty"`
	PositionX *float64        `json:"position_x,omitempty"`
	PositionY *float64        `json:"position_y,omitempty"`
	Data      *map[string]any `json:"data,omitempty"`
}

// NodeResponse — ответ с узлом.
type NodeResponse struct {
	ID         int64          `json:"id"`
	WorkflowID int64          `json:"workflow_id"`
	NodeType   string         `json:"node_type"`
	PositionX  float64        `json:"position_x"`
	PositionY  float64        `json:"position_y"`
	Data       map[string]any `json:"data"`
}

// NodeFromDomain конвертирует domain.Node в NodeResponse.
func NodeFromDomain(n domain.Node) NodeResponse {
	data := n.Data
	if data == nil {
		data = map[string]any{}
	}
	return NodeResponse{
		ID:         n.ID,
		WorkflowID: n.WorkflowID,
		NodeType:   n.NodeType,
		PositionX:  n.PositionX,
		PositionY:  n.PositionY,
		Data:       data,
	}
}

// NodeTypeResponse — зарегистрированный тип узла.
type NodeTypeResponse struct {
	Type     string `json:"type"`
	Function string `json:"function"`
}
