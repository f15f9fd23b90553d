package api

import (
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/shaiso/Graphflow/internal/domain"
)

// maxNodeTypeLength — ограничение колонки nodes.node_type.
const maxNodeTypeLength = 100

func validateNodeType(nodeType string) string {
	if nodeType == "" {
		return "node_type is required"
	}
	if utf8.RuneCountInString(nodeType) > maxNodeTypeLength {
		return "node_type must be at most 100 characters"
	}
	return ""
}

// ListNodes возвращает узлы с фильтрами.
// GET /api/v1/nodes?workflow_id=&node_type=
func (h *Handler) ListNodes(w http.ResponseWriter, r *http.Request) {
	var filter domain.NodeFilter

	q := r.URL.Query()
	if v := q.Get("workflow_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			BadRequest(w, "invalid workflow_id")
			return
		}
		filter.WorkflowID = &id
	}
	filter.NodeType = q.Get("node_type")

	h.listNodes(w, r, filter)
}

func (h *Handler) listNodes(w http.ResponseWriter, r *http.Request, filter domain.NodeFilter) {
	nodes, err := h.nodes.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]NodeResponse, len(nodes))
	for i, n := range nodes {
		result[i] = NodeFromDomain(n)
	}

	List(w, result, len(result))
}

// CreateNode создаёт узел в workflow.
// POST /api/v1/nodes
func (h *Handler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req CreateNodeRequest
	if err := decodeBody(w, r, &req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.WorkflowID <= 0 {
		BadRequest(w, "workflow_id is required")
		return
	}
	if msg := validateNodeType(req.NodeType); msg != "" {
		BadRequest(w, msg)
		return
	}

	node := &domain.Node{
		WorkflowID: req.WorkflowID,
		NodeType:   req.NodeType,
		PositionX:  req.PositionX,
		PositionY:  req.PositionY,
		Data:       req.Data,
	}
	if HandleRepoError(w, h.logger, h.nodes.Create(r.Context(), node), "") {
		return
	}

	Created(w, NodeFromDomain(*node))
}

// GetNode возвращает узел по ID.
// GET /api/v1/nodes/{id}
func (h *Handler) GetNode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequest(w, "invalid node id")
		return
	}

	node, err := h.nodes.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "node not found") {
		return
	}

	Success(w, NodeFromDomain(*node))
}

// UpdateNode частично обновляет узел.
// PUT /api/v1/nodes/{id}
func (h *Handler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequest(w, "invalid node id")
		return
	}

	var req UpdateNodeRequest
	if err := decodeBody(w, r, &req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	node, err := h.nodes.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "node not found") {
		return
	}

	if req.NodeType != nil {
		if msg := validateNodeType(*req.NodeType); msg != "" {
			BadRequest(w, msg)
			return
		}
		node.NodeType = *req.NodeType
	}
	if req.PositionX != nil {
		node.PositionX = *req.PositionX
	}
	if req.PositionY != nil {
		node.PositionY = *req.PositionY
	}
	if req.Data != nil {
		node.Data = *req.Data
	}

	if HandleRepoError(w, h.logger, h.nodes.Update(r.Context(), node), "node not found") {
		return
	}

	Success(w, NodeFromDomain(*node))
}

// DeleteNode удаляет узел.
// DELETE /api/v1/nodes/{id}
func (h *Handler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequest(w, "invalid node id")
		return
	}

	if HandleRepoError(w, h.logger, h.nodes.Delete(r.Context(), id), "node not found") {
		return
	}

	NoContent(w)
}

// ListNodeTypes возвращает зарегистрированные типы узлов и их обработчики.
// GET /api/v1/node-types
func (h *Handler) ListNodeTypes(w http.ResponseWriter, r *http.Request) {
	types := h.registry.Types()

	result := make([]NodeTypeResponse, len(types))
	for i, t := range types {
		result[i] = NodeTypeResponse{Type: t, Function: h.registry.FunctionName(t)}
	}

	List(w, result, len(result))
}
