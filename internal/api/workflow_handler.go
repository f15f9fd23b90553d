package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shaiso/Graphflow/internal/domain"
	"github.com/shaiso/Graphflow/internal/workflow"
)

// pathID разбирает целочисленный {id} из пути.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// validateWorkflowName проверяет имя для CRUD эндпоинтов.
func validateWorkflowName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "name is required"
	}
	if utf8.RuneCountInString(name) > workflow.MaxNameLength {
		return fmt.Sprintf("name must be at most %d characters", workflow.MaxNameLength)
	}
	return ""
}

// ListWorkflows возвращает workflows, опционально с поиском по имени.
// GET /api/v1/workflows?search=
func (h *Handler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	workflows, err := h.workflows.List(r.Context(), r.URL.Query().Get("search"))
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]WorkflowResponse, len(workflows))
	for i, wf := range workflows {
		result[i] = WorkflowFromDomain(wf)
	}

	List(w, result, len(result))
}

// CreateWorkflow создаёт workflow.
// POST /api/v1/workflows
func (h *Handler) CreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkflowRequest
	if err := decodeBody(w, r, &req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if msg := validateWorkflowName(req.Name); msg != "" {
		BadRequest(w, msg)
		return
	}

	wf := &domain.Workflow{
		Name:  req.Name,
		Nodes: req.Nodes,
		Edges: req.Edges,
	}
	if HandleRepoError(w, h.logger, h.workflows.Create(r.Context(), wf), "") {
		return
	}

	Created(w, WorkflowFromDomain(*wf))
}

// GetWorkflow возвращает workflow по ID.
// GET /api/v1/workflows/{id}
func (h *Handler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	wf, err := h.workflows.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	Success(w, WorkflowFromDomain(*wf))
}

// UpdateWorkflow частично обновляет workflow.
// PUT /api/v1/workflows/{id}
func (h *Handler) UpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	var req UpdateWorkflowRequest
	if err := decodeBody(w, r, &req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	wf, err := h.workflows.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	if req.Name != nil {
		if msg := validateWorkflowName(*req.Name); msg != "" {
			BadRequest(w, msg)
			return
		}
		wf.Name = *req.Name
	}
	if req.Nodes != nil {
		wf.Nodes = *req.Nodes
	}
	if req.Edges != nil {
		wf.Edges = *req.Edges
	}

	if HandleRepoError(w, h.logger, h.workflows.Update(r.Context(), wf), "workflow not found") {
		return
	}

	Success(w, WorkflowFromDomain(*wf))
}

// DeleteWorkflow удаляет workflow вместе с его узлами.
// DELETE /api/v1/workflows/{id}
func (h *Handler) DeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	if HandleRepoError(w, h.logger, h.workflows.Delete(r.Context(), id), "workflow not found") {
		return
	}

	NoContent(w)
}

// ListWorkflowNodes возвращает отдельные узлы workflow.
// GET /api/v1/workflows/{id}/nodes
func (h *Handler) ListWorkflowNodes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	// 404 для несуществующего workflow, а не пустой список
	if _, err := h.workflows.GetByID(r.Context(), id); HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	h.listNodes(w, r, domain.NodeFilter{WorkflowID: &id})
}
