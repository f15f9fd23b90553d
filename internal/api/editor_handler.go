package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shaiso/Graphflow/internal/dispatch"
	"github.com/shaiso/Graphflow/internal/mq"
	"github.com/shaiso/Graphflow/internal/telemetry"
	"github.com/shaiso/Graphflow/internal/workflow"
)

const (
	// maxBodyBytes — предел тела запроса редактора.
	maxBodyBytes = 10 << 20

	publishTimeout = 2 * time.Second
)

// decodeBody читает JSON тело с ограничением размера.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// SaveWorkflow сохраняет граф редактора по имени.
// POST /api/save_workflow/
func (h *Handler) SaveWorkflow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		InvalidRequest(w)
		return
	}

	var req SaveWorkflowRequest
	if err := decodeBody(w, r, &req); err != nil {
		EditorFail(w, http.StatusBadRequest, err.Error())
		return
	}

	wf, err := h.store.Save(r.Context(), req.Name, req.Nodes, req.Edges)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	telemetry.ObserveWorkflowSaved()
	h.publish(r.Context(), "workflow.saved", func(ctx context.Context, p EventPublisher) error {
		return p.PublishWorkflowSaved(ctx, mq.WorkflowSavedPayload{
			WorkflowID: wf.ID,
			Name:       wf.Name,
			NodeCount:  len(wf.Nodes),
			EdgeCount:  len(wf.Edges),
		})
	})

	JSON(w, http.StatusOK, SaveWorkflowResponse{
		Message:    "Workflow saved",
		WorkflowID: wf.ID,
	})
}

// LoadWorkflow возвращает сохранённый граф по имени.
// GET /api/load_workflow/?name=
func (h *Handler) LoadWorkflow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		InvalidRequest(w)
		return
	}

	wf, err := h.store.Load(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	wf.Normalize()
	JSON(w, http.StatusOK, LoadWorkflowResponse{
		Name:  wf.Name,
		Nodes: wf.Nodes,
		Edges: wf.Edges,
	})
}

// ExecuteNode выполняет обработчик типа узла.
// POST /api/execute_node/
func (h *Handler) ExecuteNode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		InvalidRequest(w)
		return
	}

	var req ExecuteNodeRequest
	if err := decodeBody(w, r, &req); err != nil {
		EditorFail(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	logger := telemetry.WithNode(telemetry.FromContext(ctx), req.NodeID, req.NodeType)

	result, err := h.registry.Invoke(ctx, req.NodeID, req.NodeType)

	status := mq.NodeStatusSucceeded
	switch {
	case errors.Is(err, dispatch.ErrUnregistered):
		status = mq.NodeStatusUnregistered
	case err != nil:
		status = mq.NodeStatusFailed
	}
	telemetry.ObserveNodeInvocation(req.NodeType, status)

	payload := mq.NodeExecutedPayload{NodeID: req.NodeID, NodeType: req.NodeType, Status: status}
	if err != nil {
		payload.Error = err.Error()
	}
	h.publish(ctx, "node.executed", func(ctx context.Context, p EventPublisher) error {
		return p.PublishNodeExecuted(ctx, payload)
	})

	switch status {
	case mq.NodeStatusUnregistered:
		logger.Warn("node type not registered")
		EditorFail(w, http.StatusBadRequest, err.Error())
	case mq.NodeStatusFailed:
		logger.Error("node handler failed", "error", err)
		EditorFail(w, http.StatusInternalServerError, err.Error())
	default:
		logger.Info("node executed")
		JSON(w, http.StatusOK, result)
	}
}

// storeError переводит ошибку workflow.Store в HTTP статус.
func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, err error) {
	message := err.Error()
	var se *workflow.Error
	if errors.As(err, &se) {
		message = se.Message
	}

	switch {
	case errors.Is(err, workflow.ErrInput):
		EditorFail(w, http.StatusBadRequest, message)
	case errors.Is(err, workflow.ErrNotFound):
		EditorFail(w, http.StatusNotFound, message)
	default:
		telemetry.FromContext(r.Context()).Error("workflow store failed", "error", err)
		EditorFail(w, http.StatusInternalServerError, message)
	}
}

// publish синхронно отправляет событие, если publisher настроен; задержка
// ограничена publishTimeout. Ошибка только логируется.
func (h *Handler) publish(ctx context.Context, event string, fn func(context.Context, EventPublisher) error) {
	if h.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := fn(pubCtx, h.publisher); err != nil {
		telemetry.FromContext(ctx).Warn("publish event failed", "event", event, "error", err)
	}
}
