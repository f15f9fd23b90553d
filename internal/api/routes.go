package api

import (
	"net/http"
)

// Routes возвращает http.Handler со всеми маршрутами API и middleware.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	// Эндпоинты редактора: метод проверяется в обработчике,
	// чтобы неверный метод давал 400 {"error": "Invalid request"}.
	editor := []struct {
		path    string
		handler http.HandlerFunc
	}{
		{"/api/save_workflow", h.SaveWorkflow},
		{"/api/load_workflow", h.LoadWorkflow},
		{"/api/execute_node", h.ExecuteNode},
	}
	for _, e := range editor {
		mux.Handle(e.path+"/{$}", e.handler)
		mux.Handle(e.path, e.handler)
	}

	// Workflows
	mux.HandleFunc("GET /api/v1/workflows", h.ListWorkflows)
	mux.HandleFunc("POST /api/v1/workflows", h.CreateWorkflow)
	mux.HandleFunc("GET /api/v1/workflows/{id}", h.GetWorkflow)
	mux.HandleFunc("PUT /api/v1/workflows/{id}", h.UpdateWorkflow)
	mux.HandleFunc("DELETE /api/v1/workflows/{id}", h.DeleteWorkflow)
	mux.HandleFunc("GET /api/v1/workflows/{id}/nodes", h.ListWorkflowNodes)

	// Nodes
	mux.HandleFunc("GET /api/v1/nodes", h.ListNodes)
	mux.HandleFunc("POST /api/v1/nodes", h.CreateNode)
	mux.HandleFunc("GET /api/v1/nodes/{id}", h.GetNode)
	mux.HandleFunc("PUT /api/v1/nodes/{id}", h.UpdateNode)
	mux.HandleFunc("DELETE /api/v1/nodes/{id}", h.DeleteNode)

	// Node types
	mux.HandleFunc("GET /api/v1/node-types", h.ListNodeTypes)

	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		RequestID(h.logger),
		Logging(),
		CORS(h.corsOrigin),
	)

	return chain(mux)
}
