package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Graphflow/internal/dispatch"
	"github.com/shaiso/Graphflow/internal/domain"
	"github.com/shaiso/Graphflow/internal/mq"
	"github.com/shaiso/Graphflow/internal/repo"
	"github.com/shaiso/Graphflow/internal/repo/sqlite"
)

// recordingPublisher запоминает опубликованные события.
type recordingPublisher struct {
	mu       sync.Mutex
	saved    []mq.WorkflowSavedPayload
	executed []mq.NodeExecutedPayload
	err      error
}

func (p *recordingPublisher) PublishWorkflowSaved(_ context.Context, payload mq.WorkflowSavedPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saved = append(p.saved, payload)
	return p.err
}

func (p *recordingPublisher) PublishNodeExecuted(_ context.Context, payload mq.NodeExecutedPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.executed = append(p.executed, payload)
	return p.err
}

// brokenStore — WorkflowStore, у которого недоступна база.
type brokenStore struct {
	repo.WorkflowStore
}

func (brokenStore) Upsert(context.Context, *domain.Workflow) error {
	return errors.New("database is locked")
}

func (brokenStore) GetByName(context.Context, string) (*domain.Workflow, error) {
	return nil, errors.New("database is locked")
}

// panicHandler падает с паникой при вызове.
type panicHandler struct{}

func (panicHandler) Type() string { return "panic" }
func (panicHandler) Name() string { return "panic_function" }
func (panicHandler) Run(context.Context) (dispatch.Result, error) {
	panic("boom")
}

type testServer struct {
	handler   http.Handler
	publisher *recordingPublisher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "api.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	pub := &recordingPublisher{}
	h := NewHandler(Config{
		Workflows:  sqlite.NewWorkflowRepo(db),
		Nodes:      sqlite.NewNodeRepo(db),
		Registry:   dispatch.DefaultRegistry(),
		Publisher:  pub,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		CORSOrigin: "http://localhost:3000",
	})

	return &testServer{handler: h.Routes(), publisher: pub}
}

func (s *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestSaveLoadWorkflow(t *testing.T) {
	s := newTestServer(t)

	body := `{
		"name": "MyWorkflow",
		"nodes": [
			{"id":"process-1","nodeType":"process-1","position":{"x":100,"y":200},"data":{"label":"process-1"}},
			{"id":"start","nodeType":"start","type":"input"}
		],
		"edges": [{"id":"e1","source":"start","target":"process-1","animated":true}]
	}`

	rec := s.do(t, http.MethodPost, "/api/save_workflow/", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	saved := decode[SaveWorkflowResponse](t, rec)
	assert.Equal(t, "Workflow saved", saved.Message)
	assert.NotZero(t, saved.WorkflowID)

	require.Len(t, s.publisher.saved, 1)
	assert.Equal(t, mq.WorkflowSavedPayload{WorkflowID: saved.WorkflowID, Name: "MyWorkflow", NodeCount: 2, EdgeCount: 1}, s.publisher.saved[0])

	rec = s.do(t, http.MethodGet, "/api/load_workflow/?name=MyWorkflow", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"name": "MyWorkflow",
		"nodes": [
			{"id":"process-1","nodeType":"process-1","position":{"x":100,"y":200},"data":{"label":"process-1"},"function":"process_function_1"},
			{"id":"start","nodeType":"start","type":"input","function":"unknown_function"}
		],
		"edges": [{"id":"e1","source":"start","target":"process-1","animated":true}]
	}`, rec.Body.String())

	// повторное сохранение заменяет граф и сохраняет id
	rec = s.do(t, http.MethodPost, "/api/save_workflow/", `{"name":"MyWorkflow","nodes":[],"edges":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, saved.WorkflowID, decode[SaveWorkflowResponse](t, rec).WorkflowID)

	rec = s.do(t, http.MethodGet, "/api/load_workflow/?name=MyWorkflow", "")
	assert.JSONEq(t, `{"name":"MyWorkflow","nodes":[],"edges":[]}`, rec.Body.String())
}

// decodeNumbers разбирает JSON, сохраняя числа как json.Number.
func decodeNumbers(t *testing.T, raw []byte) any {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	require.NoError(t, dec.Decode(&v))
	return v
}

func TestSaveLoadWorkflow_NodesAreStoredVerbatim(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		node string
	}{
		{"empty id", `{"id":"","nodeType":"process-1"}`},
		{"null data", `{"id":"a","nodeType":"process-1","data":null}`},
		{"null position", `{"id":"a","nodeType":"process-1","position":null}`},
		{"extra position keys", `{"id":"a","nodeType":"process-1","position":{"x":1,"y":2,"z":3}}`},
		{"big integer in data", `{"id":"a","nodeType":"process-1","data":{"n":12345678901234567890}}`},
		{"mixed case keys", `{"id":"a","nodeType":"process-1","NodeType":"legacy"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"name":"verbatim","nodes":[` + tt.node + `],"edges":[]}`
			rec := s.do(t, http.MethodPost, "/api/save_workflow/", body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			rec = s.do(t, http.MethodGet, "/api/load_workflow/?name=verbatim", "")
			require.Equal(t, http.StatusOK, rec.Code)

			var loaded struct {
				Nodes []json.RawMessage `json:"nodes"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loaded))
			require.Len(t, loaded.Nodes, 1)

			want := decodeNumbers(t, []byte(tt.node)).(map[string]any)
			want["function"] = "process_function_1"
			assert.Equal(t, want, decodeNumbers(t, loaded.Nodes[0]), rec.Body.String())
		})
	}
}

func TestSaveWorkflow_DefaultName(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/save_workflow/", `{"nodes":[],"edges":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/load_workflow/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.DefaultWorkflowName, decode[LoadWorkflowResponse](t, rec).Name)
}

func TestSaveWorkflow_BadInput(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"name":`},
		{"nodes not a list", `{"name":"w","nodes":"x"}`},
		{"missing nodeType", `{"name":"w","nodes":[{"id":"a"}],"edges":[]}`},
		{"blank name", `{"name":"   ","nodes":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/save_workflow/", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decode[EditorError](t, rec).Error)
		})
	}
	assert.Empty(t, s.publisher.saved)
}

func TestLoadWorkflow_NotFound(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/load_workflow/?name=never-saved", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Workflow not found"}`, rec.Body.String())
}

func TestEditorEndpoints_WrongMethod(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method string
		target string
	}{
		{http.MethodGet, "/api/save_workflow/"},
		{http.MethodPut, "/api/save_workflow"},
		{http.MethodPost, "/api/load_workflow/"},
		{http.MethodGet, "/api/execute_node/"},
		{http.MethodDelete, "/api/execute_node/"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.target, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"Invalid request"}`, rec.Body.String())
		})
	}
	assert.Empty(t, s.publisher.saved)
	assert.Empty(t, s.publisher.executed)
}

func TestEditorEndpoints_StorageFailure(t *testing.T) {
	h := NewHandler(Config{
		Workflows: brokenStore{},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	routes := h.Routes()

	req := httptest.NewRequest(http.MethodPost, "/api/save_workflow/", strings.NewReader(`{"name":"w","nodes":[]}`))
	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "database is locked")

	req = httptest.NewRequest(http.MethodGet, "/api/load_workflow/?name=w", nil)
	rec = httptest.NewRecorder()
	routes.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestExecuteNode(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/execute_node/", `{"node_id":"process-1","node_type":"process-2","task_data":{}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"node_id":"process-1","message":"Process 2 executed","status":"success"}`, rec.Body.String())

	require.Len(t, s.publisher.executed, 1)
	assert.Equal(t, mq.NodeStatusSucceeded, s.publisher.executed[0].Status)
}

func TestExecuteNode_Unregistered(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/execute_node/", `{"node_id":"x","node_type":"process-99"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Function not found for node type: process-99"}`, rec.Body.String())

	require.Len(t, s.publisher.executed, 1)
	assert.Equal(t, mq.NodeStatusUnregistered, s.publisher.executed[0].Status)
}

func TestExecuteNode_Malformed(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/execute_node/", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, s.publisher.executed)
}

func TestPublishFailureDoesNotChangeResult(t *testing.T) {
	s := newTestServer(t)
	s.publisher.err = errors.New("broker down")

	rec := s.do(t, http.MethodPost, "/api/save_workflow/", `{"name":"w","nodes":[]}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/execute_node/", `{"node_id":"n","node_type":"process-1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecovery(t *testing.T) {
	registry, err := dispatch.NewRegistry(panicHandler{})
	require.NoError(t, err)

	h := NewHandler(Config{
		Registry: registry,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	req := httptest.NewRequest(http.MethodPost, "/api/execute_node/", strings.NewReader(`{"node_id":"n","node_type":"panic"}`))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMiddleware_RequestIDAndCORS(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/node-types", "")
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/node-types", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(HeaderRequestID))

	// preflight не доходит до обработчика
	req = httptest.NewRequest(http.MethodOptions, "/api/save_workflow/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestWorkflowCRUD(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/workflows", `{"name":"Orders sync"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[struct{ Data WorkflowResponse }](t, rec).Data
	assert.NotZero(t, created.ID)
	assert.NotNil(t, created.Nodes)

	rec = s.do(t, http.MethodPost, "/api/v1/workflows", `{"name":"Orders sync"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/workflows", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrCodeBadRequest, decode[ErrorResponse](t, rec).Error.Code)

	s.do(t, http.MethodPost, "/api/v1/workflows", `{"name":"Daily report"}`)

	rec = s.do(t, http.MethodGet, "/api/v1/workflows?search=orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Data  []WorkflowResponse
		Total int
	}](t, rec)
	assert.Equal(t, 1, list.Total)

	target := "/api/v1/workflows/" + itoa(created.ID)

	rec = s.do(t, http.MethodPut, target, `{"name":"Orders sync v2","edges":[{"id":"e1"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[struct{ Data WorkflowResponse }](t, rec).Data
	assert.Equal(t, "Orders sync v2", updated.Name)
	assert.Len(t, updated.Edges, 1)

	rec = s.do(t, http.MethodGet, target, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodDelete, target, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, target, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/workflows/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNodeCRUD(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/workflows", `{"name":"graph"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	wf := decode[struct{ Data WorkflowResponse }](t, rec).Data
	wfID := itoa(wf.ID)

	rec = s.do(t, http.MethodPost, "/api/v1/nodes", `{"workflow_id":`+wfID+`,"node_type":"process-1","position_x":10,"position_y":20}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	node := decode[struct{ Data NodeResponse }](t, rec).Data
	assert.Equal(t, 10.0, node.PositionX)
	assert.NotNil(t, node.Data)

	s.do(t, http.MethodPost, "/api/v1/nodes", `{"workflow_id":`+wfID+`,"node_type":"process-2"}`)

	rec = s.do(t, http.MethodPost, "/api/v1/nodes", `{"workflow_id":999999,"node_type":"process-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/nodes", `{"workflow_id":`+wfID+`}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/nodes?node_type=process-1", "")
	assert.Equal(t, 1, decode[struct{ Total int }](t, rec).Total)

	rec = s.do(t, http.MethodGet, "/api/v1/workflows/"+wfID+"/nodes", "")
	assert.Equal(t, 2, decode[struct{ Total int }](t, rec).Total)

	rec = s.do(t, http.MethodGet, "/api/v1/workflows/424242/nodes", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/nodes?workflow_id=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	target := "/api/v1/nodes/" + itoa(node.ID)
	rec = s.do(t, http.MethodPut, target, `{"data":{"label":"moved"},"position_x":5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	moved := decode[struct{ Data NodeResponse }](t, rec).Data
	assert.Equal(t, 5.0, moved.PositionX)
	assert.Equal(t, 20.0, moved.PositionY)
	assert.Equal(t, "moved", moved.Data["label"])

	// удаление workflow удаляет его узлы
	rec = s.do(t, http.MethodDelete, "/api/v1/workflows/"+wfID, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodGet, target, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListNodeTypes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/node-types", "")
	require.Equal(t, http.StatusOK, rec.Code)

	list := decode[struct {
		Data  []NodeTypeResponse
		Total int
	}](t, rec)
	assert.Equal(t, 6, list.Total)
	assert.Equal(t, NodeTypeResponse{Type: "process-1", Function: "process_function_1"}, list.Data[0])
}

func TestDecodeBody_TooLarge(t *testing.T) {
	s := newTestServer(t)

	big := bytes.Repeat([]byte("a"), maxBodyBytes+1)
	body := `{"name":"` + string(big) + `"}`
	rec := s.do(t, http.MethodPost, "/api/save_workflow/", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
