package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI — минимальный сервер с ответами в форматах graphflow API.
func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/save_workflow/", func(w http.ResponseWriter, r *http.Request) {
		var g Graph
		if err := json.NewDecoder(r.Body).Decode(&g); err != nil || g.Name == "bad" {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":"node 0: nodeType is required"}`)
			return
		}
		io.WriteString(w, `{"message":"Workflow saved","workflow_id":7}`)
	})
	mux.HandleFunc("GET /api/load_workflow/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") != "MyWorkflow" {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":"Workflow not found"}`)
			return
		}
		io.WriteString(w, `{"name":"MyWorkflow","nodes":[{"id":"p1","nodeType":"process-1","function":"process_function_1"}],"edges":[]}`)
	})
	mux.HandleFunc("POST /api/execute_node/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"node_id":"p1","message":"Process 1 executed","status":"success"}`)
	})
	mux.HandleFunc("GET /api/v1/workflows", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "orders", r.URL.Query().Get("search"))
		io.WriteString(w, `{"data":[{"id":1,"name":"Orders","nodes":[],"edges":[],"created_at":"2025-02-21T06:24:00Z"}],"total":1}`)
	})
	mux.HandleFunc("GET /api/v1/workflows/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":{"code":"NOT_FOUND","message":"workflow not found"}}`)
	})
	mux.HandleFunc("DELETE /api/v1/nodes/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/v1/nodes", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("workflow_id"))
		io.WriteString(w, `{"data":[{"id":5,"workflow_id":3,"node_type":"process-2","position_x":1.5,"position_y":0,"data":{}}],"total":1}`)
	})
	mux.HandleFunc("GET /api/v1/node-types", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":[{"type":"process-1","function":"process_function_1"}],"total":1}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// run выполняет команду и возвращает stdout и stderr.
func run(t *testing.T, srv *httptest.Server, jsonMode bool, build func(func() *Client, func() *Output) *cobra.Command, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	clientFn := func() *Client { return NewClient(srv.URL) }
	outputFn := func() *Output { return NewOutputTo(jsonMode, &stdout, &stderr) }

	// nil заставил бы cobra читать os.Args тестового бинарника
	if args == nil {
		args = []string{}
	}

	cmd := build(clientFn, outputFn)
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestClient_ErrorFormats(t *testing.T) {
	srv := fakeAPI(t)
	c := NewClient(srv.URL)

	_, err := c.LoadWorkflow("missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Workflow not found", apiErr.Error())

	_, err = c.GetWorkflow("9")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
	assert.Equal(t, "NOT_FOUND: workflow not found", err.Error())
}

func TestClient_EditorEndpoints(t *testing.T) {
	srv := fakeAPI(t)
	c := NewClient(srv.URL)

	resp, err := c.SaveWorkflow("MyWorkflow", Graph{})
	require.NoError(t, err)
	assert.Equal(t, int64(7), resp.WorkflowID)

	g, err := c.LoadWorkflow("MyWorkflow")
	require.NoError(t, err)
	require.Len(t, g.Nodes, 1)
	assert.Equal(t, "process_function_1", g.Nodes[0]["function"])

	result, err := c.ExecuteNode("p1", "process-1")
	require.NoError(t, err)
	assert.Equal(t, "success", result["status"])

	require.NoError(t, c.DeleteNode("5"))
}

func TestWorkflowSaveCmd(t *testing.T) {
	srv := fakeAPI(t)

	file := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"name":"MyWorkflow","nodes":[{"id":"p1","nodeType":"process-1"}],"edges":[]}`), 0o644))

	_, stderr, err := run(t, srv, false, NewWorkflowCmd, "save", "-f", file)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Workflow saved: 7")

	_, _, err = run(t, srv, false, NewWorkflowCmd, "save", "-f", file, "--name", "bad")
	assert.EqualError(t, err, "node 0: nodeType is required")
}

func TestWorkflowLoadCmd_Table(t *testing.T) {
	srv := fakeAPI(t)

	stdout, _, err := run(t, srv, false, NewWorkflowCmd, "load", "MyWorkflow")
	require.NoError(t, err)
	assert.Contains(t, stdout, "NODE TYPE")
	assert.Contains(t, stdout, "process_function_1")
}

func TestWorkflowListCmd_JSON(t *testing.T) {
	srv := fakeAPI(t)

	stdout, _, err := run(t, srv, true, NewWorkflowCmd, "list", "--search", "orders")
	require.NoError(t, err)

	var got []WorkflowResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Orders", got[0].Name)
}

func TestNodeCmds(t *testing.T) {
	srv := fakeAPI(t)

	stdout, _, err := run(t, srv, false, NewNodeCmd, "exec", "--id", "p1", "--type", "process-1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Process 1 executed")

	stdout, _, err = run(t, srv, false, NewNodeCmd, "list", "--workflow", "3")
	require.NoError(t, err)
	assert.Contains(t, stdout, "process-2")
	assert.Contains(t, stdout, "1.5")

	_, stderr, err := run(t, srv, false, NewNodeCmd, "delete", "5")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Node deleted: 5")

	stdout, _, err = run(t, srv, false, NewNodeTypesCmd)
	require.NoError(t, err)
	assert.Contains(t, stdout, "process_function_1")
}
