package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// SaveWorkflowResponse — ответ на сохранение графа.
type SaveWorkflowResponse struct {
	Message    string `json:"message"`
	WorkflowID int64  `json:"workflow_id"`
}

// Graph — граф в формате редактора. Узлы и рёбра не интерпретируются.
type Graph struct {
	Name  string           `json:"name,omitempty"`
	Nodes []map[string]any `json:"nodes"`
	Edges []map[string]any `json:"edges"`
}

// WorkflowResponse — workflow из /api/v1.
type WorkflowResponse struct {
	ID        int64            `json:"id"`
	Name      string           `json:"name"`
	Nodes     []map[string]any `json:"nodes"`
	Edges     []map[string]any `json:"edges"`
	CreatedAt string           `json:"created_at"`
}

// NodeResponse — узел из /api/v1.
type NodeResponse struct {
	ID         int64          `json:"id"`
	WorkflowID int64          `json:"workflow_id"`
	NodeType   string         `json:"node_type"`
	PositionX  float64        `json:"position_x"`
	PositionY  float64        `json:"position_y"`
	Data       map[string]any `json:"data"`
}

// NodeTypeResponse — зарегистрированный тип узла.
type NodeTypeResponse struct {
	Type     string `json:"type"`
	Function string `json:"function"`
}

// --- Request types ---

// CreateNodeRequest — создание узла.
type CreateNodeRequest struct {
	WorkflowID int64          `json:"workflow_id"`
	NodeType   string         `json:"node_type"`
	PositionX  float64        `json:"position_x"`
	PositionY  float64        `json:"position_y"`
	Data       map[string]any `json:"data,omitempty"`
}

// ListNodesOpts — параметры фильтрации узлов.
type ListNodesOpts struct {
	WorkflowID int64
	NodeType   string
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

// errorResponse покрывает оба формата: строку и объект {code, message}.
type errorResponse struct {
	Error json.RawMessage `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIError — ошибка, которую вернул сервер.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// --- Client ---

// Client — HTTP-клиент для graphflow API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Editor endpoints ---

// SaveWorkflow сохраняет граф под именем name.
func (c *Client) SaveWorkflow(name string, g Graph) (*SaveWorkflowResponse, error) {
	g.Name = name
	var resp SaveWorkflowResponse
	err := c.doRaw(http.MethodPost, "/api/save_workflow/", g, &resp)
	return &resp, err
}

// LoadWorkflow загружает граф по имени.
func (c *Client) LoadWorkflow(name string) (*Graph, error) {
	params := url.Values{}
	params.Set("name", name)

	var g Graph
	err := c.doRaw(http.MethodGet, "/api/load_workflow/?"+params.Encode(), nil, &g)
	return &g, err
}

// ExecuteNode выполняет обработчик типа узла.
func (c *Client) ExecuteNode(nodeID, nodeType string) (map[string]any, error) {
	body := map[string]string{"node_id": nodeID, "node_type": nodeType}
	var result map[string]any
	err := c.doRaw(http.MethodPost, "/api/execute_node/", body, &result)
	return result, err
}

// --- Workflows ---

// ListWorkflows возвращает workflows, имя которых содержит search.
func (c *Client) ListWorkflows(search string) ([]WorkflowResponse, error) {
	params := url.Values{}
	if search != "" {
		params.Set("search", search)
	}

	var workflows []WorkflowResponse
	err := c.list("/api/v1/workflows", params, &workflows)
	return workflows, err
}

// GetWorkflow возвращает workflow по ID.
func (c *Client) GetWorkflow(id string) (*WorkflowResponse, error) {
	var wf WorkflowResponse
	err := c.get("/api/v1/workflows/"+id, &wf)
	return &wf, err
}

// DeleteWorkflow удаляет workflow.
func (c *Client) DeleteWorkflow(id string) error {
	return c.delete("/api/v1/workflows/" + id)
}

// --- Nodes ---

// ListNodes возвращает узлы с фильтрацией.
func (c *Client) ListNodes(opts ListNodesOpts) ([]NodeResponse, error) {
	params := url.Values{}
	if opts.WorkflowID > 0 {
		params.Set("workflow_id", strconv.FormatInt(opts.WorkflowID, 10))
	}
	if opts.NodeType != "" {
		params.Set("node_type", opts.NodeType)
	}

	var nodes []NodeResponse
	err := c.list("/api/v1/nodes", params, &nodes)
	return nodes, err
}

// CreateNode создаёт узел.
func (c *Client) CreateNode(req CreateNodeRequest) (*NodeResponse, error) {
	var node NodeResponse
	err := c.post("/api/v1/nodes", req, &node)
	return &node, err
}

// DeleteNode удаляет узел.
func (c *Client) DeleteNode(id string) error {
	return c.delete("/api/v1/nodes/" + id)
}

// ListNodeTypes возвращает зарегистрированные типы узлов.
func (c *Client) ListNodeTypes() ([]NodeTypeResponse, error) {
	var types []NodeTypeResponse
	err := c.list("/api/v1/node-types", nil, &types)
	return types, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

// doData разбирает ответ в конверте {"data": ...}.
func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

// doRaw разбирает ответ эндпоинтов редактора, у которых нет конверта.
func (c *Client) doRaw(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	apiErr := &APIError{
		Status:  resp.StatusCode,
		Message: fmt.Sprintf("API error: HTTP %d", resp.StatusCode),
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || len(er.Error) == 0 {
		return apiErr
	}

	var flat string
	if err := json.Unmarshal(er.Error, &flat); err == nil {
		apiErr.Message = flat
		return apiErr
	}

	var detail errorDetail
	if err := json.Unmarshal(er.Error, &detail); err == nil {
		apiErr.Code = detail.Code
		apiErr.Message = detail.Message
	}
	return apiErr
}
