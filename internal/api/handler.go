package api

import (
	"context"
	"log/slog"

	"github.com/shaiso/Graphflow/internal/dispatch"
	"github.com/shaiso/Graphflow/internal/mq"
	"github.com/shaiso/Graphflow/internal/repo"
	"github.com/shaiso/Graphflow/internal/workflow"
)

// EventPublisher публикует доменные события. Реализуется *mq.Publisher.
type EventPublisher interface {
	PublishWorkflowSaved(ctx context.Context, payload mq.WorkflowSavedPayload) error
	PublishNodeExecuted(ctx context.Context, payload mq.NodeExecutedPayload) error
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	workflows  repo.WorkflowStore
	nodes      repo.NodeStore
	store      *workflow.Store
	registry   *dispatch.Registry
	publisher  EventPublisher
	logger     *slog.Logger
	corsOrigin string
}

// Config — конфигурация для создания Handler.
type Config struct {
	Workflows repo.WorkflowStore
	Nodes     repo.NodeStore
	Registry  *dispatch.Registry

	// Publisher может быть nil — тогда события не публикуются.
	Publisher EventPublisher

	Logger *slog.Logger

	// CORSOrigin — разрешённый Origin браузерного редактора.
	// Пустая строка отключает CORS-заголовки.
	CORSOrigin string
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	registry := cfg.Registry
	if registry == nil {
		registry = dispatch.DefaultRegistry()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		workflows:  cfg.Workflows,
		nodes:      cfg.Nodes,
		store:      workflow.NewStore(cfg.Workflows, registry),
		registry:   registry,
		publisher:  cfg.Publisher,
		logger:     logger,
		corsOrigin: cfg.CORSOrigin,
	}
}
