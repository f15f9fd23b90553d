// Package audit пишет доменные события graphflow в структурированный лог.
package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/Graphflow/internal/mq"
	"github.com/shaiso/Graphflow/internal/telemetry"
)

// Auditor обрабатывает события из очереди events.audit.
type Auditor struct {
	logger *slog.Logger
}

// New создаёт Auditor.
func New(logger *slog.Logger) *Auditor {
	return &Auditor{logger: logger.With("component", "audit")}
}

// Handle — mq.Handler. Неизвестный тип или битый payload возвращают
// ошибку, и сообщение уходит в DLQ.
func (a *Auditor) Handle(ctx context.Context, msg *mq.Message) error {
	logger := a.logger.With(
		"message_id", msg.ID,
		"type", msg.Type,
		"published_at", msg.Timestamp,
	)

	switch msg.Type {
	case mq.MessageTypeWorkflowSaved:
		p, err := mq.ParsePayload[mq.WorkflowSavedPayload](msg)
		if err != nil {
			return err
		}
		telemetry.WithWorkflow(logger, p.WorkflowID, p.Name).InfoContext(ctx, "audit: workflow saved",
			"nodes", p.NodeCount,
			"edges", p.EdgeCount,
		)

	case mq.MessageTypeNodeExecuted:
		p, err := mq.ParsePayload[mq.NodeExecutedPayload](msg)
		if err != nil {
			return err
		}
		level := slog.LevelInfo
		if p.Status != mq.NodeStatusSucceeded {
			level = slog.LevelWarn
		}
		telemetry.WithNode(logger, p.NodeID, p.NodeType).Log(ctx, level, "audit: node executed",
			"status", p.Status,
			"error", p.Error,
		)

	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}

	telemetry.ObserveAuditEvent(string(msg.Type))
	return nil
}
