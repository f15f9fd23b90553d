package mq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений. Совпадают с routing key.
const (
	MessageTypeWorkflowSaved MessageType = "workflow.saved"
	MessageTypeNodeExecuted  MessageType = "node.executed"
)

// Статусы выполнения узла в NodeExecutedPayload.
const (
	NodeStatusSucceeded    = "succeeded"
	NodeStatusUnregistered = "unregistered"
	NodeStatusFailed       = "failed"
)

// Message — конверт сообщения.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка в JSON.
	Payload json.RawMessage `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// WorkflowSavedPayload — payload события о сохранении workflow.
type WorkflowSavedPayload struct {
	WorkflowID int64  `json:"workflow_id"`
	Name       string `json:"name"`
	NodeCount  int    `json:"node_count"`
	EdgeCount  int    `json:"edge_count"`
}

// NodeExecutedPayload — payload события о выполнении узла.
type NodeExecutedPayload struct {
	NodeID   string `json:"node_id"`
	NodeType string `json:"node_type"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// NewMessage собирает сообщение с новым ID и текущим временем.
func NewMessage(msgType MessageType, payload any) (*Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	return &Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Payload:   raw,
		Timestamp: time.Now().UTC(),
	}, nil
}

// ParsePayload парсит payload сообщения в указанный тип.
func ParsePayload[T any](msg *Message) (T, error) {
	var result T

	if len(msg.Payload) == 0 {
		return result, fmt.Errorf("message %s has no payload", msg.ID)
	}
	if err := json.Unmarshal(msg.Payload, &result); err != nil {
		return result, fmt.Errorf("unmarshal payload: %w", err)
	}

	return result, nil
}
