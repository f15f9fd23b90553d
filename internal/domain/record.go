package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Position — координаты узла на холсте.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeRecord — узел в том виде, в котором он хранится внутри Workflow.Nodes.
//
// Объект хранится как есть, ключ в ключ: при записи обратно меняется только
// function. Известные поля читаются по точному имени ключа.
type NodeRecord struct {
	// Function — имя обработчика, проставляется сервером при сохранении.
	// Пустое значение оставляет function из исходного объекта.
	Function string

	fields map[string]json.RawMessage
}

// Ключи известных полей NodeRecord.
const (
	keyID       = "id"
	keyNodeType = "nodeType"
	keyPosition = "position"
	keyData     = "data"
	keyFunction = "function"
)

// ID возвращает id узла в редакторе ("process-3"); "" если его нет
// или он не строка.
func (n NodeRecord) ID() string {
	return n.stringField(keyID)
}

// NodeType возвращает тип узла, по которому выбирается обработчик.
func (n NodeRecord) NodeType() string {
	return n.stringField(keyNodeType)
}

// Position возвращает координаты узла; false, если их нет или они не объект.
func (n NodeRecord) Position() (Position, bool) {
	var p Position
	v, ok := n.fields[keyPosition]
	if !ok || isNull(v) {
		return p, false
	}
	if err := json.Unmarshal(v, &p); err != nil {
		return Position{}, false
	}
	return p, true
}

// Data возвращает данные узла. Числа остаются json.Number.
func (n NodeRecord) Data() map[string]any {
	v, ok := n.fields[keyData]
	if !ok || isNull(v) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil
	}
	return out
}

// Field возвращает исходное значение ключа.
func (n NodeRecord) Field(key string) (json.RawMessage, bool) {
	v, ok := n.fields[key]
	return v, ok
}

// Len — количество ключей исходного объекта.
func (n NodeRecord) Len() int {
	return len(n.fields)
}

func (n NodeRecord) stringField(key string) string {
	v, ok := n.fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return s
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// MarshalJSON записывает исходный объект, поверх — function, если он задан.
func (n NodeRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(n.fields)+1)
	for k, v := range n.fields {
		out[k] = v
	}
	if n.Function != "" {
		fn, err := json.Marshal(n.Function)
		if err != nil {
			return nil, err
		}
		out[keyFunction] = fn
	}
	return json.Marshal(out)
}

// UnmarshalJSON разбирает объект узла.
// Не-объект или nodeType, не являющийся строкой, — ошибка.
func (n *NodeRecord) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return fmt.Errorf("node record: %w", err)
	}
	if fields == nil {
		return fmt.Errorf("node record: expected object, got null")
	}

	if v, ok := fields[keyNodeType]; ok && !isNull(v) {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return fmt.Errorf("node record: nodeType: %w", err)
		}
	}

	*n = NodeRecord{fields: fields}
	n.Function = n.stringField(keyFunction)
	return nil
}

// Edge — связь между узлами. Для ядра это непрозрачный JSON-объект
// (React Flow присылает id, source, target, sourceHandle, ...).
type Edge map[string]json.RawMessage

// Source возвращает id исходного узла, если он есть.
func (e Edge) Source() string {
	return e.stringField("source")
}

// Target возвращает id целевого узла, если он есть.
func (e Edge) Target() string {
	return e.stringField("target")
}

func (e Edge) stringField(key string) string {
	v, ok := e[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return s
}
