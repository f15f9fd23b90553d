package dispatch

import (
	"context"
	"maps"
)

// UnknownFunction — имя, которое получает узел с незарегистрированным типом.
const UnknownFunction = "unknown_function"

// Handler — обработчик одного типа узла.
type Handler interface {
	// Type возвращает тип узла, который обрабатывает handler.
	Type() string

	// Name возвращает отображаемое имя (пишется в NodeRecord.Function).
	Name() string

	// Run выполняет обработчик. Входных данных у него нет.
	Run(ctx context.Context) (Result, error)
}

// Result — результат обработчика: плоский набор полей.
type Result map[string]any

// WithNodeID возвращает копию результата с добавленным node_id.
// node_id перекрывает одноимённое поле обработчика.
func (r Result) WithNodeID(nodeID string) Result {
	out := make(Result, len(r)+1)
	maps.Copy(out, r)
	out["node_id"] = nodeID
	return out
}
