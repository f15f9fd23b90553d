package dispatch

import "errors"

// Ошибки диспетчера.
var (
	// ErrUnregistered — для типа узла нет обработчика.
	ErrUnregistered = errors.New("function not found for node type")

	// ErrDuplicateType — два обработчика с одним типом при сборке реестра.
	ErrDuplicateType = errors.New("duplicate node type")
)

// UnregisteredError — ошибка вызова незарегистрированного типа.
type UnregisteredError struct {
	NodeType string
}

// Error возвращает текст в формате, который ожидает редактор.
func (e *UnregisteredError) Error() string {
	return "Function not found for node type: " + e.NodeType
}

// Unwrap позволяет сравнивать через errors.Is(err, ErrUnregistered).
func (e *UnregisteredError) Unwrap() error {
	return ErrUnregistered
}
