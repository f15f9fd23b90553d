package dispatch

import (
	"context"
	"fmt"
	"sort"
)

// processHandlerCount — сколько типов process-N регистрирует DefaultRegistry.
const processHandlerCount = 6

// Registry — неизменяемый реестр обработчиков по типу узла.
//
// После NewRegistry содержимое не меняется, поэтому чтение не требует
// блокировок.
type Registry struct {
	handlers map[string]Handler
	types    []string
}

// NewRegistry собирает реестр из обработчиков.
// Возвращает ErrDuplicateType, если два обработчика заявляют один тип.
func NewRegistry(handlers ...Handler) (*Registry, error) {
	r := &Registry{
		handlers: make(map[string]Handler, len(handlers)),
		types:    make([]string, 0, len(handlers)),
	}

	for _, h := range handlers {
		t := h.Type()
		if _, exists := r.handlers[t]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateType, t)
		}
		r.handlers[t] = h
		r.types = append(r.types, t)
	}
	sort.Strings(r.types)

	return r, nil
}

// DefaultRegistry создаёт реестр со стандартными обработчиками process-1..process-6.
func DefaultRegistry() *Registry {
	handlers := make([]Handler, 0, processHandlerCount)
	for n := 1; n <= processHandlerCount; n++ {
		handlers = append(handlers, NewProcessHandler(n))
	}

	r, err := NewRegistry(handlers...)
	if err != nil {
		// типы process-N уникальны по построению
		panic(err)
	}
	return r
}

// Get возвращает обработчик по типу.
func (r *Registry) Get(nodeType string) (Handler, error) {
	h, ok := r.handlers[nodeType]
	if !ok {
		return nil, &UnregisteredError{NodeType: nodeType}
	}
	return h, nil
}

// Has проверяет, зарегистрирован ли тип.
func (r *Registry) Has(nodeType string) bool {
	_, ok := r.handlers[nodeType]
	return ok
}

// FunctionName возвращает имя обработчика для типа или UnknownFunction.
func (r *Registry) FunctionName(nodeType string) string {
	if h, ok := r.handlers[nodeType]; ok {
		return h.Name()
	}
	return UnknownFunction
}

// Types возвращает отсортированный список зарегистрированных типов.
func (r *Registry) Types() []string {
	out := make([]string, len(r.types))
	copy(out, r.types)
	return out
}

// Count возвращает количество обработчиков.
func (r *Registry) Count() int {
	return len(r.handlers)
}

// Invoke вызывает обработчик типа nodeType и добавляет nodeID в результат.
//
// Для незарегистрированного типа возвращает *UnregisteredError
// (errors.Is(err, ErrUnregistered) == true). Ошибка самого обработчика
// возвращается обёрнутой.
func (r *Registry) Invoke(ctx context.Context, nodeID, nodeType string) (Result, error) {
	h, err := r.Get(nodeType)
	if err != nil {
		return nil, err
	}

	res, err := h.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", h.Name(), err)
	}

	return res.WithNodeID(nodeID), nil
}
