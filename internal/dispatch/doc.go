// Package dispatch сопоставляет тип узла с обработчиком и вызывает его.
//
// # Обзор
//
// Dispatcher — неизменяемый реестр обработчиков, собранный один раз при
// старте процесса и переданный тем, кому он нужен (API, workflow.Store):
//
//	registry := dispatch.DefaultRegistry()  // process-1 ... process-6
//	result, err := registry.Invoke(ctx, "process-3", "process-2")
//	if errors.Is(err, dispatch.ErrUnregistered) {
//	    // тип не зарегистрирован
//	}
//
// Invoke не смотрит на сохранённые workflows, на edges и на данные узла:
// обработчик вызывается без входных данных, а node_id подмешивается в его
// результат.
//
// # Handler
//
//	type Handler interface {
//	    Type() string
//	    Name() string
//	    Run(ctx context.Context) (Result, error)
//	}
//
// Name — отображаемое имя обработчика. Оно записывается в поле function
// каждого узла при сохранении workflow. Для незарегистрированного типа
// записывается UnknownFunction.
//
// Новые типы узлов добавляются новой реализацией Handler и строкой в
// DefaultRegistry; сам Invoke при этом не меняется.
package dispatch
