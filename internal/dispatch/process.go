package dispatch

import (
	"context"
	"fmt"
)

// ProcessHandler — обработчик узлов "process-N".
//
// Все шесть обработчиков одинаковы и ничего не вычисляют: это точка
// расширения для настоящей логики узлов.
type ProcessHandler struct {
	n int
}

// NewProcessHandler создаёт обработчик для типа "process-n".
func NewProcessHandler(n int) *ProcessHandler {
	return &ProcessHandler{n: n}
}

// Type возвращает "process-N".
func (h *ProcessHandler) Type() string {
	return fmt.Sprintf("process-%d", h.n)
}

// Name возвращает "process_function_N".
func (h *ProcessHandler) Name() string {
	return fmt.Sprintf("process_function_%d", h.n)
}

// Run возвращает фиксированный результат.
func (h *ProcessHandler) Run(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Result{
		"message": fmt.Sprintf("Process %d executed", h.n),
		"status":  "success",
	}, nil
}
