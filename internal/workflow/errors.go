package workflow

import "errors"

// Виды ошибок Store. Сравниваются через errors.Is.
var (
	// ErrInput — некорректные входные данные.
	ErrInput = errors.New("invalid input")

	// ErrNotFound — workflow с таким именем нет.
	ErrNotFound = errors.New("workflow not found")

	// ErrStorage — сбой хранилища.
	ErrStorage = errors.New("storage failure")
)

// Error — ошибка операции Store с видом и сообщением для клиента.
type Error struct {
	Op      string // операция: "save", "load"
	Kind    error  // ErrInput, ErrNotFound или ErrStorage
	Message string // текст для ответа клиенту
	Err     error  // исходная ошибка, может быть nil
}

// Error реализует интерфейс error.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Op + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Message
}

// Unwrap отдаёт и вид, и исходную ошибку.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func inputError(op, message string) *Error {
	return &Error{Op: op, Kind: ErrInput, Message: message}
}

func storageError(op string, err error) *Error {
	return &Error{Op: op, Kind: ErrStorage, Message: err.Error(), Err: err}
}
