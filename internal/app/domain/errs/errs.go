package errs

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrAlreadyExists    = errors.New("already exists")
	ErrInvalid          = errors.New("invalid argument")
	ErrUnavailable      = errors.New("unavailable")
)

// Invalid - ошибка валидации входных данных админки.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// ParseError - некорректные аргументы админ-команды.
type ParseError struct {
	Usage  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Reason == "" {
		return "parse error, usage: " + e.Usage
	}
	return fmt.Sprintf("parse error: %s, usage: %s", e.Reason, e.Usage)
}

func NewParseError(usage, reason string) *ParseError {
	return &ParseError{Usage: usage, Reason: reason}
}

// NotFoundError указывает, какая сущность не найдена.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func NotFound(entity, key string) error {
	return &NotFoundError{Entity: entity, Key: key}
}

type PermissionDeniedError struct {
	UserID string
	TierID string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("user %s has no access to tier %s", e.UserID, e.TierID)
}

func (e *PermissionDeniedError) Unwrap() error { return ErrPermissionDenied }

// FilterEvaluationError - ошибка компиляции или вычисления фильтра ответа.
type FilterEvaluationError struct {
	Expr string
	Err  error
}

func (e *FilterEvaluationError) Error() string {
	return fmt.Sprintf("filter %q: %v", e.Expr, e.Err)
}

func (e *FilterEvaluationError) Unwrap() error { return e.Err }

type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyExists) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// UserError несет сообщение, которое нужно показать отправителю.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *UserError) Unwrap() error { return e.Err }

func User(msg string, err error) error {
	return &UserError{Message: msg, Err: err}
}

// UserMessage достает пользовательское сообщение из цепочки ошибок.
func UserMessage(err error) (string, bool) {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Message, true
	}

	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Usage, true
	}
	return "", false
}
