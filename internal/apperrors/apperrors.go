// Package apperrors описывает типизированные ошибки доменного уровня.
// Каждая ошибка несет Kind, по которому HTTP слой выбирает код ответа,
// а сервисы возвращают их единообразно вместо флагов success/error.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind представляет класс ошибки
type Kind string

const (
	KindNotFound   Kind = "not_found"
	KindValidation Kind = "validation"
	KindForbidden  Kind = "forbidden"
	KindConflict   Kind = "conflict"
	KindDownstream Kind = "downstream"
	KindInternal   Kind = "internal"
)

// Error представляет доменную ошибку с классом и необязательными деталями
type Error struct {
	Kind    Kind
	Err     error
	Details interface{}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus возвращает HTTP код, соответствующий классу ошибки
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindDownstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func NotFound(err error) *Error {
	return &Error{Kind: KindNotFound, Err: err}
}

func Validation(err error) *Error {
	return &Error{Kind: KindValidation, Err: err}
}

func Forbidden(err error) *Error {
	return &Error{Kind: KindForbidden, Err: err}
}

func Conflict(err error) *Error {
	return &Error{Kind: KindConflict, Err: err}
}

func Downstream(err error) *Error {
	return &Error{Kind: KindDownstream, Err: err}
}

// NotFoundf создает ошибку NotFound с форматированным сообщением
func NotFoundf(format string, args ...interface{}) *Error {
	return NotFound(fmt.Errorf(format, args...))
}

// Validationf создает ошибку Validation с форматированным сообщением
func Validationf(format string, args ...interface{}) *Error {
	return Validation(fmt.Errorf(format, args...))
}

// WithDetails добавляет детали, которые будут отданы клиенту в поле details
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// KindOf возвращает класс ошибки; для нетипизированных ошибок KindInternal
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is проверяет, относится ли ошибка к указанному классу
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
