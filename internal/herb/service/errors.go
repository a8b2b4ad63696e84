package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/repository"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/trace"
)

// FieldError 字段级校验错误
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message,omitempty"`
}

// Error 业务错误，handler 按 Status/Code 输出
type Error struct {
	Status  int
	Code    int
	Message string
	Fields  []FieldError
}

func (e *Error) Error() string {
	return e.Message
}

func newError(status, code int, format string, args ...interface{}) *Error {
	return &Error{Status: status, Code: code, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...interface{}) *Error {
	return newError(http.StatusBadRequest, 40000, format, args...)
}

// Validation 字段校验失败
func Validation(fields ...FieldError) *Error {
	return &Error{Status: http.StatusBadRequest, Code: 40001, Message: "validation failed", Fields: fields}
}

func Unauthorized(format string, args ...interface{}) *Error {
	return newError(http.StatusUnauthorized, 40100, format, args...)
}

func Forbidden(format string, args ...interface{}) *Error {
	return newError(http.StatusForbidden, 40300, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return newError(http.StatusNotFound, 40400, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return newError(http.StatusConflict, 40900, format, args...)
}

// notFound 仓库 ErrNotFound → 404，其余原样返回
func notFound(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return NotFound("%s not found", what)
	}
	return err
}

// conflict 唯一约束冲突 → 409
func conflict(err error, what string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return Conflict("%s already exists", what)
	}
	return err
}

// resolveError 实体引用解析错误
func resolveError(err error) error {
	switch {
	case errors.Is(err, trace.ErrReferenceNotFound):
		return NotFound("%s", err.Error())
	case errors.Is(err, trace.ErrAmbiguousReference):
		return Validation(FieldError{Field: "finished_good_id", Rule: "excluded_with", Message: err.Error()})
	}
	return err
}

func invalidTransition(kind, from, to string) *Error {
	return BadRequest("invalid %s status transition: %s -> %s", kind, from, to)
}
