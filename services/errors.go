package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	mysql "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// ServiceError is an expected failure carrying the HTTP status and the
// message shown to the visitor.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func ErrBadRequest(msg string) error {
	return &ServiceError{Status: http.StatusBadRequest, Message: msg}
}

func ErrUnauthorized(msg string) error {
	return &ServiceError{Status: http.StatusUnauthorized, Message: msg}
}

func ErrForbidden(msg string) error {
	return &ServiceError{Status: http.StatusForbidden, Message: msg}
}

func ErrNotFound(msg string) error {
	return &ServiceError{Status: http.StatusNotFound, Message: msg}
}

func ErrConflict(msg string) error {
	return &ServiceError{Status: http.StatusConflict, Message: msg}
}

func ErrTooManyRequests(msg string) error {
	return &ServiceError{Status: http.StatusTooManyRequests, Message: msg}
}

// StatusOf returns the HTTP status for err and the message safe to show.
func StatusOf(err error) (int, string) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Status, se.Message
	}
	return http.StatusInternalServerError, "Terjadi kesalahan pada server. Silakan coba lagi."
}

// notFoundOr maps gorm.ErrRecordNotFound onto a 404 and wraps anything else.
func notFoundOr(err error, msg, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound(msg)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isDuplicateKey recognises unique-constraint violations across drivers.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}
	lc := strings.ToLower(err.Error())
	return strings.Contains(lc, "duplicate") || strings.Contains(lc, "unique constraint")
}
