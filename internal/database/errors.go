package database

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// Kind classifies business failures so transports can map them to status codes.
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindInvalidReference Kind = "invalid_reference"
	KindInvalid          Kind = "invalid"
	KindNoData           Kind = "no_data"
)

// Error is a business failure carrying its Kind. errors.Is matches on Kind,
// so errors.Is(err, ErrNotFound) holds for any not-found error.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrNotFound         = &Error{Kind: KindNotFound, Message: "record not found"}
	ErrConflict         = &Error{Kind: KindConflict, Message: "conflict"}
	ErrInvalidReference = &Error{Kind: KindInvalidReference, Message: "invalid reference"}
	ErrInvalid          = &Error{Kind: KindInvalid, Message: "invalid input"}
	ErrNoData           = &Error{Kind: KindNoData, Message: "no data"}
)

func newError(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return newError(KindNotFound, format, args...)
}

func Conflict(format string, args ...any) error {
	return newError(KindConflict, format, args...)
}

func InvalidReference(format string, args ...any) error {
	return newError(KindInvalidReference, format, args...)
}

func Invalid(format string, args ...any) error {
	return newError(KindInvalid, format, args...)
}

func NoData(format string, args ...any) error {
	return newError(KindNoData, format, args...)
}

// KindOf returns the Kind of err, or "" when err is not a business failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsUniqueViolation reports whether err came from a unique constraint, on
// either supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
