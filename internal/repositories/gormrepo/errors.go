package gormrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/clickbazaar/api/internal/repositories"
)

// translate maps gorm failures onto the repository error taxonomy.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repositories.NewError(op, repositories.ErrorNotFound, "record not found", err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repositories.NewError(op, repositories.ErrorConflict, "duplicate record", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return repositories.NewError(op, repositories.ErrorUnavailable, "database unreachable", err)
	default:
		return repositories.NewError(op, repositories.ErrorUnknown, err.Error(), err)
	}
}

func notFound(op, message string) error {
	return repositories.NewError(op, repositories.ErrorNotFound, message, nil)
}

func insufficientStock(op, message string) error {
	return repositories.NewError(op, repositories.ErrorInsufficientStock, message, nil)
}
