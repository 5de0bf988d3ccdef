package dbx

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophdiary/internal/common"
)

// Classify annotates err with op and maps it onto the common taxonomy:
// sql.ErrNoRows becomes common.ErrNotFound, errors already carrying a
// common sentinel keep it, anything else is a common.ErrPersistence.
func Classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, common.ErrNotFound)
	case errors.Is(err, common.ErrNotFound),
		errors.Is(err, common.ErrInvalidArgument),
		errors.Is(err, common.ErrPersistence),
		errors.Is(err, common.ErrInconsistentState):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, common.ErrPersistence, err)
	}
}
