package entries

import (
	"context"

	"github.com/dmitrijs2005/gophdiary/internal/models"
)

// Repository describes the storage operations for diary entries.
// Returned entries never carry media.
type Repository interface {
	// Insert stores a new entry and returns its assigned id. The id field of
	// the argument is ignored.
	Insert(ctx context.Context, entry *models.DiaryEntry) (int64, error)

	// Update overwrites text and date of an existing entry. It fails with
	// common.ErrInvalidArgument for an unset id and common.ErrNotFound when
	// no such row exists.
	Update(ctx context.Context, entry *models.DiaryEntry) error

	// GetByID returns the entry or common.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*models.DiaryEntry, error)

	// GetAll returns all entries, newest first.
	GetAll(ctx context.Context) ([]models.DiaryEntry, error)
}
