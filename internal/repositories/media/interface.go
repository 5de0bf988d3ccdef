package media

import (
	"context"

	"github.com/dmitrijs2005/gophdiary/internal/models"
)

// Repository is the media and chunk store.
type Repository interface {
	// Insert stores a media row and returns its id. rec.ID is ignored.
	Insert(ctx context.Context, rec *models.MediaRecord) (int64, error)
	// InsertChunks stores chunks of mediaID with seq 0..len(chunks)-1.
	InsertChunks(ctx context.Context, mediaID int64, chunks [][]byte) error

	GetByID(ctx context.Context, id int64) (*models.MediaRecord, error)
	// GetByDiaryEntryID returns the media of an entry in ascending id order.
	GetByDiaryEntryID(ctx context.Context, entryID int64) ([]models.MediaRecord, error)
	// GetDrafts returns unattached media. An empty session selects drafts of
	// every session.
	GetDrafts(ctx context.Context, session string) ([]models.MediaRecord, error)
	// GetChunks returns the chunks of mediaID ordered by seq.
	GetChunks(ctx context.Context, mediaID int64) ([]models.MediaChunk, error)

	// Attach links a draft to an entry and clears its session. It fails
	// with common.ErrNotFound when mediaID is not a draft.
	Attach(ctx context.Context, mediaID, entryID int64) error

	// Delete removes the chunks and then the media row.
	Delete(ctx context.Context, mediaID int64) error
	// DeleteDrafts removes unattached media with their chunks and returns
	// the number of media removed. An empty session selects every draft.
	DeleteDrafts(ctx context.Context, session string) (int64, error)

	// CountOrphanChunks counts chunk rows whose media row is missing.
	CountOrphanChunks(ctx context.Context) (int64, error)
}
