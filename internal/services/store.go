package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophdiary/internal/chunk"
	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/dbx"
	"github.com/dmitrijs2005/gophdiary/internal/models"
	"github.com/dmitrijs2005/gophdiary/internal/repositories/entries"
	"github.com/dmitrijs2005/gophdiary/internal/repositories/media"
)

// txStore groups the repositories bound to one transaction handle.
type txStore struct {
	entries entries.Repository
	media   media.Repository
}

func newTxStore(db dbx.DBTX) txStore {
	return txStore{
		entries: entries.NewSQLiteRepository(db),
		media:   media.NewSQLiteRepository(db),
	}
}

// storeMedia splits data and writes the media row and its chunks. The caller
// provides the transaction.
func (s txStore) storeMedia(ctx context.Context, chunkSize int, rec models.MediaRecord, data []byte) (models.Media, int, error) {
	chunks, err := chunk.Split(data, chunkSize)
	if err != nil {
		return models.Media{}, 0, err
	}

	if rec.MimeType == "" {
		rec.MimeType = common.DefaultMimeType
	}
	rec.Size = int64(len(data))
	rec.CreatedAt = time.Now().UTC().UnixMilli()

	id, err := s.media.Insert(ctx, &rec)
	if err != nil {
		return models.Media{}, 0, err
	}
	if err := s.media.InsertChunks(ctx, id, chunks); err != nil {
		return models.Media{}, 0, err
	}

	return models.Media{ID: id, Data: data, MimeType: rec.MimeType}, len(chunks), nil
}

// loadMedia reassembles the data of rec from its chunks.
func (s txStore) loadMedia(ctx context.Context, rec models.MediaRecord) (models.Media, error) {
	chunks, err := s.media.GetChunks(ctx, rec.ID)
	if err != nil {
		return models.Media{}, err
	}
	if len(chunks) == 0 && rec.Size > 0 {
		return models.Media{}, fmt.Errorf("media %d: no chunks for %d bytes: %w", rec.ID, rec.Size, common.ErrInconsistentState)
	}

	parts := make([][]byte, len(chunks))
	for i, c := range chunks {
		if c.Seq != i {
			return models.Media{}, fmt.Errorf("media %d: chunk %d has seq %d: %w", rec.ID, i, c.Seq, common.ErrInconsistentState)
		}
		parts[i] = c.Data
	}

	data := chunk.Join(parts)
	if int64(len(data)) != rec.Size {
		return models.Media{}, fmt.Errorf("media %d: reassembled %d bytes, expected %d: %w", rec.ID, len(data), rec.Size, common.ErrInconsistentState)
	}
	return models.Media{ID: rec.ID, Data: data, MimeType: rec.MimeType}, nil
}

// entryMedia returns the resolved media of an entry in display order.
func (s txStore) entryMedia(ctx context.Context, entryID int64) ([]models.Media, error) {
	recs, err := s.media.GetByDiaryEntryID(ctx, entryID)
	if err != nil {
		return nil, err
	}

	result := make([]models.Media, 0, len(recs))
	for _, rec := range recs {
		m, err := s.loadMedia(ctx, rec)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, nil
}

// resolveEntry loads an entry with its media.
func (s txStore) resolveEntry(ctx context.Context, id int64) (models.DiaryEntry, error) {
	e, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return models.DiaryEntry{}, err
	}
	e.Media, err = s.entryMedia(ctx, id)
	if err != nil {
		return models.DiaryEntry{}, err
	}
	return *e, nil
}

// attach links each persisted media to entryID. Drafts are attached, media
// already on entryID are left alone, media owned by another entry are
// rejected.
func (s txStore) attach(ctx context.Context, entryID int64, items []models.Media) (int, error) {
	attached := 0
	for _, m := range items {
		if !m.IsPersisted() {
			return attached, fmt.Errorf("attach media with unset id: %w", common.ErrInvalidArgument)
		}

		rec, err := s.media.GetByID(ctx, m.ID)
		if err != nil {
			return attached, err
		}

		switch {
		case rec.IsDraft():
			if err := s.media.Attach(ctx, m.ID, entryID); err != nil {
				return attached, err
			}
			attached++
		case *rec.DiaryEntryID == entryID:
		default:
			return attached, fmt.Errorf("media %d belongs to entry %d: %w", m.ID, *rec.DiaryEntryID, common.ErrInvalidArgument)
		}
	}
	return attached, nil
}

// snapshot reads the whole diary.
func (s txStore) snapshot(ctx context.Context) (models.Diary, error) {
	all, err := s.entries.GetAll(ctx)
	if err != nil {
		return models.Diary{}, err
	}

	for i := range all {
		all[i].Media, err = s.entryMedia(ctx, all[i].ID)
		if err != nil {
			return models.Diary{}, err
		}
	}
	return models.Diary{Entries: all}, nil
}
