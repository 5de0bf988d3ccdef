package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/dbx"
	"github.com/dmitrijs2005/gophdiary/internal/logging"
	"github.com/dmitrijs2005/gophdiary/internal/models"
	"github.com/dustin/go-humanize"
)

// MediaService defines the media operations of the diary.
//
// Contract:
//   - AddMedia: store data as a media attached to an existing entry.
//   - GetMediaByDiaryEntryID: resolved media of an entry in display order.
//   - GetMediaByMediaID: one resolved media or common.ErrNotFound.
//   - RemoveMedia: delete the media at a position of an entry's media list.
//   - RemoveMediaByID: delete one media by id.
//   - SaveDraftFile: store data as a draft owned by an editing session.
//   - AttachToDiaryEntry: turn drafts into media of an entry.
//   - RemoveDraftMedia: delete every draft.
//   - RemoveSessionDrafts: delete the drafts of one editing session.
//   - Verify: check stored chunks against their media rows.
//
// Writes that touch a media row and its chunks are atomic.
type MediaService interface {
	AddMedia(ctx context.Context, entryID int64, m models.Media) (models.Media, error)
	GetMediaByDiaryEntryID(ctx context.Context, entryID int64) ([]models.Media, error)
	GetMediaByMediaID(ctx context.Context, mediaID int64) (models.Media, error)
	RemoveMedia(ctx context.Context, entryID int64, index int) error
	RemoveMediaByID(ctx context.Context, mediaID int64) error
	SaveDraftFile(ctx context.Context, session string, data []byte, mimeType string) (models.Media, error)
	AttachToDiaryEntry(ctx context.Context, items []models.Media, entryID int64) error
	RemoveDraftMedia(ctx context.Context) (int64, error)
	RemoveSessionDrafts(ctx context.Context, session string) (int64, error)
	Verify(ctx context.Context) error
}

type mediaService struct {
	db        *sql.DB
	chunkSize int
	logger    logging.Logger
}

// NewMediaService returns a MediaService storing data in chunks of at most
// chunkSize bytes.
func NewMediaService(db *sql.DB, chunkSize int, logger logging.Logger) (MediaService, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size %d: %w", chunkSize, common.ErrInvalidArgument)
	}
	return &mediaService{db: db, chunkSize: chunkSize, logger: logger.With("component", "media")}, nil
}

func (s *mediaService) AddMedia(ctx context.Context, entryID int64, m models.Media) (models.Media, error) {
	var (
		stored models.Media
		chunks int
	)
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		st := newTxStore(tx)
		if _, err := st.entries.GetByID(ctx, entryID); err != nil {
			return err
		}

		var err error
		stored, chunks, err = st.storeMedia(ctx, s.chunkSize, models.MediaRecord{MimeType: m.MimeType, DiaryEntryID: &entryID}, m.Data)
		return err
	})
	if err != nil {
		return models.Media{}, fmt.Errorf("add media to entry %d: %w", entryID, err)
	}

	s.logger.Info(ctx, "media added",
		"entry_id", entryID, "media_id", stored.ID, "chunks", chunks, "size", humanize.IBytes(uint64(len(stored.Data))))
	return stored, nil
}

func (s *mediaService) GetMediaByDiaryEntryID(ctx context.Context, entryID int64) ([]models.Media, error) {
	var result []models.Media
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		result, err = newTxStore(tx).entryMedia(ctx, entryID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get media of entry %d: %w", entryID, err)
	}
	return result, nil
}

func (s *mediaService) GetMediaByMediaID(ctx context.Context, mediaID int64) (models.Media, error) {
	var result models.Media
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		st := newTxStore(tx)
		rec, err := st.media.GetByID(ctx, mediaID)
		if err != nil {
			return err
		}
		result, err = st.loadMedia(ctx, *rec)
		return err
	})
	if err != nil {
		return models.Media{}, fmt.Errorf("get media %d: %w", mediaID, err)
	}
	return result, nil
}

func (s *mediaService) RemoveMedia(ctx context.Context, entryID int64, index int) error {
	if index < 0 {
		return fmt.Errorf("remove media at index %d: %w", index, common.ErrInvalidArgument)
	}

	var removed int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		st := newTxStore(tx)
		recs, err := st.media.GetByDiaryEntryID(ctx, entryID)
		if err != nil {
			return err
		}
		if index >= len(recs) {
			return fmt.Errorf("entry %d has %d media, no index %d: %w", entryID, len(recs), index, common.ErrNotFound)
		}

		removed = recs[index].ID
		return st.media.Delete(ctx, removed)
	})
	if err != nil {
		return fmt.Errorf("remove media %d of entry %d: %w", index, entryID, err)
	}

	s.logger.Info(ctx, "media removed", "entry_id", entryID, "index", index, "media_id", removed)
	return nil
}

func (s *mediaService) RemoveMediaByID(ctx context.Context, mediaID int64) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return newTxStore(tx).media.Delete(ctx, mediaID)
	})
	if err != nil {
		return fmt.Errorf("remove media %d: %w", mediaID, err)
	}

	s.logger.Info(ctx, "media removed", "media_id", mediaID)
	return nil
}

func (s *mediaService) SaveDraftFile(ctx context.Context, session string, data []byte, mimeType string) (models.Media, error) {
	var (
		stored models.Media
		chunks int
	)
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		stored, chunks, err = newTxStore(tx).storeMedia(ctx, s.chunkSize, models.MediaRecord{MimeType: mimeType, DraftSession: session}, data)
		return err
	})
	if err != nil {
		return models.Media{}, fmt.Errorf("save draft: %w", err)
	}

	s.logger.Debug(ctx, "draft saved",
		"session", session, "media_id", stored.ID, "chunks", chunks, "size", humanize.IBytes(uint64(len(data))))
	return stored, nil
}

func (s *mediaService) AttachToDiaryEntry(ctx context.Context, items []models.Media, entryID int64) error {
	var attached int
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		st := newTxStore(tx)
		if _, err := st.entries.GetByID(ctx, entryID); err != nil {
			return err
		}

		var err error
		attached, err = st.attach(ctx, entryID, items)
		return err
	})
	if err != nil {
		return fmt.Errorf("attach media to entry %d: %w", entryID, err)
	}

	s.logger.Info(ctx, "media attached", "entry_id", entryID, "count", attached)
	return nil
}

func (s *mediaService) RemoveDraftMedia(ctx context.Context) (int64, error) {
	return s.removeDrafts(ctx, "")
}

func (s *mediaService) RemoveSessionDrafts(ctx context.Context, session string) (int64, error) {
	if session == "" {
		return 0, fmt.Errorf("remove session drafts: empty session: %w", common.ErrInvalidArgument)
	}
	return s.removeDrafts(ctx, session)
}

func (s *mediaService) removeDrafts(ctx context.Context, session string) (int64, error) {
	var n int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		n, err = newTxStore(tx).media.DeleteDrafts(ctx, session)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("remove drafts: %w", err)
	}

	if n > 0 {
		s.logger.Info(ctx, "drafts removed", "session", session, "count", n)
	}
	return n, nil
}

func (s *mediaService) Verify(ctx context.Context) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		st := newTxStore(tx)

		orphans, err := st.media.CountOrphanChunks(ctx)
		if err != nil {
			return err
		}
		if orphans > 0 {
			return fmt.Errorf("%d chunk rows without media: %w", orphans, common.ErrInconsistentState)
		}

		if _, err := st.snapshot(ctx); err != nil {
			return err
		}

		drafts, err := st.media.GetDrafts(ctx, "")
		if err != nil {
			return err
		}
		for _, rec := range drafts {
			if _, err := st.loadMedia(ctx, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "integrity check failed", "error", err)
		return fmt.Errorf("verify media: %w", err)
	}
	return nil
}
