package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/dbx"
	"github.com/dmitrijs2005/gophdiary/internal/hub"
	"github.com/dmitrijs2005/gophdiary/internal/logging"
	"github.com/dmitrijs2005/gophdiary/internal/models"
	"github.com/dmitrijs2005/gophdiary/internal/tasks"
)

// ErrSnapshotStale is returned when a write committed but the diary snapshot
// could not be republished. The write is not undone; the next successful
// mutation publishes a snapshot that includes it.
var ErrSnapshotStale = errors.New("diary snapshot not refreshed")

// ContentResolver turns raw attachment content into the bytes that are
// stored, together with their MIME type.
type ContentResolver interface {
	Normalize(r io.Reader) ([]byte, string, error)
}

// DiaryOptions tunes a DiaryService.
type DiaryOptions struct {
	// ChunkSize bounds the size of one stored chunk of media data.
	ChunkSize int
	// Workers bounds the number of background mutations running at once.
	Workers int
}

// DiaryService is the single source of truth for the diary.
//
// Contract:
//   - GetDiary: subscribe to diary snapshots. The current snapshot is
//     delivered immediately, later ones as they are published.
//   - GetDiaryEntry: one resolved entry or common.ErrNotFound, read directly
//     from the store. It is a plain call, not a stream: callers that need
//     later changes of the entry follow GetDiary.
//   - SaveDiaryEntry: insert or update an entry together with its media and
//     publish a fresh snapshot before returning.
//   - RemoveMedia: delete the media at a position of an entry and publish.
//   - Mutations whose write committed but whose snapshot could not be
//     republished return an error matching ErrSnapshotStale.
//   - *Async: the same mutations as background tasks.
//   - NewEntry / Edit: open an EditSession.
//   - Close: wait for background tasks and close all subscriptions.
type DiaryService interface {
	GetDiary() *hub.Subscription[models.Diary]
	GetDiaryEntry(ctx context.Context, id int64) (models.DiaryEntry, error)
	SaveDiaryEntry(ctx context.Context, entry models.DiaryEntry) (models.DiaryEntry, error)
	SaveDiaryEntryAsync(ctx context.Context, entry models.DiaryEntry) *tasks.Task[models.DiaryEntry]
	RemoveMedia(ctx context.Context, entryID int64, index int) error
	RemoveMediaAsync(ctx context.Context, entryID int64, index int) *tasks.Task[struct{}]
	NewEntry() *EditSession
	Edit(ctx context.Context, id int64) (*EditSession, error)
	Close(ctx context.Context) error
}

type diaryService struct {
	db        *sql.DB
	media     MediaService
	resolver  ContentResolver
	chunkSize int
	logger    logging.Logger

	snapshots *hub.Hub[models.Diary]
	runner    *tasks.Runner

	// refreshMu orders snapshot reads with their publish, so a later
	// publish never carries older data than an earlier one.
	refreshMu sync.Mutex
}

// NewDiaryService builds the service and publishes the initial snapshot.
func NewDiaryService(ctx context.Context, db *sql.DB, media MediaService, resolver ContentResolver, opts DiaryOptions, logger logging.Logger) (DiaryService, error) {
	if opts.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size %d: %w", opts.ChunkSize, common.ErrInvalidArgument)
	}

	logger = logger.With("component", "diary")
	s := &diaryService{
		db:        db,
		media:     media,
		resolver:  resolver,
		chunkSize: opts.ChunkSize,
		logger:    logger,
		snapshots: hub.New[models.Diary](),
		runner:    tasks.NewRunner(opts.Workers, logger),
	}

	if err := s.refresh(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *diaryService) GetDiary() *hub.Subscription[models.Diary] {
	return s.snapshots.Subscribe()
}

func (s *diaryService) GetDiaryEntry(ctx context.Context, id int64) (models.DiaryEntry, error) {
	var entry models.DiaryEntry
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		entry, err = newTxStore(tx).resolveEntry(ctx, id)
		return err
	})
	if err != nil {
		return models.DiaryEntry{}, fmt.Errorf("get diary entry %d: %w", id, err)
	}
	return entry, nil
}

// SaveDiaryEntry persists entry in one transaction. Media with an unset id
// are stored as new media of the entry; persisted drafts are attached to it.
// The returned entry carries every media stored for it.
//
// When the write commits but the snapshot cannot be rebuilt, the saved
// entry is returned together with an error matching ErrSnapshotStale.
func (s *diaryService) SaveDiaryEntry(ctx context.Context, entry models.DiaryEntry) (models.DiaryEntry, error) {
	var (
		saved    models.DiaryEntry
		added    int
		attached int
		inserted = !entry.IsPersisted()
	)

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		st := newTxStore(tx)

		id := entry.ID
		if inserted {
			var err error
			if id, err = st.entries.Insert(ctx, &entry); err != nil {
				return err
			}
		} else if err := st.entries.Update(ctx, &entry); err != nil {
			return err
		}

		var persisted []models.Media
		for _, m := range entry.Media {
			if m.IsPersisted() {
				persisted = append(persisted, m)
				continue
			}
			rec := models.MediaRecord{MimeType: m.MimeType, DiaryEntryID: &id}
			if _, _, err := st.storeMedia(ctx, s.chunkSize, rec, m.Data); err != nil {
				return err
			}
			added++
		}

		var err error
		if attached, err = st.attach(ctx, id, persisted); err != nil {
			return err
		}

		saved, err = st.resolveEntry(ctx, id)
		return err
	})
	if err != nil {
		s.logger.Error(ctx, "save entry failed", "entry_id", entry.ID, "error", err)
		return models.DiaryEntry{}, fmt.Errorf("save diary entry: %w", err)
	}

	s.logger.Info(ctx, "entry saved",
		"entry_id", saved.ID, "inserted", inserted, "media_added", added, "media_attached", attached)

	return saved, s.republish(ctx)
}

func (s *diaryService) SaveDiaryEntryAsync(ctx context.Context, entry models.DiaryEntry) *tasks.Task[models.DiaryEntry] {
	entry = entry.Clone()
	return tasks.Submit(ctx, s.runner, "save entry", func(ctx context.Context) (models.DiaryEntry, error) {
		return s.SaveDiaryEntry(ctx, entry)
	})
}

func (s *diaryService) RemoveMedia(ctx context.Context, entryID int64, index int) error {
	if err := s.media.RemoveMedia(ctx, entryID, index); err != nil {
		return err
	}
	return s.republish(ctx)
}

func (s *diaryService) RemoveMediaAsync(ctx context.Context, entryID int64, index int) *tasks.Task[struct{}] {
	return tasks.Submit(ctx, s.runner, "remove media", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.RemoveMedia(ctx, entryID, index)
	})
}

func (s *diaryService) NewEntry() *EditSession {
	return newEditSession(s, models.NewDiaryEntry())
}

func (s *diaryService) Edit(ctx context.Context, id int64) (*EditSession, error) {
	entry, err := s.GetDiaryEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	return newEditSession(s, entry), nil
}

func (s *diaryService) Close(ctx context.Context) error {
	err := s.runner.Close(ctx)
	s.snapshots.Close()
	return err
}

// removeMediaByID deletes one media and republishes.
func (s *diaryService) removeMediaByID(ctx context.Context, mediaID int64) error {
	if err := s.media.RemoveMediaByID(ctx, mediaID); err != nil {
		return err
	}
	return s.republish(ctx)
}

// republish refreshes the snapshot after a committed write.
func (s *diaryService) republish(ctx context.Context) error {
	if err := s.refresh(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshotStale, err)
	}
	return nil
}

// refresh rebuilds the snapshot from the store and publishes it. On failure
// nothing is published.
func (s *diaryService) refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	var diary models.Diary
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		diary, err = newTxStore(tx).snapshot(ctx)
		return err
	})
	if err != nil {
		s.logger.Error(ctx, "snapshot refresh failed", "error", err)
		return fmt.Errorf("refresh diary snapshot: %w", err)
	}

	s.snapshots.Publish(diary)
	s.logger.Debug(ctx, "snapshot published", "entries", len(diary.Entries))
	return nil
}
