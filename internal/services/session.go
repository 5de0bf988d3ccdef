package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/models"
	"github.com/dmitrijs2005/gophdiary/internal/tasks"
	"github.com/google/uuid"
)

// EditSession buffers the edits of one diary entry. Attachments added
// through it are stored right away as drafts tagged with the session id, and
// become media of the entry on Save. Discard removes the drafts of this
// session only.
//
// All methods are serialized, so a Discard never races an attach of the
// same session.
type EditSession struct {
	id    string
	diary *diaryService

	mu      sync.Mutex
	entry   models.DiaryEntry
	closed  bool
	pending []*tasks.Task[models.Media]
}

func newEditSession(diary *diaryService, entry models.DiaryEntry) *EditSession {
	return &EditSession{id: uuid.NewString(), diary: diary, entry: entry}
}

// ID returns the session id stored with its drafts.
func (e *EditSession) ID() string {
	return e.id
}

// Entry returns a copy of the buffered entry.
func (e *EditSession) Entry() models.DiaryEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.entry.Clone()
}

func (e *EditSession) SetText(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entry.Text = text
}

func (e *EditSession) SetDate(date time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entry.Date = date.UTC()
}

// AttachFile normalizes the content of r and stores it as a draft of this
// session.
func (e *EditSession) AttachFile(ctx context.Context, r io.Reader) (models.Media, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return models.Media{}, fmt.Errorf("attach to session %s: %w", e.id, common.ErrClosed)
	}

	data, mimeType, err := e.diary.resolver.Normalize(r)
	if err != nil {
		return models.Media{}, fmt.Errorf("normalize attachment: %w", err)
	}

	m, err := e.diary.media.SaveDraftFile(ctx, e.id, data, mimeType)
	if err != nil {
		return models.Media{}, err
	}

	e.entry.Media = append(e.entry.Media, m)
	return m, nil
}

// AttachFileAsync runs AttachFile in the background. r must stay readable
// until the task is done.
func (e *EditSession) AttachFileAsync(ctx context.Context, r io.Reader) *tasks.Task[models.Media] {
	t := tasks.Submit(ctx, e.diary.runner, "attach file", func(ctx context.Context) (models.Media, error) {
		return e.AttachFile(ctx, r)
	})

	e.mu.Lock()
	e.pending = append(e.pending, t)
	e.mu.Unlock()
	return t
}

// RemoveMedia drops the attachment at index from the buffer and deletes it
// from the store if it was stored.
func (e *EditSession) RemoveMedia(ctx context.Context, index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= len(e.entry.Media) {
		return fmt.Errorf("remove attachment %d of %d: %w", index, len(e.entry.Media), common.ErrInvalidArgument)
	}

	var err error
	if m := e.entry.Media[index]; m.IsPersisted() {
		err = e.diary.removeMediaByID(ctx, m.ID)
		if err != nil && !errors.Is(err, ErrSnapshotStale) {
			return err
		}
	}

	e.entry.Media = append(e.entry.Media[:index:index], e.entry.Media[index+1:]...)
	return err
}

// Save waits for the session's background attaches, then persists the
// buffered entry and attaches the session's drafts to it. On failure the
// buffer is left as it was.
func (e *EditSession) Save(ctx context.Context) (models.DiaryEntry, error) {
	if err := e.settle(ctx); err != nil {
		return models.DiaryEntry{}, fmt.Errorf("save session %s: %w", e.id, err)
	}
	defer e.mu.Unlock()

	if e.closed {
		return models.DiaryEntry{}, fmt.Errorf("save session %s: %w", e.id, common.ErrClosed)
	}

	saved, err := e.diary.SaveDiaryEntry(ctx, e.entry.Clone())
	if err != nil && !errors.Is(err, ErrSnapshotStale) {
		return models.DiaryEntry{}, err
	}
	e.entry = saved.Clone()
	return saved, err
}

// settle waits until no background attach of the session is pending and
// returns with e.mu held. A failed attach is reported by its own task; only
// ctx ending aborts the wait, and then e.mu is not held and the tasks stay
// pending.
func (e *EditSession) settle(ctx context.Context) error {
	for {
		e.mu.Lock()
		pending := e.pending
		e.pending = nil
		if len(pending) == 0 {
			return nil
		}
		e.mu.Unlock()

		for _, t := range pending {
			if _, err := t.Wait(ctx); err != nil && ctx.Err() != nil {
				e.mu.Lock()
				e.pending = append(pending, e.pending...)
				e.mu.Unlock()
				return err
			}
		}
	}
}

// Discard closes the session, waits for its background attaches and removes
// the drafts it created. Media already saved with the entry are kept.
func (e *EditSession) Discard(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	pending := e.pending
	e.pending = nil
	e.mu.Unlock()

	for _, t := range pending {
		if _, err := t.Wait(ctx); err != nil && ctx.Err() != nil {
			return fmt.Errorf("discard session %s: %w", e.id, err)
		}
	}

	n, err := e.diary.media.RemoveSessionDrafts(ctx, e.id)
	if err != nil {
		return err
	}

	e.diary.logger.Debug(ctx, "edit session discarded", "session", e.id, "drafts_removed", n)
	return nil
}
