// Package models defines the in-memory diary model passed between the
// repository layer and its consumers.
package models

import (
	"time"

	"github.com/dmitrijs2005/gophdiary/internal/common"
)

// Diary is a fully resolved, point-in-time view of all entries, newest
// first. A published Diary is never mutated.
type Diary struct {
	Entries []DiaryEntry
}

// Entry returns the entry with the given id.
func (d Diary) Entry(id int64) (DiaryEntry, bool) {
	for _, e := range d.Entries {
		if e.ID == id {
			return e, true
		}
	}
	return DiaryEntry{}, false
}

// DiaryEntry is one dated journal entry with its attachments in display
// order. ID is common.UnsetID until the entry is first persisted; stored ids
// start at 1, so a zero ID also counts as unsaved.
type DiaryEntry struct {
	ID    int64
	Text  string
	Date  time.Time
	Media []Media
}

// NewDiaryEntry returns an unsaved entry dated now.
func NewDiaryEntry() DiaryEntry {
	return DiaryEntry{ID: common.UnsetID, Date: time.Now().UTC()}
}

// IsPersisted reports whether the entry has been assigned an id.
func (e DiaryEntry) IsPersisted() bool {
	return e.ID > 0
}

// Clone returns a copy that shares no slices with e. Media bytes are
// shared: they are treated as immutable once loaded.
func (e DiaryEntry) Clone() DiaryEntry {
	c := e
	if e.Media != nil {
		c.Media = append([]Media(nil), e.Media...)
	}
	return c
}
