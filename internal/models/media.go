package models

import "github.com/dmitrijs2005/gophdiary/internal/common"

// Media is an attachment. Whether it is a draft or attached to an entry is
// a property of the stored row (see MediaRecord), not of this value. Like
// DiaryEntry, a Media with a zero or negative ID is unsaved.
type Media struct {
	ID       int64
	Data     []byte
	MimeType string
}

// NewMedia wraps data as an unsaved media.
func NewMedia(data []byte, mimeType string) Media {
	return Media{ID: common.UnsetID, Data: data, MimeType: mimeType}
}

// IsPersisted reports whether the media has been assigned an id.
func (m Media) IsPersisted() bool {
	return m.ID > 0
}

// MediaRecord is a stored media row without its data.
type MediaRecord struct {
	ID       int64
	MimeType string
	// DiaryEntryID is nil while the media is a draft.
	DiaryEntryID *int64
	// DraftSession identifies the editing session that created a draft.
	DraftSession string
	Size         int64
	CreatedAt    int64
}

// IsDraft reports whether the media is not attached to any entry.
func (r MediaRecord) IsDraft() bool {
	return r.DiaryEntryID == nil
}

// MediaChunk is one bounded-size fragment of a media's data. Seq orders the
// chunks of one media, starting at zero.
type MediaChunk struct {
	ID      int64
	MediaID int64
	Seq     int
	Data    []byte
}
