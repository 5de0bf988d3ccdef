package services

import (
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophdiary/internal/dbx"
	"github.com/dmitrijs2005/gophdiary/internal/hub"
	"github.com/dmitrijs2005/gophdiary/internal/logging"
	"github.com/dmitrijs2005/gophdiary/internal/models"
	"github.com/dmitrijs2005/gophdiary/internal/repositories/entries"
	"github.com/stretchr/testify/require"
)

type passthroughResolver struct {
	mimeType string
}

func (p passthroughResolver) Normalize(r io.Reader) ([]byte, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", err
	}
	return data, p.mimeType, nil
}

type fixture struct {
	db    *sql.DB
	media MediaService
	diary DiaryService
}

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := dbx.Open(context.Background(), dbx.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func setup(t *testing.T, chunkSize int) *fixture {
	t.Helper()
	ctx := context.Background()
	db := setupDB(t)

	ms, err := NewMediaService(db, chunkSize, logging.Nop())
	require.NoError(t, err)

	ds, err := NewDiaryService(ctx, db, ms, passthroughResolver{mimeType: "text/plain"},
		DiaryOptions{ChunkSize: chunkSize, Workers: 2}, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ds.Close(context.Background()) })

	return &fixture{db: db, media: ms, diary: ds}
}

func (f *fixture) insertEntry(t *testing.T, text string, date time.Time) int64 {
	t.Helper()
	id, err := entries.NewSQLiteRepository(f.db).Insert(context.Background(), &models.DiaryEntry{Text: text, Date: date})
	require.NoError(t, err)
	return id
}

func (f *fixture) count(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow(query, args...).Scan(&n))
	return n
}

func (f *fixture) draftCount(t *testing.T) int {
	return f.count(t, `SELECT COUNT(*) FROM media WHERE diary_entry_id IS NULL`)
}

func recv(t *testing.T, s *hub.Subscription[models.Diary]) models.Diary {
	t.Helper()
	select {
	case d, ok := <-s.C():
		require.True(t, ok, "snapshot channel closed")
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return models.Diary{}
}

func assertNoSnapshot(t *testing.T, s *hub.Subscription[models.Diary]) {
	t.Helper()
	select {
	case d := <-s.C():
		t.Fatalf("unexpected snapshot with %d entries", len(d.Entries))
	default:
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}
