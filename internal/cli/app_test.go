package cli

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/config"
	"github.com/dmitrijs2005/gophdiary/internal/dbx"
	"github.com/dmitrijs2005/gophdiary/internal/logging"
	"github.com/dmitrijs2005/gophdiary/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabaseDSN = dbx.MemoryDSN
	cfg.ChunkSize = 8
	cfg.Workers = 2
	return cfg
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := dbx.Open(context.Background(), dbx.MemoryDSN)
	require.NoError(t, err)
	return db
}

func newTestApp(t *testing.T, db *sql.DB, input string) (*App, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	a, err := newApp(context.Background(), testConfig(), logging.Nop(), db, bufio.NewReader(strings.NewReader(input)), out)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a, out
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func stubPIN(t *testing.T, pins ...string) {
	t.Helper()
	orig := getPIN
	t.Cleanup(func() { getPIN = orig })

	i := 0
	getPIN = func(prompt string, w io.Writer) ([]byte, error) {
		p := pins[i%len(pins)]
		i++
		return []byte(p), nil
	}
}

func stubText(t *testing.T, answer string) {
	t.Helper()
	orig := getSimpleText
	t.Cleanup(func() { getSimpleText = orig })
	getSimpleText = func(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
		return answer, nil
	}
}

func countDrafts(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM media WHERE diary_entry_id IS NULL`).Scan(&n))
	return n
}

func TestApp_NewEntryLifecycle(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t, openDB(t), "Dear diary,\ntoday was good.\n\n")

	require.NoError(t, a.New(ctx))
	require.ErrorIs(t, a.New(ctx), errSessionOpen)

	require.NoError(t, a.Text(ctx))
	require.NoError(t, a.Date(ctx, "2024-03-01"))
	require.NoError(t, a.Attach(ctx, writeTemp(t, "note.txt", "hello")))
	assert.Contains(t, a.status(), "editing new entry")

	require.NoError(t, a.Save(ctx))
	assert.Contains(t, out.String(), "Saved entry #1")
	assert.False(t, a.editing())

	out.Reset()
	require.NoError(t, a.List(ctx))
	assert.Equal(t, "#1  2024-03-01  Dear diary, today was good.  [1 attachments, 5 B]\n", out.String())

	out.Reset()
	require.NoError(t, a.Show(ctx, "1"))
	assert.Contains(t, out.String(), "Dear diary,\ntoday was good.")
	assert.Contains(t, out.String(), "[0] #1 text/plain")
}

func TestApp_EditDetachAndExport(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t, openDB(t), "")

	require.NoError(t, a.New(ctx))
	require.NoError(t, a.Attach(ctx, writeTemp(t, "a.txt", "first attachment")))
	require.NoError(t, a.Attach(ctx, writeTemp(t, "b.txt", "second attachment")))
	require.NoError(t, a.Save(ctx))

	dest := filepath.Join(t.TempDir(), "export", "b.txt")
	require.NoError(t, a.Export(ctx, "2", dest))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "second attachment", string(data))

	require.NoError(t, a.Edit(ctx, "1"))
	require.NoError(t, a.Detach(ctx, "0"))
	require.NoError(t, a.Save(ctx))

	e, err := a.diary.GetDiaryEntry(ctx, 1)
	require.NoError(t, err)
	require.Len(t, e.Media, 1)
	assert.Equal(t, []byte("second attachment"), e.Media[0].Data)

	require.ErrorIs(t, a.Export(ctx, "1", dest), common.ErrNotFound)
	require.ErrorIs(t, a.Export(ctx, "x", dest), common.ErrInvalidArgument)

	out.Reset()
	require.NoError(t, a.Verify(ctx))
	assert.Equal(t, "Storage is consistent\n", out.String())
}

func TestApp_DiscardRemovesDrafts(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	a, _ := newTestApp(t, db, "")

	require.NoError(t, a.New(ctx))
	require.NoError(t, a.Attach(ctx, writeTemp(t, "a.txt", "abandoned")))
	assert.Equal(t, 1, countDrafts(t, db))

	require.NoError(t, a.Discard(ctx))
	assert.Zero(t, countDrafts(t, db))
	assert.False(t, a.editing())
}

func TestApp_EditingCommandsNeedSession(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, openDB(t), "")

	require.ErrorIs(t, a.Text(ctx), errNoSession)
	require.ErrorIs(t, a.Date(ctx, "2024-01-01"), errNoSession)
	require.ErrorIs(t, a.Attach(ctx, "x"), errNoSession)
	require.ErrorIs(t, a.Detach(ctx, "0"), errNoSession)
	require.ErrorIs(t, a.Save(ctx), errNoSession)
	require.ErrorIs(t, a.Discard(ctx), errNoSession)

	require.NoError(t, a.New(ctx))
	require.ErrorIs(t, a.Date(ctx, "01/02/2024"), common.ErrInvalidArgument)
	require.ErrorIs(t, a.Detach(ctx, "zero"), common.ErrInvalidArgument)
	require.ErrorIs(t, a.Show(ctx, "-1"), common.ErrInvalidArgument)
	require.ErrorIs(t, a.Edit(ctx, "1"), errSessionOpen)
}

func TestApp_ListEmpty(t *testing.T) {
	a, out := newTestApp(t, openDB(t), "")

	require.NoError(t, a.List(context.Background()))
	assert.Equal(t, "No entries yet\n", out.String())
}

func TestNewApp_PurgesLeftoverDrafts(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	ms, err := services.NewMediaService(db, 8, logging.Nop())
	require.NoError(t, err)
	_, err = ms.SaveDraftFile(ctx, "crashed-session", []byte("left behind"), "text/plain")
	require.NoError(t, err)

	newTestApp(t, db, "")
	assert.Zero(t, countDrafts(t, db))
}

func TestApp_UnlockWithPIN(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t, openDB(t), "")
	require.NoError(t, a.pins.Set(ctx, []byte("12345")))

	stubPIN(t, "00000", "12345")
	require.NoError(t, a.Unlock(ctx))
	assert.Contains(t, out.String(), "Wrong PIN")

	stubPIN(t, "00000")
	require.ErrorIs(t, a.Unlock(ctx), errLocked)
}

func TestApp_OfferPINOnFirstRun(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, openDB(t), "")

	stubText(t, "y")
	stubPIN(t, "24680")
	require.NoError(t, a.Unlock(ctx))

	set, err := a.pins.IsSet(ctx)
	require.NoError(t, err)
	assert.True(t, set)

	require.NoError(t, a.RemovePIN(ctx))
	set, err = a.pins.IsSet(ctx)
	require.NoError(t, err)
	assert.False(t, set)

	stubText(t, "should not be asked again")
	require.NoError(t, a.Unlock(ctx))
}

func TestApp_SetPINMismatch(t *testing.T) {
	a, _ := newTestApp(t, openDB(t), "")

	stubPIN(t, "11111", "22222")
	require.ErrorIs(t, a.SetPIN(context.Background()), common.ErrInvalidArgument)
}

func TestApp_Run(t *testing.T) {
	captureOutput(t)
	stubText(t, "n")

	a, out := newTestApp(t, openDB(t), "new\nsave\nlist\nexit\n")
	require.NoError(t, a.Run(context.Background()))

	assert.Contains(t, out.String(), "Welcome to GophDiary")
	assert.Contains(t, out.String(), "Saved entry #1")
	assert.Contains(t, out.String(), "#1  ")
}
