package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/gophdiary/internal/config"
	"github.com/dmitrijs2005/gophdiary/internal/dbx"
	"github.com/dmitrijs2005/gophdiary/internal/imagex"
	"github.com/dmitrijs2005/gophdiary/internal/logging"
	"github.com/dmitrijs2005/gophdiary/internal/pin"
	"github.com/dmitrijs2005/gophdiary/internal/services"
)

// App wires the services to the terminal.
type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB

	diary services.DiaryService
	media services.MediaService
	pins  *pin.Store

	reader *bufio.Reader
	out    io.Writer

	session *services.EditSession

	entryCount atomic.Int64
	pinSet     atomic.Bool
	watchers   sync.WaitGroup
	stopWatch  context.CancelFunc
}

// NewApp opens the database named by c and builds the services on it.
// Drafts left behind by an earlier run are removed.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := dbx.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	a, err := newApp(ctx, c, logger, db, bufio.NewReader(os.Stdin), os.Stdout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB, reader *bufio.Reader, out io.Writer) (*App, error) {
	ms, err := services.NewMediaService(db, c.ChunkSize, logger)
	if err != nil {
		return nil, err
	}

	if n, err := ms.RemoveDraftMedia(ctx); err != nil {
		return nil, fmt.Errorf("purge drafts: %w", err)
	} else if n > 0 {
		logger.Info(ctx, "removed drafts of an unfinished session", "count", n)
	}

	ds, err := services.NewDiaryService(ctx, db, ms, imagex.NewNormalizer(c.MaxImageSide),
		services.DiaryOptions{ChunkSize: c.ChunkSize, Workers: c.Workers}, logger)
	if err != nil {
		return nil, err
	}

	pins, err := pin.NewStore(ctx, db)
	if err != nil {
		_ = ds.Close(ctx)
		return nil, err
	}

	return &App{
		config: c,
		logger: logger,
		db:     db,
		diary:  ds,
		media:  ms,
		pins:   pins,
		reader: reader,
		out:    out,
	}, nil
}

// Run unlocks the diary and serves commands until EOF or "exit".
func (a *App) Run(ctx context.Context) error {
	if err := a.Unlock(ctx); err != nil {
		return err
	}

	a.startWatchers(ctx)
	fmt.Fprintln(a.out, "Welcome to GophDiary (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.reader)
	return nil
}

// Close discards an unsaved session, waits for background work up to the
// shutdown timeout and releases the database.
func (a *App) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.config.ShutdownTimeout)
	defer cancel()

	if a.session != nil {
		if err := a.session.Discard(ctx); err != nil {
			a.logger.Warn(ctx, "discard session on exit", "error", err)
		}
		a.session = nil
	}

	err := a.diary.Close(ctx)
	a.pins.Close()
	if a.stopWatch != nil {
		a.stopWatch()
	}
	a.watchers.Wait()

	if cerr := a.db.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func (a *App) editing() bool {
	return a.session != nil
}

func (a *App) status() string {
	s := fmt.Sprintf("%d entries", a.entryCount.Load())
	if a.pinSet.Load() {
		s += ", pin"
	}
	if a.session != nil {
		e := a.session.Entry()
		if e.IsPersisted() {
			s += fmt.Sprintf(", editing #%d", e.ID)
		} else {
			s += ", editing new entry"
		}
	}
	return s
}
