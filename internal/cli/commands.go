package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/filex"
	"github.com/dmitrijs2005/gophdiary/internal/models"
	"github.com/dmitrijs2005/gophdiary/internal/services"
	"github.com/dustin/go-humanize"
)

const dateLayout = "2006-01-02"

var (
	errNoSession   = errors.New("no entry is open (use 'new' or 'edit <id>')")
	errSessionOpen = errors.New("an entry is already open (use 'save' or 'discard')")
)

// List prints the current diary snapshot, newest first.
func (a *App) List(ctx context.Context) error {
	d, err := a.snapshot(ctx)
	if err != nil {
		return err
	}

	if len(d.Entries) == 0 {
		fmt.Fprintln(a.out, "No entries yet")
		return nil
	}

	for _, e := range d.Entries {
		line := fmt.Sprintf("#%d  %s  %s", e.ID, e.Date.Format(dateLayout), preview(e.Text, 40))
		if len(e.Media) > 0 {
			line += fmt.Sprintf("  [%d attachments, %s]", len(e.Media), humanize.IBytes(mediaSize(e.Media)))
		}
		fmt.Fprintln(a.out, line)
	}
	return nil
}

func (a *App) Show(ctx context.Context, arg string) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}

	e, err := a.diary.GetDiaryEntry(ctx, id)
	if err != nil {
		return err
	}
	a.printEntry(e)
	return nil
}

func (a *App) New(ctx context.Context) error {
	if a.session != nil {
		return errSessionOpen
	}
	a.session = a.diary.NewEntry()
	fmt.Fprintln(a.out, "New entry opened")
	return nil
}

func (a *App) Edit(ctx context.Context, arg string) error {
	if a.session != nil {
		return errSessionOpen
	}
	id, err := parseID(arg)
	if err != nil {
		return err
	}

	s, err := a.diary.Edit(ctx, id)
	if err != nil {
		return err
	}
	a.session = s
	a.printEntry(s.Entry())
	return nil
}

func (a *App) Text(ctx context.Context) error {
	if a.session == nil {
		return errNoSession
	}
	text, err := GetMultiline(a.reader, "Enter text", a.out)
	if err != nil {
		return err
	}
	a.session.SetText(text)
	return nil
}

func (a *App) Date(ctx context.Context, arg string) error {
	if a.session == nil {
		return errNoSession
	}
	d, err := time.Parse(dateLayout, arg)
	if err != nil {
		return fmt.Errorf("date %q: %w", arg, common.ErrInvalidArgument)
	}
	a.session.SetDate(d)
	return nil
}

func (a *App) Attach(ctx context.Context, path string) error {
	if a.session == nil {
		return errNoSession
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	m, err := a.session.AttachFile(ctx, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Attached #%d (%s, %s)\n", m.ID, m.MimeType, humanize.IBytes(uint64(len(m.Data))))
	return nil
}

func (a *App) Detach(ctx context.Context, arg string) error {
	if a.session == nil {
		return errNoSession
	}
	index, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("index %q: %w", arg, common.ErrInvalidArgument)
	}
	return a.session.RemoveMedia(ctx, index)
}

func (a *App) Save(ctx context.Context) error {
	if a.session == nil {
		return errNoSession
	}

	saved, err := a.session.Save(ctx)
	if err != nil && !errors.Is(err, services.ErrSnapshotStale) {
		return err
	}

	a.session = nil
	fmt.Fprintf(a.out, "Saved entry #%d\n", saved.ID)
	return err
}

func (a *App) Discard(ctx context.Context) error {
	if a.session == nil {
		return errNoSession
	}
	err := a.session.Discard(ctx)
	a.session = nil
	return err
}

// Export writes the data of one attachment to path.
func (a *App) Export(ctx context.Context, mediaArg, path string) error {
	id, err := parseID(mediaArg)
	if err != nil {
		return err
	}

	m, err := a.media.GetMediaByMediaID(ctx, id)
	if err != nil {
		return err
	}
	if err := filex.WriteFile(path, m.Data); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Wrote %s to %s\n", humanize.IBytes(uint64(len(m.Data))), path)
	return nil
}

func (a *App) Verify(ctx context.Context) error {
	if err := a.media.Verify(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Storage is consistent")
	return nil
}

func (a *App) snapshot(ctx context.Context) (models.Diary, error) {
	sub := a.diary.GetDiary()
	defer sub.Close()

	select {
	case d, ok := <-sub.C():
		if !ok {
			return models.Diary{}, common.ErrClosed
		}
		return d, nil
	case <-ctx.Done():
		return models.Diary{}, ctx.Err()
	}
}

func (a *App) printEntry(e models.DiaryEntry) {
	if e.IsPersisted() {
		fmt.Fprintf(a.out, "#%d  %s\n", e.ID, e.Date.Format(dateLayout))
	} else {
		fmt.Fprintf(a.out, "new entry  %s\n", e.Date.Format(dateLayout))
	}
	if e.Text != "" {
		fmt.Fprintln(a.out, e.Text)
	}
	for i, m := range e.Media {
		fmt.Fprintf(a.out, "  [%d] #%d %s %s\n", i, m.ID, m.MimeType, humanize.IBytes(uint64(len(m.Data))))
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("id %q: %w", s, common.ErrInvalidArgument)
	}
	return id, nil
}

func preview(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n]) + "…"
}

func mediaSize(items []models.Media) uint64 {
	var total uint64
	for _, m := range items {
		total += uint64(len(m.Data))
	}
	return total
}
