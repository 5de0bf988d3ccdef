package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExec struct {
	open  bool
	calls []string
	err   error
}

func (f *fakeExec) record(call string, args ...string) error {
	if len(args) > 0 {
		call += " " + strings.Join(args, " ")
	}
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeExec) editing() bool                        { return f.open }
func (f *fakeExec) List(ctx context.Context) error       { return f.record("list") }
func (f *fakeExec) Show(ctx context.Context, id string) error {
	return f.record("show", id)
}
func (f *fakeExec) New(ctx context.Context) error { f.open = true; return f.record("new") }
func (f *fakeExec) Edit(ctx context.Context, id string) error {
	f.open = true
	return f.record("edit", id)
}
func (f *fakeExec) Text(ctx context.Context) error { return f.record("text") }
func (f *fakeExec) Date(ctx context.Context, date string) error {
	return f.record("date", date)
}
func (f *fakeExec) Attach(ctx context.Context, path string) error {
	return f.record("attach", path)
}
func (f *fakeExec) Detach(ctx context.Context, index string) error {
	return f.record("detach", index)
}
func (f *fakeExec) Save(ctx context.Context) error    { f.open = false; return f.record("save") }
func (f *fakeExec) Discard(ctx context.Context) error { f.open = false; return f.record("discard") }
func (f *fakeExec) Export(ctx context.Context, mediaID, path string) error {
	return f.record("export", mediaID, path)
}
func (f *fakeExec) SetPIN(ctx context.Context) error    { return f.record("pin set") }
func (f *fakeExec) RemovePIN(ctx context.Context) error { return f.record("pin remove") }
func (f *fakeExec) Verify(ctx context.Context) error    { return f.record("verify") }

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	origPrint := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSpace(fmt.Sprintln(a...)))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })
	return &lines
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	captureOutput(t)

	input := strings.Join([]string{
		"help",
		"new",
		"text",
		"date 2024-01-02",
		"attach /tmp/photo.jpg",
		"detach 0",
		"save",
		"",
		"list",
		"show 3",
		"edit 3",
		"discard",
		"export 7 /tmp/out.bin",
		"pin set",
		"pin remove",
		"verify",
		"exit",
		"list",
	}, "\n")

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewReader(strings.NewReader(input)))

	assert.Equal(t, []string{
		"new", "text", "date 2024-01-02", "attach /tmp/photo.jpg", "detach 0", "save",
		"list", "show 3", "edit 3", "discard", "export 7 /tmp/out.bin",
		"pin set", "pin remove", "verify",
	}, exec.calls, "commands after exit are not run")
}

func TestRunREPL_UsageUnknownAndEOF(t *testing.T) {
	out := captureOutput(t)

	input := "show\nedit\ndate\nattach\ndetach\nexport 1\npin\nfoobar\nlist"
	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewReader(strings.NewReader(input)))

	assert.Equal(t, []string{"list"}, exec.calls, "last line without newline still runs")
	assert.Contains(t, *out, "Usage: show <id>")
	assert.Contains(t, *out, "Usage: export <mediaId> <path>")
	assert.Contains(t, *out, "Usage: pin set | pin remove")
	assert.Contains(t, *out, "Unknown command: foobar")
}

func TestRunREPL_PrintsErrorsAndContinues(t *testing.T) {
	out := captureOutput(t)

	exec := &fakeExec{err: errors.New("kaput")}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewReader(strings.NewReader("list\nverify\nquit\n")))

	require.Equal(t, []string{"list", "verify"}, exec.calls)
	assert.Contains(t, *out, "Error: kaput")
	assert.Contains(t, *out, "Bye!")
}

func TestRunREPL_HelpDependsOnSession(t *testing.T) {
	out := captureOutput(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewReader(strings.NewReader("help\nnew\nhelp\n")))

	var helps []string
	for _, l := range *out {
		if strings.HasPrefix(l, "Available commands:") {
			helps = append(helps, l)
		}
	}
	require.Len(t, helps, 2)
	assert.Contains(t, helps[0], "new")
	assert.Contains(t, helps[1], "save")
}
