package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	editing() bool
	List(ctx context.Context) error
	Show(ctx context.Context, id string) error
	New(ctx context.Context) error
	Edit(ctx context.Context, id string) error
	Text(ctx context.Context) error
	Date(ctx context.Context, date string) error
	Attach(ctx context.Context, path string) error
	Detach(ctx context.Context, index string) error
	Save(ctx context.Context) error
	Discard(ctx context.Context) error
	Export(ctx context.Context, mediaID, path string) error
	SetPIN(ctx context.Context) error
	RemovePIN(ctx context.Context) error
	Verify(ctx context.Context) error
}

// runREPL reads commands from reader until EOF or "exit"/"quit" and
// dispatches them to a.
//
//	help                      show available commands
//	list                      list entries, newest first
//	show <id>                 print one entry with its attachments
//	new | edit <id>           open an edit session
//	text | date <YYYY-MM-DD>  change the open entry
//	attach <path>             add a file to the open entry
//	detach <n>                remove attachment n of the open entry
//	save | discard            finish the edit session
//	export <mediaId> <path>   write an attachment to a file
//	pin set | pin remove      manage the PIN
//	verify                    check stored media for damage
//	exit | quit               leave the program
//
// Handler errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("diary (%s)> ", statusFn()))
		line, readErr := reader.ReadString('\n')
		if readErr != nil && line == "" {
			return
		}

		parts := strings.Fields(line)
		if len(parts) > 0 {
			if quit := dispatch(ctx, a, parts[0], parts[1:]); quit {
				return
			}
		}

		if readErr != nil {
			return
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string) bool {
	var err error

	switch cmd {
	case "help":
		if a.editing() {
			printlnFn("Available commands: text, date, attach, detach, save, discard, list, show, export, exit")
		} else {
			printlnFn("Available commands: list, show, new, edit, export, pin, verify, exit")
		}

	case "l", "list":
		err = a.List(ctx)

	case "show":
		if len(args) != 1 {
			printlnFn("Usage: show <id>")
			return false
		}
		err = a.Show(ctx, args[0])

	case "new":
		err = a.New(ctx)

	case "edit":
		if len(args) != 1 {
			printlnFn("Usage: edit <id>")
			return false
		}
		err = a.Edit(ctx, args[0])

	case "text":
		err = a.Text(ctx)

	case "date":
		if len(args) != 1 {
			printlnFn("Usage: date <YYYY-MM-DD>")
			return false
		}
		err = a.Date(ctx, args[0])

	case "attach":
		if len(args) != 1 {
			printlnFn("Usage: attach <path>")
			return false
		}
		err = a.Attach(ctx, args[0])

	case "detach":
		if len(args) != 1 {
			printlnFn("Usage: detach <index>")
			return false
		}
		err = a.Detach(ctx, args[0])

	case "save":
		err = a.Save(ctx)

	case "discard":
		err = a.Discard(ctx)

	case "export":
		if len(args) != 2 {
			printlnFn("Usage: export <mediaId> <path>")
			return false
		}
		err = a.Export(ctx, args[0], args[1])

	case "pin":
		switch {
		case len(args) == 1 && args[0] == "set":
			err = a.SetPIN(ctx)
		case len(args) == 1 && args[0] == "remove":
			err = a.RemovePIN(ctx)
		default:
			printlnFn("Usage: pin set | pin remove")
			return false
		}

	case "verify":
		err = a.Verify(ctx)

	case "exit", "quit":
		printlnFn("Bye!")
		return true

	default:
		printlnFn("Unknown command:", cmd)
	}

	if err != nil {
		printlnFn("Error:", err)
	}
	return false
}
