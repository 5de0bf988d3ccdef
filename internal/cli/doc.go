// Package cli implements the interactive command-line front end of the
// diary.
//
// The REPL reads one command per line and dispatches it to App. Editing
// commands (text, date, attach, detach) act on the open edit session started
// by "new" or "edit"; "save" persists it and "discard" abandons it together
// with its drafts. If a PIN is set, it must be entered before the REPL
// starts.
package cli
