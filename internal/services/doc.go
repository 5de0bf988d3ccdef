// Package services contains the diary application services.
//
// MediaService hides chunking and the draft/attach mechanics of media behind
// an entry-centric API. DiaryService is the single source of truth for the
// diary as a consumer should see it right now: it owns the snapshot hub, runs
// mutations (synchronously or as background tasks) and republishes a fresh
// snapshot after every successful one. EditSession buffers the edits of one
// entry and scopes the drafts it creates.
//
// The database is opened with a single connection. Every multi-statement
// operation runs inside dbx.WithTx and builds its repositories on the
// transaction handle.
package services
