// Package media provides persistence for media rows and their chunks.
//
// A media row holds the MIME type, the owning diary entry (NULL while the
// media is a draft), the editing session that created a draft, and the total
// size. The bytes live in media_chunk rows ordered by seq. The repository
// works with pre-split chunks; splitting and joining belong to package chunk.
//
// All methods run on a dbx.DBTX so services can compose them inside one
// transaction.
package media
