// Package entries provides the durable store of diary entries.
//
// # Overview
//
// The package defines a Repository interface for inserting, updating and
// querying DiaryEntry rows of the diary_entry table. Identifiers are
// assigned by the store on Insert and never reused. A SQLite-backed
// implementation (SQLiteRepository) persists data via a dbx.DBTX (*sql.DB
// or *sql.Tx), so it can take part in a caller's transaction.
//
// Entry dates are stored as UTC Unix milliseconds; GetAll orders by date
// descending and breaks ties by id descending.
//
// Typical Usage
//
//	repo := entries.NewSQLiteRepository(db)
//	id, _ := repo.Insert(ctx, &entry)
//	e, _ := repo.GetByID(ctx, id)
//	all, _ := repo.GetAll(ctx)
//
// Media are not loaded here; see package media.
package entries
