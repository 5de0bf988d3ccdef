package media

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/dbx"
	"github.com/dmitrijs2005/gophdiary/internal/models"
)

const recordColumns = `id, mime_type, diary_entry_id, draft_session, size, created_at`

// SQLiteRepository implements Repository on top of a DBTX.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, rec *models.MediaRecord) (int64, error) {
	mimeType := rec.MimeType
	if mimeType == "" {
		mimeType = common.DefaultMimeType
	}

	createdAt := rec.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().UTC().UnixMilli()
	}

	query := `INSERT INTO media (mime_type, diary_entry_id, draft_session, size, created_at) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, mimeType, nullID(rec.DiaryEntryID), nullString(rec.DraftSession), rec.Size, createdAt)
	if err != nil {
		return common.UnsetID, dbx.Classify("insert media", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return common.UnsetID, dbx.Classify("insert media: last insert id", err)
	}
	return id, nil
}

func (r *SQLiteRepository) InsertChunks(ctx context.Context, mediaID int64, chunks [][]byte) error {
	query := `INSERT INTO media_chunk (media_id, seq, data) VALUES (?, ?, ?)`
	for seq, data := range chunks {
		if data == nil {
			data = []byte{}
		}
		if _, err := r.db.ExecContext(ctx, query, mediaID, seq, data); err != nil {
			return dbx.Classify(fmt.Sprintf("insert chunk %d of media %d", seq, mediaID), err)
		}
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.MediaRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM media WHERE id = ?`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, dbx.Classify(fmt.Sprintf("get media %d", id), err)
	}
	return rec, nil
}

func (r *SQLiteRepository) GetByDiaryEntryID(ctx context.Context, entryID int64) ([]models.MediaRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM media WHERE diary_entry_id = ? ORDER BY id`
	return r.queryRecords(ctx, fmt.Sprintf("select media of entry %d", entryID), query, entryID)
}

func (r *SQLiteRepository) GetDrafts(ctx context.Context, session string) ([]models.MediaRecord, error) {
	if session == "" {
		query := `SELECT ` + recordColumns + ` FROM media WHERE diary_entry_id IS NULL ORDER BY id`
		return r.queryRecords(ctx, "select drafts", query)
	}
	query := `SELECT ` + recordColumns + ` FROM media WHERE diary_entry_id IS NULL AND draft_session = ? ORDER BY id`
	return r.queryRecords(ctx, "select session drafts", query, session)
}

func (r *SQLiteRepository) GetChunks(ctx context.Context, mediaID int64) ([]models.MediaChunk, error) {
	query := `SELECT id, media_id, seq, data FROM media_chunk WHERE media_id = ? ORDER BY seq`
	rows, err := r.db.QueryContext(ctx, query, mediaID)
	if err != nil {
		return nil, dbx.Classify(fmt.Sprintf("select chunks of media %d", mediaID), err)
	}
	defer rows.Close()

	result := make([]models.MediaChunk, 0)
	for rows.Next() {
		var c models.MediaChunk
		if err := rows.Scan(&c.ID, &c.MediaID, &c.Seq, &c.Data); err != nil {
			return nil, dbx.Classify("scan chunk", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.Classify(fmt.Sprintf("select chunks of media %d", mediaID), err)
	}
	return result, nil
}

func (r *SQLiteRepository) Attach(ctx context.Context, mediaID, entryID int64) error {
	query := `UPDATE media SET diary_entry_id = ?, draft_session = NULL WHERE id = ? AND diary_entry_id IS NULL`
	res, err := r.db.ExecContext(ctx, query, entryID, mediaID)
	if err != nil {
		return dbx.Classify(fmt.Sprintf("attach media %d to entry %d", mediaID, entryID), err)
	}

	ra, err := res.RowsAffected()
	if err != nil {
		return dbx.Classify("attach media: rows affected", err)
	}
	if ra != 1 {
		return fmt.Errorf("attach media %d: no such draft: %w", mediaID, common.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, mediaID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM media_chunk WHERE media_id = ?`, mediaID); err != nil {
		return dbx.Classify(fmt.Sprintf("delete chunks of media %d", mediaID), err)
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM media WHERE id = ?`, mediaID)
	if err != nil {
		return dbx.Classify(fmt.Sprintf("delete media %d", mediaID), err)
	}

	ra, err := res.RowsAffected()
	if err != nil {
		return dbx.Classify("delete media: rows affected", err)
	}
	if ra == 0 {
		return fmt.Errorf("delete media %d: %w", mediaID, common.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteDrafts(ctx context.Context, session string) (int64, error) {
	where := `diary_entry_id IS NULL`
	args := []any{}
	if session != "" {
		where += ` AND draft_session = ?`
		args = append(args, session)
	}

	chunkQuery := `DELETE FROM media_chunk WHERE media_id IN (SELECT id FROM media WHERE ` + where + `)`
	if _, err := r.db.ExecContext(ctx, chunkQuery, args...); err != nil {
		return 0, dbx.Classify("delete draft chunks", err)
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM media WHERE `+where, args...)
	if err != nil {
		return 0, dbx.Classify("delete drafts", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, dbx.Classify("delete drafts: rows affected", err)
	}
	return n, nil
}

func (r *SQLiteRepository) CountOrphanChunks(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM media_chunk c LEFT JOIN media m ON m.id = c.media_id WHERE m.id IS NULL`
	var n int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, dbx.Classify("count orphan chunks", err)
	}
	return n, nil
}

func (r *SQLiteRepository) queryRecords(ctx context.Context, op, query string, args ...any) ([]models.MediaRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbx.Classify(op, err)
	}
	defer rows.Close()

	result := make([]models.MediaRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, dbx.Classify(op+": scan", err)
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.Classify(op, err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*models.MediaRecord, error) {
	var (
		rec     models.MediaRecord
		entryID sql.NullInt64
		session sql.NullString
	)
	if err := s.Scan(&rec.ID, &rec.MimeType, &entryID, &session, &rec.Size, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if entryID.Valid {
		id := entryID.Int64
		rec.DiaryEntryID = &id
	}
	rec.DraftSession = session.String
	return &rec, nil
}

func nullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
