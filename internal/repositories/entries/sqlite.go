package entries

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/dbx"
	"github.com/dmitrijs2005/gophdiary/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, e *models.DiaryEntry) (int64, error) {
	query := `INSERT INTO diary_entry (text, entry_date) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, query, e.Text, toMillis(e.Date))
	if err != nil {
		return common.UnsetID, dbx.Classify("insert entry", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return common.UnsetID, dbx.Classify("insert entry: last insert id", err)
	}
	return id, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, e *models.DiaryEntry) error {
	if !e.IsPersisted() {
		return fmt.Errorf("update entry with unset id: %w", common.ErrInvalidArgument)
	}

	query := `UPDATE diary_entry SET text = ?, entry_date = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, e.Text, toMillis(e.Date), e.ID)
	if err != nil {
		return dbx.Classify(fmt.Sprintf("update entry %d", e.ID), err)
	}

	ra, err := res.RowsAffected()
	if err != nil {
		return dbx.Classify("update entry: rows affected", err)
	}
	if ra == 0 {
		return fmt.Errorf("update entry %d: %w", e.ID, common.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.DiaryEntry, error) {
	query := `SELECT id, text, entry_date FROM diary_entry WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	e, err := scanEntry(row)
	if err != nil {
		return nil, dbx.Classify(fmt.Sprintf("get entry %d", id), err)
	}
	return e, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.DiaryEntry, error) {
	query := `SELECT id, text, entry_date FROM diary_entry ORDER BY entry_date DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, dbx.Classify("select entries", err)
	}
	defer rows.Close()

	result := make([]models.DiaryEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, dbx.Classify("scan entry", err)
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.Classify("select entries", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.DiaryEntry, error) {
	var (
		e      models.DiaryEntry
		text   sql.NullString
		millis int64
	)
	if err := s.Scan(&e.ID, &text, &millis); err != nil {
		return nil, err
	}
	e.Text = text.String
	e.Date = time.UnixMilli(millis).UTC()
	return &e, nil
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}
