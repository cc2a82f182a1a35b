package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS uploads (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	edited_filename TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);`

type sqliteStore struct {
	db *sql.DB
}

// NewSQLite opens (and if needed creates) an upload database at
// dataSourceName.
func NewSQLite(ctx context.Context, dataSourceName string) (UploadStore, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer keeps :memory: databases on a single connection.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create uploads table: %w", err)
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Create(ctx context.Context, filename string) (*Upload, error) {
	t := now()
	u := Upload{ID: newID(), Filename: filename, CreatedAt: t, UpdatedAt: t}
	log := logrus.WithFields(logrus.Fields{"upload_id": u.ID, "filename": filename})
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO uploads (id, filename, edited_filename, created_at, updated_at) VALUES (?, ?, '', ?, ?)",
		u.ID, u.Filename, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to create upload")
		return nil, err
	}
	log.Debug("upload created")
	return &u, nil
}

func (s *sqliteStore) Get(ctx context.Context, id string) (*Upload, error) {
	u := Upload{ID: id}
	err := s.db.QueryRowContext(ctx,
		"SELECT filename, edited_filename, created_at, updated_at FROM uploads WHERE id = ?", id,
	).Scan(&u.Filename, &u.EditedFilename, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		logrus.WithField("upload_id", id).WithError(err).Error("Failed to retrieve upload")
		return nil, err
	}
	return &u, nil
}

func (s *sqliteStore) SetEdited(ctx context.Context, id, editedFilename string) (*Upload, error) {
	return s.setEdited(ctx, id, editedFilename)
}

func (s *sqliteStore) ClearEdited(ctx context.Context, id string) (*Upload, error) {
	return s.setEdited(ctx, id, "")
}

func (s *sqliteStore) setEdited(ctx context.Context, id, name string) (*Upload, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE uploads SET edited_filename = ?, updated_at = ? WHERE id = ?", name, now(), id)
	if err != nil {
		logrus.WithField("upload_id", id).WithError(err).Error("Failed to update upload")
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *sqliteStore) Close() error { return s.db.Close() }
