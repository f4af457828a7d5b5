package repository

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"vectortutor-backend/internal/database"
	"vectortutor-backend/internal/models"
)

type DocumentRepo struct {
	db *database.DB
}

func NewDocumentRepo(db *database.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// Create stores a document and fills in its ID and UploadedAt. Empty metadata
// is stored as NULL.
func (r *DocumentRepo) Create(ctx context.Context, d *models.Document) (int64, error) {
	var metadata interface{}
	if len(d.Metadata) > 0 {
		b, err := json.Marshal(d.Metadata)
		if err != nil {
			return 0, fmt.Errorf("failed to encode metadata: %w", err)
		}
		metadata = string(b)
	}

	query := `INSERT INTO documents (filename, content, metadata)
		VALUES (?, ?, ?) RETURNING id, uploaded_at`

	err := r.db.QueryRowContext(ctx, r.db.Dialect.Rebind(query),
		d.Filename, d.Content, metadata,
	).Scan(&d.ID, scanTime(&d.UploadedAt))
	if err != nil {
		return 0, fmt.Errorf("failed to insert document: %w", err)
	}
	return d.ID, nil
}

func (r *DocumentRepo) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	query := `SELECT id, filename, content, metadata, uploaded_at FROM documents WHERE id = ?`

	d, err := scanDocument(r.db.QueryRowContext(ctx, r.db.Dialect.Rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %d: %w", id, err)
	}
	return d, nil
}

// List returns every document, newest first.
func (r *DocumentRepo) List(ctx context.Context) ([]*models.Document, error) {
	query := `SELECT id, filename, content, metadata, uploaded_at
		FROM documents ORDER BY uploaded_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := []*models.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Recent returns up to n documents, newest first, without their content.
func (r *DocumentRepo) Recent(ctx context.Context, n int) ([]models.DocumentSummary, error) {
	query := `SELECT id, filename, uploaded_at
		FROM documents ORDER BY uploaded_at DESC, id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, r.db.Dialect.Rebind(query), n)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent documents: %w", err)
	}
	defer rows.Close()

	docs := []models.DocumentSummary{}
	for rows.Next() {
		var d models.DocumentSummary
		if err := rows.Scan(&d.ID, &d.Filename, scanTime(&d.UploadedAt)); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	d := &models.Document{}
	var metadata sql.NullString
	if err := row.Scan(&d.ID, &d.Filename, &d.Content, &metadata, scanTime(&d.UploadedAt)); err != nil {
		return nil, err
	}

	d.Metadata = models.Metadata{}
	if metadata.Valid && metadata.String != "" {
		if err := decodeJSON(metadata.String, &d.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata of document %d: %w", d.ID, err)
		}
	}
	return d, nil
}

// decodeJSON keeps numbers as json.Number so integers survive the round trip.
func decodeJSON(s string, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	return dec.Decode(v)
}
