package repository

import (
	"context"
	"database/sql"
	"fmt"

	"vectortutor-backend/internal/database"
	"vectortutor-backend/internal/models"
)

type FlashcardRepo struct {
	db *database.DB
}

func NewFlashcardRepo(db *database.DB) *FlashcardRepo {
	return &FlashcardRepo{db: db}
}

// Create stores one card and fills in its ID and CreatedAt. The referenced
// document must exist.
func (r *FlashcardRepo) Create(ctx context.Context, c *models.Flashcard) (int64, error) {
	query := `INSERT INTO flashcards (document_id, question, answer, topic, difficulty)
		VALUES (?, ?, ?, ?, ?) RETURNING id, created_at`

	id, created, err := insertForDocument(ctx, r.db, c.DocumentID, query,
		c.DocumentID, c.Question, c.Answer, nullIfEmpty(c.Topic), nullIfEmpty(c.Difficulty),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert flashcard: %w", err)
	}
	c.ID, c.CreatedAt = id, created
	return id, nil
}

// List returns flashcards newest first, optionally for a single document.
func (r *FlashcardRepo) List(ctx context.Context, documentID *int64) ([]models.Flashcard, error) {
	query := `SELECT id, document_id, question, answer, topic, difficulty, created_at FROM flashcards`
	var conds []string
	var args []interface{}
	if documentID != nil {
		conds = append(conds, "document_id = ?")
		args = append(args, *documentID)
	}
	query += whereClause(conds) + " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, r.db.Dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list flashcards: %w", err)
	}
	defer rows.Close()

	cards := []models.Flashcard{}
	for rows.Next() {
		c := models.Flashcard{}
		var topic, difficulty sql.NullString
		err := rows.Scan(&c.ID, &c.DocumentID, &c.Question, &c.Answer, &topic, &difficulty, scanTime(&c.CreatedAt))
		if err != nil {
			return nil, err
		}
		c.Topic, c.Difficulty = topic.String, difficulty.String
		cards = append(cards, c)
	}
	return cards, rows.Err()
}
