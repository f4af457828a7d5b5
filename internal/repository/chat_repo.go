package repository

import (
	"context"
	"fmt"

	"vectortutor-backend/internal/database"
	"vectortutor-backend/internal/models"
)

type ChatRepo struct {
	db *database.DB
}

func NewChatRepo(db *database.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

func (r *ChatRepo) Create(ctx context.Context, t *models.ChatTurn) (int64, error) {
	query := `INSERT INTO chat_history (document_id, question, answer) VALUES (?, ?, ?) RETURNING id, asked_at`

	id, asked, err := insertForDocument(ctx, r.db, t.DocumentID, query, t.DocumentID, t.Question, t.Answer)
	if err != nil {
		return 0, fmt.Errorf("failed to insert chat turn: %w", err)
	}
	t.ID, t.AskedAt = id, asked
	return id, nil
}

// History returns at most limit turns, newest first. A non-positive limit
// means 50.
func (r *ChatRepo) History(ctx context.Context, documentID *int64, limit int) ([]models.ChatTurn, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	query := `SELECT id, document_id, question, answer, asked_at FROM chat_history`
	var conds []string
	var args []interface{}
	if documentID != nil {
		conds = append(conds, "document_id = ?")
		args = append(args, *documentID)
	}
	query += whereClause(conds) + " ORDER BY asked_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, r.db.Dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	defer rows.Close()

	turns := []models.ChatTurn{}
	for rows.Next() {
		t := models.ChatTurn{}
		if err := rows.Scan(&t.ID, &t.DocumentID, &t.Question, &t.Answer, scanTime(&t.AskedAt)); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
