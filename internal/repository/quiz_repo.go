package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"

	"vectortutor-backend/internal/database"
	"vectortutor-backend/internal/models"
)

type QuizRepo struct {
	db *database.DB
}

func NewQuizRepo(db *database.DB) *QuizRepo {
	return &QuizRepo{db: db}
}

// Create stores one quiz item and fills in its ID and CreatedAt. Items without
// exactly four options or with an out-of-range answer are rejected.
func (r *QuizRepo) Create(ctx context.Context, q *models.QuizItem) (int64, error) {
	if len(q.Options) != 4 || q.CorrectAnswer < 0 || q.CorrectAnswer > 3 {
		return 0, ErrInvalidQuizItem
	}

	options, err := json.Marshal(q.Options)
	if err != nil {
		return 0, fmt.Errorf("failed to encode options: %w", err)
	}

	query := `INSERT INTO quizzes (document_id, question, options, correct_answer, difficulty, topic)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id, created_at`

	id, created, err := insertForDocument(ctx, r.db, q.DocumentID, query,
		q.DocumentID, q.Question, string(options), q.CorrectAnswer, nullIfEmpty(q.Difficulty), nullIfEmpty(q.Topic),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert quiz item: %w", err)
	}
	q.ID, q.CreatedAt = id, created
	return id, nil
}

// List returns quiz items newest first. Both filter fields are optional and
// combine with AND.
func (r *QuizRepo) List(ctx context.Context, f models.QuizFilter) ([]models.QuizItem, error) {
	query := `SELECT id, document_id, question, options, correct_answer, difficulty, topic, created_at FROM quizzes`
	var conds []string
	var args []interface{}
	if f.DocumentID != nil {
		conds = append(conds, "document_id = ?")
		args = append(args, *f.DocumentID)
	}
	if f.Difficulty != "" {
		conds = append(conds, "difficulty = ?")
		args = append(args, f.Difficulty)
	}
	query += whereClause(conds) + " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, r.db.Dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	defer rows.Close()

	items := []models.QuizItem{}
	for rows.Next() {
		q := models.QuizItem{}
		var options string
		var difficulty, topic sql.NullString
		err := rows.Scan(&q.ID, &q.DocumentID, &q.Question, &options, &q.CorrectAnswer, &difficulty, &topic, scanTime(&q.CreatedAt))
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
			return nil, fmt.Errorf("failed to decode options of quiz %d: %w", q.ID, err)
		}
		q.Difficulty, q.Topic = difficulty.String, topic.String
		items = append(items, q)
	}
	return items, rows.Err()
}

// RecordAttempt appends an attempt for an existing quiz item.
func (r *QuizRepo) RecordAttempt(ctx context.Context, quizID int64, userAnswer int, isCorrect bool) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	exists, err := rowExists(ctx, tx, r.db.Dialect, "quizzes", quizID)
	if err != nil {
		return 0, fmt.Errorf("failed to look up quiz %d: %w", quizID, err)
	}
	if !exists {
		return 0, ErrQuizNotFound
	}

	var id int64
	query := `INSERT INTO quiz_attempts (quiz_id, user_answer, is_correct) VALUES (?, ?, ?) RETURNING id`
	if err := tx.QueryRowContext(ctx, r.db.Dialect.Rebind(query), quizID, userAnswer, isCorrect).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to record attempt: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// Stats aggregates every recorded attempt, optionally restricted to the quiz
// items of one document. Accuracy is a percentage rounded to 2 places, 0 when
// there are no attempts.
func (r *QuizRepo) Stats(ctx context.Context, documentID *int64) (*models.PerformanceStats, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(CASE WHEN qa.is_correct THEN 1 ELSE 0 END), 0)
		FROM quiz_attempts qa`
	var args []interface{}
	if documentID != nil {
		query += ` JOIN quizzes q ON qa.quiz_id = q.id WHERE q.document_id = ?`
		args = append(args, *documentID)
	}

	stats := &models.PerformanceStats{}
	err := r.db.QueryRowContext(ctx, r.db.Dialect.Rebind(query), args...).Scan(&stats.TotalAttempts, &stats.CorrectAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}

	stats.Accuracy = accuracy(stats.CorrectAttempts, stats.TotalAttempts)
	return stats, nil
}

// accuracy is the percentage of correct attempts to two decimals, with
// halves rounded to even.
func accuracy(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.RoundToEven(float64(correct)/float64(total)*100*100) / 100
}
