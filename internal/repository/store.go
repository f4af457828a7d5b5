package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"vectortutor-backend/internal/database"
	"vectortutor-backend/internal/models"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrDocumentNotFound = fmt.Errorf("document %w", ErrNotFound)
	ErrQuizNotFound     = fmt.Errorf("quiz %w", ErrNotFound)
	ErrInvalidQuizItem  = errors.New("quiz item must have exactly 4 options and a correct answer between 0 and 3")
)

const defaultHistoryLimit = 50

// Store groups the repositories that share one database handle. It is built
// once at startup and handed to every agent.
type Store struct {
	db *database.DB

	Documents  *DocumentRepo
	Flashcards *FlashcardRepo
	Quizzes    *QuizRepo
	Plans      *PlanRepo
	Chat       *ChatRepo
}

func NewStore(db *database.DB) *Store {
	return &Store{
		db:         db,
		Documents:  NewDocumentRepo(db),
		Flashcards: NewFlashcardRepo(db),
		Quizzes:    NewQuizRepo(db),
		Plans:      NewPlanRepo(db),
		Chat:       NewChatRepo(db),
	}
}

// Counts reports how many rows of each entity exist, optionally for one document.
func (s *Store) Counts(ctx context.Context, documentID *int64) (*models.Counts, error) {
	c := &models.Counts{}

	if documentID == nil {
		if err := s.count(ctx, &c.Documents, "SELECT COUNT(*) FROM documents"); err != nil {
			return nil, err
		}
	} else {
		if err := s.count(ctx, &c.Documents, "SELECT COUNT(*) FROM documents WHERE id = ?", *documentID); err != nil {
			return nil, err
		}
	}

	for _, t := range []struct {
		dst   *int
		table string
	}{
		{&c.Flashcards, "flashcards"},
		{&c.Quizzes, "quizzes"},
		{&c.Plans, "revision_plans"},
		{&c.ChatTurns, "chat_history"},
	} {
		query := "SELECT COUNT(*) FROM " + t.table
		var args []interface{}
		if documentID != nil {
			query += " WHERE document_id = ?"
			args = append(args, *documentID)
		}
		if err := s.count(ctx, t.dst, query, args...); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (s *Store) count(ctx context.Context, dst *int, query string, args ...interface{}) error {
	if err := s.db.QueryRowContext(ctx, s.db.Dialect.Rebind(query), args...).Scan(dst); err != nil {
		return fmt.Errorf("failed to count: %w", err)
	}
	return nil
}

// insertForDocument runs an INSERT ... RETURNING id, <timestamp> in a
// transaction that first confirms the parent document exists.
func insertForDocument(ctx context.Context, db *database.DB, documentID int64, query string, args ...interface{}) (int64, time.Time, error) {
	var (
		id      int64
		created time.Time
	)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, created, err
	}
	defer tx.Rollback()

	exists, err := rowExists(ctx, tx, db.Dialect, "documents", documentID)
	if err != nil {
		return 0, created, err
	}
	if !exists {
		return 0, created, ErrDocumentNotFound
	}

	if err := tx.QueryRowContext(ctx, db.Dialect.Rebind(query), args...).Scan(&id, scanTime(&created)); err != nil {
		return 0, created, err
	}

	if err := tx.Commit(); err != nil {
		return 0, created, err
	}
	return id, created, nil
}

func rowExists(ctx context.Context, tx *sql.Tx, dialect database.Dialect, table string, id int64) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx,
		dialect.Rebind("SELECT EXISTS(SELECT 1 FROM "+table+" WHERE id = ?)"), id,
	).Scan(&exists)
	return exists, err
}

// whereClause joins non-empty conditions with AND.
func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
}

// dbTime scans timestamps that arrive as time.Time (pgx) or as text (SQLite).
type dbTime struct {
	t *time.Time
}

func scanTime(t *time.Time) dbTime {
	return dbTime{t: t}
}

func (d dbTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d.t = time.Time{}
		return nil
	case time.Time:
		*d.t = v.UTC()
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (d dbTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*d.t = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}
