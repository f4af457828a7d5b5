package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"vectortutor-backend/internal/database"
	"vectortutor-backend/internal/models"
)

type PlanRepo struct {
	db *database.DB
}

func NewPlanRepo(db *database.DB) *PlanRepo {
	return &PlanRepo{db: db}
}

func (r *PlanRepo) Create(ctx context.Context, p *models.RevisionPlan) (int64, error) {
	data, err := json.Marshal(p.Plan)
	if err != nil {
		return 0, fmt.Errorf("failed to encode plan: %w", err)
	}

	query := `INSERT INTO revision_plans (document_id, plan_data) VALUES (?, ?) RETURNING id, created_at`

	id, created, err := insertForDocument(ctx, r.db, p.DocumentID, query, p.DocumentID, string(data))
	if err != nil {
		return 0, fmt.Errorf("failed to insert revision plan: %w", err)
	}
	p.ID, p.CreatedAt = id, created
	return id, nil
}

// List returns revision plans newest first, optionally for one document.
func (r *PlanRepo) List(ctx context.Context, documentID *int64) ([]models.RevisionPlan, error) {
	query := `SELECT id, document_id, plan_data, created_at FROM revision_plans`
	var conds []string
	var args []interface{}
	if documentID != nil {
		conds = append(conds, "document_id = ?")
		args = append(args, *documentID)
	}
	query += whereClause(conds) + " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, r.db.Dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list revision plans: %w", err)
	}
	defer rows.Close()

	plans := []models.RevisionPlan{}
	for rows.Next() {
		p := models.RevisionPlan{}
		var data string
		if err := rows.Scan(&p.ID, &p.DocumentID, &data, scanTime(&p.CreatedAt)); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &p.Plan); err != nil {
			return nil, fmt.Errorf("failed to decode plan %d: %w", p.ID, err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}
