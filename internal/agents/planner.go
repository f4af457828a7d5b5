package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"vectortutor-backend/internal/logger"
	"vectortutor-backend/internal/models"
	"vectortutor-backend/internal/repository"
	"vectortutor-backend/internal/services"
)

const (
	planExcerpt        = 3000
	maxFlashcardTopics = 5
)

const plannerSystemPrompt = `You are an expert study planner. Create effective revision schedules that:
- Distribute content evenly across available days
- Include review sessions for previously studied material
- Adapt to user's performance (focus more on weak areas)
- Include practice sessions (quizzes, flashcards)
- Build in rest days before the exam
- Are realistic and achievable`

type Planner struct {
	store *repository.Store
	gen   Generator
	log   *logger.Logger
	now   func() time.Time
}

// NewPlanner builds a planner. A nil clock means time.Now.
func NewPlanner(store *repository.Store, gen Generator, log *logger.Logger, clock func() time.Time) *Planner {
	if clock == nil {
		clock = time.Now
	}
	return &Planner{store: store, gen: gen, log: log, now: clock}
}

// CreatePlan builds and stores a day-by-day revision schedule for a document.
func (a *Planner) CreatePlan(ctx context.Context, documentID int64, days int, hoursPerDay float64, focusTopics []string) (*models.RevisionPlan, error) {
	if days < 1 {
		return nil, &ValidationError{Field: "days", Message: "must be at least 1"}
	}
	if hoursPerDay <= 0 {
		return nil, &ValidationError{Field: "hours_per_day", Message: "must be greater than 0"}
	}

	doc, err := a.store.Documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	cards, err := a.store.Flashcards.List(ctx, &documentID)
	if err != nil {
		return nil, err
	}
	topics := planTopics(focusTopics, doc.Metadata, cards)

	stats, err := a.store.Quizzes.Stats(ctx, &documentID)
	if err != nil {
		return nil, err
	}

	start := a.now()
	data, err := a.generate(ctx, doc.Content, topics, days, hoursPerDay, stats.Accuracy, start)
	if err != nil {
		a.log.Warn("Plan generation failed, using default schedule", "document_id", documentID, "error", err)
		data = fallbackPlan(topics, days, hoursPerDay, start)
	}

	plan := &models.RevisionPlan{DocumentID: documentID, Plan: data}
	if _, err := a.store.Plans.Create(ctx, plan); err != nil {
		return nil, err
	}

	a.log.Info("Revision plan created", "document_id", documentID, "plan_id", plan.ID, "days", days)
	return plan, nil
}

func (a *Planner) List(ctx context.Context, documentID *int64) ([]models.RevisionPlan, error) {
	return a.store.Plans.List(ctx, documentID)
}

// planTopics picks explicit topics first, then the document's recorded
// topics, then distinct flashcard topics.
func planTopics(focus []string, meta models.Metadata, cards []models.Flashcard) []string {
	if len(focus) > 0 {
		return focus
	}
	if topics := meta.Topics(); len(topics) > 0 {
		return topics
	}

	seen := map[string]bool{}
	var topics []string
	for _, c := range cards {
		if c.Topic == "" || seen[c.Topic] {
			continue
		}
		seen[c.Topic] = true
		topics = append(topics, c.Topic)
		if len(topics) == maxFlashcardTopics {
			break
		}
	}
	if len(topics) == 0 {
		return []string{generalContent}
	}
	return topics
}

func (a *Planner) generate(ctx context.Context, content string, topics []string, days int, hoursPerDay, accuracy float64, start time.Time) (models.PlanData, error) {
	hours := strconv.FormatFloat(hoursPerDay, 'f', -1, 64)

	prompt := fmt.Sprintf(`Create a %d-day revision plan for an exam with the following details:

Content Summary:
%s

Topics to Cover: %s
Days until exam: %d
Hours available per day: %s
Current quiz accuracy: %s%%

Create a detailed day-by-day plan. Each day should include:
- Topics/chapters to study
- Time allocation
- Activities (reading, flashcards, quizzes)
- Review of previous days' material

Return the plan in this JSON format:
{
    "plan_name": "Revision Plan Name",
    "total_days": %d,
    "hours_per_day": %s,
    "schedule": [
        {
            "day": 1,
            "date": "YYYY-MM-DD",
            "topics": ["Topic 1", "Topic 2"],
            "activities": [
                {"type": "reading", "description": "Read Chapter 1", "duration_minutes": 60},
                {"type": "flashcards", "description": "Review flashcards on Topic 1", "duration_minutes": 30}
            ],
            "notes": "Day 1 notes"
        }
    ],
    "tips": ["Tip 1", "Tip 2", "Tip 3"]
}`, days, head(content, planExcerpt), strings.Join(topics, ", "), days, hours,
		strconv.FormatFloat(accuracy, 'f', -1, 64), days, hours)

	raw, err := a.gen.GenerateJSON(ctx, prompt, services.GenerateOptions{
		SystemPrompt: plannerSystemPrompt,
		Temperature:  services.Temp(0.6),
	})
	if err != nil {
		return models.PlanData{}, err
	}

	var data models.PlanData
	if err := json.Unmarshal(raw, &data); err != nil {
		return models.PlanData{}, fmt.Errorf("unexpected plan payload: %w", err)
	}

	if data.PlanName == "" {
		data.PlanName = fmt.Sprintf("%d-Day Revision Plan", days)
	}
	if data.TotalDays == 0 {
		data.TotalDays = days
	}
	if data.HoursPerDay == 0 {
		data.HoursPerDay = hoursPerDay
	}
	for i := range data.Schedule {
		if data.Schedule[i].Day == 0 {
			data.Schedule[i].Day = 1
		}
		data.Schedule[i].Date = planDate(start, data.Schedule[i].Day)
	}
	return data, nil
}
