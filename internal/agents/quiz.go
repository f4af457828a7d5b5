package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"vectortutor-backend/internal/logger"
	"vectortutor-backend/internal/models"
	"vectortutor-backend/internal/repository"
	"vectortutor-backend/internal/services"
)

var difficultyFocus = map[string]string{
	"easy":   "Test basic recall and understanding",
	"medium": "Test application and analysis",
	"hard":   "Test synthesis, evaluation, and deep understanding",
}

// quizCandidate mirrors one generated question. Pointer fields tell a
// missing key apart from a zero value.
type quizCandidate struct {
	Question      *string  `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"len=4"`
	CorrectAnswer *int     `json:"correct_answer" validate:"required,min=0,max=3"`
	Difficulty    *string  `json:"difficulty" validate:"required"`
	Topic         string   `json:"topic"`
}

func (c quizCandidate) item() models.QuizItem {
	return models.QuizItem{
		Question:      *c.Question,
		Options:       c.Options,
		CorrectAnswer: *c.CorrectAnswer,
		Difficulty:    *c.Difficulty,
		Topic:         c.Topic,
	}
}

type Quiz struct {
	store    *repository.Store
	gen      Generator
	log      *logger.Logger
	validate *validator.Validate
}

func NewQuiz(store *repository.Store, gen Generator, log *logger.Logger) *Quiz {
	return &Quiz{store: store, gen: gen, log: log, validate: validator.New()}
}

// Generate creates up to count multiple-choice items. Without a difficulty
// the count is split into easy, medium and hard buckets, the remainder going
// to hard.
func (a *Quiz) Generate(ctx context.Context, documentID int64, count int, difficulty, topic string) ([]models.QuizItem, error) {
	if count <= 0 {
		count = DefaultCount
	}
	if difficulty != "" {
		if _, ok := difficultyFocus[difficulty]; !ok {
			return nil, &ValidationError{Field: "difficulty", Message: "must be one of easy, medium, hard"}
		}
	}

	doc, err := a.store.Documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	content := head(doc.Content, contentWindow)

	var items []models.QuizItem
	if difficulty != "" {
		items = a.bucket(ctx, content, count, difficulty, topic)
	} else {
		easy := count / 3
		medium := count / 3
		hard := count - easy - medium
		for _, b := range []struct {
			difficulty string
			size       int
		}{{"easy", easy}, {"medium", medium}, {"hard", hard}} {
			if b.size > 0 {
				items = append(items, a.bucket(ctx, content, b.size, b.difficulty, topic)...)
			}
		}
	}
	if len(items) > count {
		items = items[:count]
	}

	stored := make([]models.QuizItem, 0, len(items))
	for _, item := range items {
		item.DocumentID = documentID
		if _, err := a.store.Quizzes.Create(ctx, &item); err != nil {
			return nil, err
		}
		stored = append(stored, item)
	}

	a.log.Info("Quiz generated", "document_id", documentID, "requested", count, "created", len(stored))
	return stored, nil
}

// SubmitAnswer grades an answer and records the attempt. An unknown quiz id
// is reported as incorrect without recording anything.
func (a *Quiz) SubmitAnswer(ctx context.Context, quizID int64, userAnswer int) (bool, error) {
	items, err := a.store.Quizzes.List(ctx, models.QuizFilter{})
	if err != nil {
		return false, err
	}

	for _, item := range items {
		if item.ID != quizID {
			continue
		}
		isCorrect := userAnswer == item.CorrectAnswer
		if _, err := a.store.Quizzes.RecordAttempt(ctx, quizID, userAnswer, isCorrect); err != nil {
			return false, err
		}
		return isCorrect, nil
	}
	return false, nil
}

func (a *Quiz) List(ctx context.Context, f models.QuizFilter) ([]models.QuizItem, error) {
	return a.store.Quizzes.List(ctx, f)
}

func (a *Quiz) Stats(ctx context.Context, documentID *int64) (*models.PerformanceStats, error) {
	return a.store.Quizzes.Stats(ctx, documentID)
}

// bucket produces size items of one difficulty, falling back to sentence
// questions when the generator fails.
func (a *Quiz) bucket(ctx context.Context, content string, size int, difficulty, topic string) []models.QuizItem {
	items, err := a.generate(ctx, content, size, difficulty, topic)
	if err != nil {
		a.log.Warn("Quiz generation failed, using sentence fallback", "difficulty", difficulty, "error", err)
		return fallbackQuiz(content, size, difficulty)
	}
	return items
}

func (a *Quiz) generate(ctx context.Context, content string, count int, difficulty, topic string) ([]models.QuizItem, error) {
	systemPrompt := fmt.Sprintf(`You are a quiz generation expert. Create %s level multiple-choice questions that test understanding of the material.
%s level questions should:
- %s
- Have 4 options (A, B, C, D)
- Have one clearly correct answer
- Have plausible distractors (wrong answers)
- Be clear and unambiguous`, difficulty, strings.ToUpper(difficulty), difficultyFocus[difficulty])

	topicFilter := ""
	if topic != "" {
		topicFilter = fmt.Sprintf("Focus on the topic: %s. ", topic)
	}

	prompt := fmt.Sprintf(`Generate %d %s level multiple-choice questions from this content:

%s

%sCreate questions with:
- Clear question text
- 4 options labeled A, B, C, D
- One correct answer (specify which option: 0=A, 1=B, 2=C, 3=D)
- Appropriate difficulty level: %s
- Relevant topic

Return in this JSON format:
{
    "questions": [
        {
            "question": "Question text here?",
            "options": ["Option A", "Option B", "Option C", "Option D"],
            "correct_answer": 0,
            "difficulty": "%s",
            "topic": "Topic name"
        }
    ]
}`, count, difficulty, content, topicFilter, difficulty, difficulty)

	raw, err := a.gen.GenerateJSON(ctx, prompt, services.GenerateOptions{
		SystemPrompt: systemPrompt,
		Temperature:  services.Temp(0.7),
	})
	if err != nil {
		return nil, err
	}
	items, err := a.decode(raw)
	if err != nil {
		return nil, err
	}

	if len(items) < count {
		items = append(items, a.topUp(ctx, content, count-len(items), difficulty)...)
	}
	if len(items) > count {
		items = items[:count]
	}
	return items, nil
}

func (a *Quiz) topUp(ctx context.Context, content string, missing int, difficulty string) []models.QuizItem {
	prompt := fmt.Sprintf(`Generate %d more %s level questions from:

%s

Make them unique and different from previous questions.`, missing, difficulty, head(content, topUpWindow))

	raw, err := a.gen.GenerateJSON(ctx, prompt, services.GenerateOptions{Temperature: services.Temp(0.7)})
	if err != nil {
		a.log.Warn("Quiz top-up failed", "difficulty", difficulty, "error", err)
		return nil
	}
	items, err := a.decode(raw)
	if err != nil {
		a.log.Warn("Quiz top-up unreadable", "difficulty", difficulty, "error", err)
		return nil
	}
	return items
}

// decode reads {"questions": [...]} and keeps only well-formed items.
func (a *Quiz) decode(raw json.RawMessage) ([]models.QuizItem, error) {
	var resp struct {
		Questions []json.RawMessage `json:"questions"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("unexpected quiz payload: %w", err)
	}

	items := []models.QuizItem{}
	for _, q := range resp.Questions {
		var c quizCandidate
		if err := json.Unmarshal(q, &c); err != nil {
			continue
		}
		if err := a.validate.Struct(c); err != nil {
			continue
		}
		items = append(items, c.item())
	}
	return items, nil
}
