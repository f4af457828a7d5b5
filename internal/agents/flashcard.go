package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"vectortutor-backend/internal/logger"
	"vectortutor-backend/internal/models"
	"vectortutor-backend/internal/repository"
	"vectortutor-backend/internal/services"
)

const (
	contentWindow = 12000
	topUpWindow   = 8000
)

const flashcardSystemPrompt = `You are a flashcard generation expert. Create clear, concise question-answer pairs that help students learn effectively.
Each flashcard should:
- Have a clear, specific question
- Have a comprehensive but concise answer
- Cover important concepts from the material
- Be suitable for active recall practice`

type cardCandidate struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
}

type Flashcard struct {
	store *repository.Store
	gen   Generator
	log   *logger.Logger
}

func NewFlashcard(store *repository.Store, gen Generator, log *logger.Logger) *Flashcard {
	return &Flashcard{store: store, gen: gen, log: log}
}

// Generate creates up to count flashcards for a document and stores each one.
func (a *Flashcard) Generate(ctx context.Context, documentID int64, count int, topic string) ([]models.Flashcard, error) {
	if count <= 0 {
		count = DefaultCount
	}

	doc, err := a.store.Documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	content := head(doc.Content, contentWindow)

	candidates, err := a.generate(ctx, content, count, topic)
	if err != nil {
		a.log.Warn("Flashcard generation failed, using sentence fallback", "document_id", documentID, "error", err)
		candidates = fallbackFlashcards(content, count)
	}

	cards := make([]models.Flashcard, 0, len(candidates))
	for _, c := range candidates {
		card := models.Flashcard{
			DocumentID: documentID,
			Question:   c.Question,
			Answer:     c.Answer,
			Topic:      c.Topic,
			Difficulty: c.Difficulty,
		}
		if card.Difficulty == "" {
			card.Difficulty = defaultDifficulty
		}
		if _, err := a.store.Flashcards.Create(ctx, &card); err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}

	a.log.Info("Flashcards generated", "document_id", documentID, "requested", count, "created", len(cards))
	return cards, nil
}

func (a *Flashcard) List(ctx context.Context, documentID *int64) ([]models.Flashcard, error) {
	return a.store.Flashcards.List(ctx, documentID)
}

func (a *Flashcard) generate(ctx context.Context, content string, count int, topic string) ([]cardCandidate, error) {
	topicFilter := ""
	if topic != "" {
		topicFilter = fmt.Sprintf("Focus on the topic: %s. ", topic)
	}

	prompt := fmt.Sprintf(`Generate %d flashcards from the following content:

%s

%sCreate flashcards with:
- Clear, specific questions
- Comprehensive but concise answers
- Relevant topics
- Appropriate difficulty level (easy/medium/hard)

Return the flashcards in this JSON format:
{
    "flashcards": [
        {
            "question": "Question text here",
            "answer": "Answer text here",
            "topic": "Topic name",
            "difficulty": "medium"
        }
    ]
}`, count, content, topicFilter)

	raw, err := a.gen.GenerateJSON(ctx, prompt, services.GenerateOptions{
		SystemPrompt: flashcardSystemPrompt,
		Temperature:  services.Temp(0.7),
	})
	if err != nil {
		return nil, err
	}
	cards, err := decodeCards(raw)
	if err != nil {
		return nil, err
	}

	if len(cards) < count {
		cards = append(cards, a.topUp(ctx, content, count-len(cards))...)
	}
	if len(cards) > count {
		cards = cards[:count]
	}
	return cards, nil
}

// topUp asks once for the shortfall. Failure contributes nothing.
func (a *Flashcard) topUp(ctx context.Context, content string, missing int) []cardCandidate {
	prompt := fmt.Sprintf(`Generate %d more flashcards from this content:

%s

Create unique flashcards different from previous ones.`, missing, head(content, topUpWindow))

	raw, err := a.gen.GenerateJSON(ctx, prompt, services.GenerateOptions{Temperature: services.Temp(0.7)})
	if err != nil {
		a.log.Warn("Flashcard top-up failed", "error", err)
		return nil
	}
	cards, err := decodeCards(raw)
	if err != nil {
		a.log.Warn("Flashcard top-up unreadable", "error", err)
		return nil
	}
	return cards
}

// decodeCards reads {"flashcards": [...]}, dropping entries that are not
// objects or lack a question or answer.
func decodeCards(raw json.RawMessage) ([]cardCandidate, error) {
	var resp struct {
		Flashcards []json.RawMessage `json:"flashcards"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("unexpected flashcard payload: %w", err)
	}

	cards := []cardCandidate{}
	for _, item := range resp.Flashcards {
		var c cardCandidate
		if err := json.Unmarshal(item, &c); err != nil {
			continue
		}
		if strings.TrimSpace(c.Question) == "" || strings.TrimSpace(c.Answer) == "" {
			continue
		}
		cards = append(cards, c)
	}
	return cards, nil
}
