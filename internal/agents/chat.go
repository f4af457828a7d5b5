package agents

import (
	"context"
	"fmt"
	"strings"

	"vectortutor-backend/internal/logger"
	"vectortutor-backend/internal/models"
	"vectortutor-backend/internal/repository"
	"vectortutor-backend/internal/services"
)

const (
	chatWindow      = 10000
	summaryWindow   = 15000
	historyFetch    = 5
	historyInPrompt = 3
	historyAnswer   = 200

	answerSource = "document_content"
)

const tutorSystemPrompt = `You are a helpful tutor assistant for VectorTutor. Answer questions based on the provided document content.
- Be accurate and cite information from the document
- If the answer isn't in the document, say so clearly
- Provide clear, concise explanations
- Use examples when helpful
- Be encouraging and supportive`

const summarySystemPrompt = `You are a note summarization expert. Create clear, organized summaries that:
- Highlight key concepts and main ideas
- Organize information logically
- Use bullet points and headings for clarity
- Include important definitions and examples
- Are concise but comprehensive`

type Chat struct {
	store *repository.Store
	gen   Generator
	log   *logger.Logger
}

func NewChat(store *repository.Store, gen Generator, log *logger.Logger) *Chat {
	return &Chat{store: store, gen: gen, log: log}
}

// Answer replies to a question about a document. The turn is stored even
// when generation fails, with an apology as the answer.
func (a *Chat) Answer(ctx context.Context, documentID int64, question string, useHistory bool) (*models.ChatAnswer, error) {
	doc, err := a.store.Documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	history := ""
	if useHistory {
		turns, err := a.store.Chat.History(ctx, &documentID, historyFetch)
		if err != nil {
			return nil, err
		}
		history = formatHistory(turns)
	}

	prompt := fmt.Sprintf(`Based on the following document content, answer the user's question:

Document Content:
%s

%s

User Question: %s

Provide a clear, accurate answer based on the document content. If the answer is not in the provided content, state that clearly.`,
		head(doc.Content, chatWindow), history, question)

	answer, err := a.gen.Generate(ctx, prompt, services.GenerateOptions{
		SystemPrompt: tutorSystemPrompt,
		Temperature:  services.Temp(0.7),
		MaxTokens:    1000,
	})
	if err != nil {
		a.log.Warn("Answer generation failed", "document_id", documentID, "error", err)
		answer = fmt.Sprintf("I encountered an error while generating an answer: %v. Please try rephrasing your question.", err)
	}

	turn := &models.ChatTurn{DocumentID: documentID, Question: question, Answer: answer}
	if _, err := a.store.Chat.Create(ctx, turn); err != nil {
		return nil, err
	}

	return &models.ChatAnswer{
		Question:   question,
		Answer:     answer,
		DocumentID: documentID,
		Source:     answerSource,
	}, nil
}

// formatHistory renders the most recent turns oldest first. turns arrive
// newest first.
func formatHistory(turns []models.ChatTurn) string {
	if len(turns) == 0 {
		return ""
	}
	if len(turns) > historyInPrompt {
		turns = turns[:historyInPrompt]
	}

	var b strings.Builder
	b.WriteString("\n\nPrevious Q&A:\n")
	for i := len(turns) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "Q: %s\nA: %s...\n\n", turns[i].Question, head(turns[i].Answer, historyAnswer))
	}
	return b.String()
}

// Summarize condenses a document. Generation failures come back as the
// summary text rather than an error.
func (a *Chat) Summarize(ctx context.Context, documentID int64, focusTopic string) (string, error) {
	doc, err := a.store.Documents.GetByID(ctx, documentID)
	if err != nil {
		return "", err
	}

	topicFilter := ""
	if focusTopic != "" {
		topicFilter = fmt.Sprintf("Focus the summary on: %s. ", focusTopic)
	}

	prompt := fmt.Sprintf(`Create a comprehensive summary of the following notes:

%s

%sOrganize the summary with:
- Main topics and headings
- Key concepts and definitions
- Important points and examples
- Clear structure for easy review`, head(doc.Content, summaryWindow), topicFilter)

	summary, err := a.gen.Generate(ctx, prompt, services.GenerateOptions{
		SystemPrompt: summarySystemPrompt,
		Temperature:  services.Temp(0.5),
		MaxTokens:    2000,
	})
	if err != nil {
		a.log.Warn("Summary generation failed", "document_id", documentID, "error", err)
		return fmt.Sprintf("Error generating summary: %v", err), nil
	}
	return summary, nil
}

func (a *Chat) History(ctx context.Context, documentID *int64, limit int) ([]models.ChatTurn, error) {
	return a.store.Chat.History(ctx, documentID, limit)
}
