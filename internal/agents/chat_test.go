package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vectortutor-backend/internal/logger"
	"vectortutor-backend/internal/models"
	"vectortutor-backend/internal/repository"
)

func TestChat_AnswerFoldsRecentHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	docID := seedDocument(t, store, "The mitochondria is the powerhouse of the cell.", nil)

	for i := 1; i <= 4; i++ {
		answer := fmt.Sprintf("answer %d", i)
		if i == 4 {
			answer = strings.Repeat("z", 250)
		}
		_, err := store.Chat.Create(ctx, &models.ChatTurn{DocumentID: docID, Question: fmt.Sprintf("question %d", i), Answer: answer})
		require.NoError(t, err)
	}

	gen := &scriptedGenerator{text: []reply{{out: "It makes ATP."}}}
	res, err := NewChat(store, gen, logger.Nop()).Answer(ctx, docID, "What does it do?", true)
	require.NoError(t, err)
	assert.Equal(t, &models.ChatAnswer{
		Question: "What does it do?", Answer: "It makes ATP.", DocumentID: docID, Source: "document_content",
	}, res)

	require.Len(t, gen.textCalls, 1)
	prompt := gen.textCalls[0].prompt
	assert.NotContains(t, prompt, "question 1")
	i2 := strings.Index(prompt, "Q: question 2\nA: answer 2...")
	i3 := strings.Index(prompt, "Q: question 3\nA: answer 3...")
	i4 := strings.Index(prompt, "Q: question 4\nA: "+strings.Repeat("z", 200)+"...")
	require.True(t, i2 >= 0 && i3 >= 0 && i4 >= 0, prompt)
	assert.True(t, i2 < i3 && i3 < i4)
	assert.Equal(t, 1000, gen.textCalls[0].opts.MaxTokens)

	turns, err := store.Chat.History(ctx, &docID, 1)
	require.NoError(t, err)
	assert.Equal(t, "It makes ATP.", turns[0].Answer)
}

func TestChat_AnswerWithoutHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	docID := seedDocument(t, store, "content", nil)
	_, err := store.Chat.Create(ctx, &models.ChatTurn{DocumentID: docID, Question: "earlier", Answer: "yes"})
	require.NoError(t, err)

	gen := &scriptedGenerator{text: []reply{{out: "ok"}}}
	_, err = NewChat(store, gen, logger.Nop()).Answer(ctx, docID, "now?", false)
	require.NoError(t, err)
	assert.NotContains(t, gen.textCalls[0].prompt, "Previous Q&A")
}

func TestChat_FailureIsPersistedAsApology(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	docID := seedDocument(t, store, "content", nil)
	gen := &scriptedGenerator{text: []reply{{err: errors.New("connection reset")}}}

	res, err := NewChat(store, gen, logger.Nop()).Answer(ctx, docID, "Why?", true)
	require.NoError(t, err)
	assert.Equal(t, "I encountered an error while generating an answer: connection reset. Please try rephrasing your question.", res.Answer)

	turns, err := store.Chat.History(ctx, &docID, 0)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, res.Answer, turns[0].Answer)
}

func TestChat_Summarize(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	docID := seedDocument(t, store, "content", nil)
	gen := &scriptedGenerator{text: []reply{{out: "# Summary"}, {err: errors.New("quota")}}}
	agent := NewChat(store, gen, logger.Nop())

	summary, err := agent.Summarize(ctx, docID, "Cells")
	require.NoError(t, err)
	assert.Equal(t, "# Summary", summary)
	assert.Contains(t, gen.textCalls[0].prompt, "Focus the summary on: Cells.")
	assert.Equal(t, 0.5, *gen.textCalls[0].opts.Temperature)

	summary, err = agent.Summarize(ctx, docID, "")
	require.NoError(t, err)
	assert.Equal(t, "Error generating summary: quota", summary)

	counts, err := store.Counts(ctx, &docID)
	require.NoError(t, err)
	assert.Zero(t, counts.ChatTurns)

	_, err = agent.Summarize(ctx, 999, "")
	assert.ErrorIs(t, err, repository.ErrDocumentNotFound)
}
