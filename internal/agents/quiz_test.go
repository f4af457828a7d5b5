package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vectortutor-backend/internal/logger"
	"vectortutor-backend/internal/models"
)


func TestQuiz_BucketsByDifficulty(t *testing.T) {
	store := newTestStore(t)
	docID := seedDocument(t, store, "Some content about cells.", nil)
	gen := &scriptedGenerator{json: []reply{
		{out: `{"questions": [{"question": "E?", "options": ["a","b","c","d"], "correct_answer": 0, "difficulty": "easy"}]}`},
		{out: `{"questions": [{"question": "M?", "options": ["a","b","c","d"], "correct_answer": 1, "difficulty": "medium"}]}`},
		{out: `{"questions": [
			{"question": "H1?", "options": ["a","b","c","d"], "correct_answer": 2, "difficulty": "hard"},
			{"question": "H2?", "options": ["a","b","c","d"], "correct_answer": 3, "difficulty": "hard"}
		]}`},
	}}

	items, err := NewQuiz(store, gen, logger.Nop()).Generate(context.Background(), docID, 4, "", "")
	require.NoError(t, err)
	require.Len(t, items, 4)

	var difficulties []string
	for _, it := range items {
		difficulties = append(difficulties, it.Difficulty)
		assert.NotZero(t, it.ID)
	}
	assert.Equal(t, []string{"easy", "medium", "hard", "hard"}, difficulties)

	require.Len(t, gen.jsonCalls, 3)
	assert.Contains(t, gen.jsonCalls[0].opts.SystemPrompt, "Test basic recall and understanding")
	assert.Contains(t, gen.jsonCalls[1].opts.SystemPrompt, "Test application and analysis")
	assert.Contains(t, gen.jsonCalls[2].opts.SystemPrompt, "Test synthesis, evaluation, and deep understanding")
	assert.Contains(t, gen.jsonCalls[2].prompt, "Generate 2 hard level")
}

func TestQuiz_DropsInvalidItems(t *testing.T) {
	store := newTestStore(t)
	docID := seedDocument(t, store, "content", nil)
	gen := &scriptedGenerator{json: []reply{
		{out: `{"questions": [
			{"question": "ok?", "options": ["a","b","c","d"], "correct_answer": 0, "difficulty": "easy"},
			{"question": "three options", "options": ["a","b","c"], "correct_answer": 0, "difficulty": "easy"},
			{"question": "bad answer", "options": ["a","b","c","d"], "correct_answer": 4, "difficulty": "easy"},
			{"question": "no difficulty", "options": ["a","b","c","d"], "correct_answer": 1},
			{"options": ["a","b","c","d"], "correct_answer": 1, "difficulty": "easy"},
			{"question": "no answer", "options": ["a","b","c","d"], "difficulty": "easy"}
		]}`},
		{out: `{"questions": [{"question": "extra?", "options": ["a","b","c","d"], "correct_answer": 3, "difficulty": "easy"}]}`},
	}}

	items, err := NewQuiz(store, gen, logger.Nop()).Generate(context.Background(), docID, 2, "easy", "")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "ok?", items[0].Question)
	assert.Equal(t, "extra?", items[1].Question)
	assert.Equal(t, 3, items[1].CorrectAnswer)
}

func TestQuiz_FallbackPerBucket(t *testing.T) {
	store := newTestStore(t)
	content := "Mitochondria are the powerhouse of the cell and make ATP. Tiny. " +
		"Ribosomes assemble proteins from amino acid chains in the cytoplasm"
	docID := seedDocument(t, store, content, nil)
	gen := &scriptedGenerator{json: []reply{{err: errors.New("boom")}}}

	items, err := NewQuiz(store, gen, logger.Nop()).Generate(context.Background(), docID, 5, "medium", "")
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "Which statement is true about: Mitochondria are the powerhouse of the cell and make ATP...?", first.Question)
	assert.Equal(t, []string{
		"Mitochondria are the powerhouse of the cell and make ATP",
		"This is not mentioned in the text.",
		"The opposite is true.",
		"None of the above.",
	}, first.Options)
	assert.Equal(t, 0, first.CorrectAnswer)
	assert.Equal(t, "medium", first.Difficulty)
	assert.Equal(t, "General", first.Topic)
}

func TestQuiz_InvalidDifficulty(t *testing.T) {
	store := newTestStore(t)
	docID := seedDocument(t, store, "content", nil)

	_, err := NewQuiz(store, &scriptedGenerator{}, logger.Nop()).Generate(context.Background(), docID, 3, "extreme", "")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestQuiz_SubmitAnswer(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	docID := seedDocument(t, store, "content", nil)
	agent := NewQuiz(store, &scriptedGenerator{}, logger.Nop())

	item := &models.QuizItem{DocumentID: docID, Question: "Q", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 2, Difficulty: "easy"}
	_, err := store.Quizzes.Create(ctx, item)
	require.NoError(t, err)

	ok, err := agent.SubmitAnswer(ctx, item.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = agent.SubmitAnswer(ctx, item.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = agent.SubmitAnswer(ctx, 9999, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	stats, err := agent.Stats(ctx, &docID)
	require.NoError(t, err)
	assert.Equal(t, models.PerformanceStats{TotalAttempts: 2, CorrectAttempts: 1, Accuracy: 50}, *stats)
}
