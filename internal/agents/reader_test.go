package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vectortutor-backend/internal/logger"
)

func TestReader_Process(t *testing.T) {
	store := newTestStore(t)
	gen := &scriptedGenerator{text: []reply{
		{out: "## Topics\nCells and energy"},
		{out: "Cells\nEnergy, Genetics,  ,Evolution, Ecology, Extra"},
	}}
	ext := &stubExtractor{
		text: "Cells make energy. Genes carry traits.",
		meta: map[string]interface{}{"title": "Bio", "page_count": 2},
	}

	res, err := NewReader(store, gen, ext, logger.Nop()).Process(context.Background(), "/tmp/bio.pdf", "bio.pdf")
	require.NoError(t, err)

	assert.Equal(t, "bio.pdf", res.Filename)
	assert.Equal(t, 38, res.TextLength)
	assert.Equal(t, map[string]interface{}{"title": "Bio", "page_count": 2}, res.Metadata)
	assert.Equal(t, []string{"Cells", "Energy", "Genetics", "Evolution", "Ecology"}, res.StructuredContent["topics"])
	assert.Equal(t, 6, res.StructuredContent["word_count"])

	require.Len(t, gen.textCalls, 2)
	assert.Equal(t, 0.5, *gen.textCalls[0].opts.Temperature)
	assert.Equal(t, 2000, gen.textCalls[0].opts.MaxTokens)
	assert.Equal(t, 200, gen.textCalls[1].opts.MaxTokens)

	doc, err := store.Documents.GetByID(context.Background(), res.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, ext.text, doc.Content)
	assert.Equal(t, "Bio", doc.Metadata["title"])
	assert.Equal(t, "## Topics\nCells and energy", doc.Metadata["structured_analysis"])
	assert.Equal(t, []string{"Cells", "Energy", "Genetics", "Evolution", "Ecology"}, doc.Metadata.Topics())
}

func TestReader_StructuringFailureStillStores(t *testing.T) {
	store := newTestStore(t)
	gen := &scriptedGenerator{text: []reply{{err: errors.New("upstream down")}}}
	ext := &stubExtractor{text: "one two three", meta: map[string]interface{}{"title": ""}}

	res, err := NewReader(store, gen, ext, logger.Nop()).Process(context.Background(), "x.pdf", "x.pdf")
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{"error": "upstream down", "word_count": 3}, res.StructuredContent)
	assert.Len(t, gen.textCalls, 1)

	doc, err := store.Documents.GetByID(context.Background(), res.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "upstream down", doc.Metadata["error"])
	_, hasTopics := doc.Metadata["topics"]
	assert.False(t, hasTopics)
}

func TestReader_TopicFailureYieldsEmptyList(t *testing.T) {
	store := newTestStore(t)
	gen := &scriptedGenerator{text: []reply{{out: "analysis"}, {err: errors.New("timeout")}}}
	ext := &stubExtractor{text: "a b", meta: map[string]interface{}{}}

	res, err := NewReader(store, gen, ext, logger.Nop()).Process(context.Background(), "x.pdf", "x.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{}, res.StructuredContent["topics"])
	assert.Equal(t, "analysis", res.StructuredContent["structured_analysis"])
}

func TestReader_ExtractionFailure(t *testing.T) {
	store := newTestStore(t)
	ext := &stubExtractor{err: errors.New("corrupt pdf")}

	_, err := NewReader(store, &scriptedGenerator{}, ext, logger.Nop()).Process(context.Background(), "x.pdf", "x.pdf")
	var xerr *ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.EqualError(t, xerr.Err, "corrupt pdf")

	docs, err := store.Documents.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestParseTopics(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, parseTopics(" A ,\n\nB,"))
	assert.Equal(t, []string{}, parseTopics(""))
}
