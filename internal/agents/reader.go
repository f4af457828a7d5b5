package agents

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"vectortutor-backend/internal/logger"
	"vectortutor-backend/internal/models"
	"vectortutor-backend/internal/repository"
	"vectortutor-backend/internal/services"
)

const (
	structureWindow  = 15000
	topicsWindow     = 10000
	topicsPromptSize = 5000
	maxTopics        = 5
)

const structureSystemPrompt = `You are a content structuring assistant. Analyze the provided text and extract:
1. Main topics/themes
2. Key concepts
3. Important definitions
4. Summary of content

Respond with a structured analysis.`

// ReaderResult describes a freshly ingested document.
type ReaderResult struct {
	DocumentID        int64                  `json:"document_id"`
	Filename          string                 `json:"filename"`
	Metadata          map[string]interface{} `json:"metadata"`
	StructuredContent map[string]interface{} `json:"structured_content"`
	TextLength        int                    `json:"text_length"`
}

type Reader struct {
	store     *repository.Store
	gen       Generator
	extractor Extractor
	log       *logger.Logger
}

func NewReader(store *repository.Store, gen Generator, extractor Extractor, log *logger.Logger) *Reader {
	return &Reader{store: store, gen: gen, extractor: extractor, log: log}
}

// Process extracts the file at path, asks the generator to structure it and
// stores the full text. Only extraction and storage failures are returned.
func (r *Reader) Process(ctx context.Context, path, filename string) (*ReaderResult, error) {
	text, err := r.extractor.ExtractText(path)
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}
	metadata := r.extractor.ExtractMetadata(path)

	structured := r.structure(ctx, text)

	merged := models.Metadata{}
	for k, v := range metadata {
		merged[k] = v
	}
	for k, v := range structured {
		merged[k] = v
	}

	doc := &models.Document{Filename: filename, Content: text, Metadata: merged}
	if _, err := r.store.Documents.Create(ctx, doc); err != nil {
		return nil, err
	}

	r.log.Info("Document ingested", "document_id", doc.ID, "filename", filename, "chars", utf8.RuneCountInString(text))

	return &ReaderResult{
		DocumentID:        doc.ID,
		Filename:          filename,
		Metadata:          metadata,
		StructuredContent: structured,
		TextLength:        utf8.RuneCountInString(text),
	}, nil
}

func (r *Reader) structure(ctx context.Context, text string) map[string]interface{} {
	wordCount := len(strings.Fields(text))

	prompt := fmt.Sprintf(`Analyze and structure the following text from a PDF document:

%s

Provide a structured analysis including:
- Main topics (list of 3-5 main topics)
- Key concepts (list of important concepts)
- Important definitions (if any)
- Brief summary (2-3 sentences)

Format your response clearly with headings.`, head(text, structureWindow))

	analysis, err := r.gen.Generate(ctx, prompt, services.GenerateOptions{
		SystemPrompt: structureSystemPrompt,
		Temperature:  services.Temp(0.5),
		MaxTokens:    2000,
	})
	if err != nil {
		r.log.Warn("Structuring failed", "error", err)
		return map[string]interface{}{
			"error":      err.Error(),
			"word_count": wordCount,
		}
	}

	return map[string]interface{}{
		"structured_analysis": analysis,
		"topics":              r.topics(ctx, head(text, topicsWindow)),
		"word_count":          wordCount,
	}
}

// topics asks for a short comma separated list. Failure yields no topics.
func (r *Reader) topics(ctx context.Context, text string) []string {
	prompt := fmt.Sprintf(`Extract the main topics from this text. Return only a comma-separated list of 3-5 main topics:

%s`, head(text, topicsPromptSize))

	resp, err := r.gen.Generate(ctx, prompt, services.GenerateOptions{Temperature: services.Temp(0.3), MaxTokens: 200})
	if err != nil {
		r.log.Warn("Topic extraction failed", "error", err)
		return []string{}
	}
	return parseTopics(resp)
}

func parseTopics(resp string) []string {
	topics := []string{}
	for _, t := range strings.Split(strings.ReplaceAll(resp, "\n", ","), ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
		if len(topics) == maxTopics {
			break
		}
	}
	return topics
}
