package models

import "time"

// Metadata is the open-ended record attached to a document: PDF properties
// merged with the reader's structured analysis.
type Metadata map[string]interface{}

// Topics returns the string entries of the "topics" key, if any.
func (m Metadata) Topics() []string {
	raw, ok := m["topics"]
	if !ok {
		return nil
	}

	var topics []string
	switch v := raw.(type) {
	case []string:
		topics = append(topics, v...)
	case []interface{}:
		for _, t := range v {
			if s, ok := t.(string); ok && s != "" {
				topics = append(topics, s)
			}
		}
	}
	return topics
}

type Document struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	Content    string    `json:"content"`
	Metadata   Metadata  `json:"metadata"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// DocumentSummary is a document row without its content or metadata.
type DocumentSummary struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// PageChunk is a run of consecutive PDF pages starting at Page (1-based).
type PageChunk struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

type Counts struct {
	Documents  int `json:"documents"`
	Flashcards int `json:"flashcards"`
	Quizzes    int `json:"quizzes"`
	Plans      int `json:"revision_plans"`
	ChatTurns  int `json:"chat_turns"`
}

type Progress struct {
	Counts
	Performance    PerformanceStats `json:"performance"`
	Recommendation string           `json:"recommendation"`
}

func NewProgress(counts Counts, stats PerformanceStats) Progress {
	return Progress{Counts: counts, Performance: stats, Recommendation: stats.Recommendation()}
}
