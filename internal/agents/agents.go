// Package agents turns stored document text into study artifacts by pairing
// a text generator with the knowledge store. Every agent degrades to a local
// heuristic when generation fails, so only storage errors reach the caller.
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"vectortutor-backend/internal/services"
)

const (
	DefaultCount       = 10
	DefaultPlanDays    = 7
	DefaultHoursPerDay = 2.0
)

// Generator is the slice of services.Gateway the agents depend on.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts services.GenerateOptions) (string, error)
	GenerateJSON(ctx context.Context, prompt string, opts services.GenerateOptions) (json.RawMessage, error)
}

// Extractor reads text and document properties from an uploaded file.
type Extractor interface {
	ExtractText(path string) (string, error)
	ExtractMetadata(path string) map[string]interface{}
}

// ValidationError reports an argument the agent refuses to act on.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ExtractionError reports that no text could be read from an uploaded file.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract text: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// head returns at most the first n characters of s.
func head(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
