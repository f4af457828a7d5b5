package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"vectortutor-backend/internal/logger"
)

const (
	defaultTemperature     = 0.7
	defaultJSONTemperature = 0.3
	defaultMaxTokens       = 4096

	jsonInstruction = "\n\nRespond with valid JSON only, no additional text."
	parsePrefixLen  = 200
)

// GenerateOptions tunes a single generation call. A nil Temperature or a
// non-positive MaxTokens falls back to the gateway defaults.
type GenerateOptions struct {
	SystemPrompt string
	Temperature  *float64
	MaxTokens    int
}

// Temp returns a pointer to v for GenerateOptions.Temperature.
func Temp(v float64) *float64 { return &v }

func (o GenerateOptions) temperature() float64 {
	if o.Temperature == nil {
		return defaultTemperature
	}
	return *o.Temperature
}

// TextGenerator is a remote text generation provider.
type TextGenerator interface {
	Name() string
	Model() string
	GenerateText(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// GenerationError wraps a provider failure.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ParseError reports a structured response that was not valid JSON.
type ParseError struct {
	Prefix string
	Err    error
}

func (e *ParseError) Error() string {
	return "failed to parse JSON response: " + e.Prefix
}

func (e *ParseError) Unwrap() error { return e.Err }

// Gateway sends prompts to one provider, bounding the number of calls in
// flight.
type Gateway struct {
	provider TextGenerator
	log      *logger.Logger
	rateChan chan struct{}
}

func NewGateway(provider TextGenerator, concurrentReqs int, log *logger.Logger) *Gateway {
	if concurrentReqs < 1 {
		concurrentReqs = 1
	}

	// Token bucket for concurrent provider calls
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &Gateway{provider: provider, log: log, rateChan: rateChan}
}

func (g *Gateway) Provider() string { return g.provider.Name() }

// acquireRate blocks until a slot is free or ctx is done.
func (g *Gateway) acquireRate(ctx context.Context) error {
	select {
	case <-g.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Gateway) releaseRate() {
	g.rateChan <- struct{}{}
}

// Generate returns the provider's free-text response to prompt.
func (g *Gateway) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	if opts.Temperature == nil {
		opts.Temperature = Temp(defaultTemperature)
	}
	return g.generate(ctx, prompt, opts)
}

// GenerateJSON asks for a JSON-only response and returns the parsed object.
func (g *Gateway) GenerateJSON(ctx context.Context, prompt string, opts GenerateOptions) (json.RawMessage, error) {
	if opts.Temperature == nil {
		opts.Temperature = Temp(defaultJSONTemperature)
	}

	text, err := g.generate(ctx, prompt+jsonInstruction, opts)
	if err != nil {
		return nil, err
	}
	return ExtractJSON(text)
}

func (g *Gateway) generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}

	if err := g.acquireRate(ctx); err != nil {
		return "", &GenerationError{Provider: g.provider.Name(), Err: err}
	}
	defer g.releaseRate()

	start := time.Now()
	text, err := g.provider.GenerateText(ctx, prompt, opts)
	if err != nil {
		g.log.Warn("Generation failed",
			"provider", g.provider.Name(),
			"model", g.provider.Model(),
			"latency_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return "", &GenerationError{Provider: g.provider.Name(), Err: err}
	}

	g.log.Debug("Generation complete",
		"provider", g.provider.Name(),
		"model", g.provider.Model(),
		"latency_ms", time.Since(start).Milliseconds(),
		"prompt_chars", utf8.RuneCountInString(prompt),
		"response_chars", utf8.RuneCountInString(text),
	)
	return text, nil
}

// ExtractJSON parses a model response that should contain one JSON object.
// A fenced block anywhere in the text wins, preferring a ```json fence; with
// no fence the outermost braces are tried after the whole text.
func ExtractJSON(text string) (json.RawMessage, error) {
	cleaned := text
	if block, ok := fencedBlock(text, "```json"); ok {
		cleaned = block
	} else if block, ok := fencedBlock(text, "```"); ok {
		cleaned = block
	}
	cleaned = strings.TrimSpace(cleaned)

	var raw json.RawMessage
	err := json.Unmarshal([]byte(cleaned), &raw)
	if err == nil {
		return raw, nil
	}

	// Try the outermost object
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		if err2 := json.Unmarshal([]byte(cleaned[start:end+1]), &raw); err2 == nil {
			return raw, nil
		}
	}

	return nil, &ParseError{Prefix: truncateRunes(text, parsePrefixLen), Err: err}
}

// fencedBlock returns the text between the first open marker and the next
// closing fence, or to the end of text when the fence is never closed.
func fencedBlock(text, open string) (string, bool) {
	i := strings.Index(text, open)
	if i < 0 {
		return "", false
	}
	rest := text[i+len(open):]
	if j := strings.Index(rest, "```"); j >= 0 {
		rest = rest[:j]
	}
	return rest, true
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
