package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vectortutor-backend/internal/logger"
)

type stubProvider struct {
	response string
	err      error
	block    chan struct{}

	prompts []string
	opts    []GenerateOptions
}

func (p *stubProvider) Name() string  { return "stub" }
func (p *stubProvider) Model() string { return "stub-1" }

func (p *stubProvider) GenerateText(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	p.prompts = append(p.prompts, prompt)
	p.opts = append(p.opts, opts)
	if p.block != nil {
		<-p.block
	}
	return p.response, p.err
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain object", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":[1,2]}\n```", `{"a":[1,2]}`},
		{"surrounding prose", "Here you go:\n{\"a\":{\"b\":true}}\nHope it helps", `{"a":{"b":true}}`},
		{"fence after prose", "Here you go: ```json\n{\"a\":1}\n``` note {x}", `{"a":1}`},
		{"bare fence after prose", "Sure!\n```\n{\"a\":2}\n```\nAnything else {?}", `{"a":2}`},
		{"unclosed fence", "Result:\n```json\n{\"a\":3}", `{"a":3}`},
		{"prose inside fence", "```json\nCards: {\"a\":4} done\n```", `{"a":4}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSON(tc.input)
			require.NoError(t, err)
			assert.JSONEq(t, tc.expected, string(got))
		})
	}
}

func TestExtractJSON_ParseError(t *testing.T) {
	raw := "no json here " + strings.Repeat("x", 300)

	_, err := ExtractJSON(raw)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Len(t, []rune(perr.Prefix), 200)
	assert.True(t, strings.HasPrefix(err.Error(), "failed to parse JSON response: no json here"))
}

func TestGateway_GenerateDefaults(t *testing.T) {
	p := &stubProvider{response: "hello"}
	g := NewGateway(p, 2, logger.Nop())

	text, err := g.Generate(context.Background(), "prompt", GenerateOptions{SystemPrompt: "sys"})
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	require.Len(t, p.opts, 1)
	assert.Equal(t, GenerateOptions{SystemPrompt: "sys", Temperature: Temp(0.7), MaxTokens: 4096}, p.opts[0])
	assert.Equal(t, "prompt", p.prompts[0])
}

func TestGateway_GenerateJSON(t *testing.T) {
	p := &stubProvider{response: "```json\n{\"flashcards\":[]}\n```"}
	g := NewGateway(p, 1, logger.Nop())

	raw, err := g.GenerateJSON(context.Background(), "make cards", GenerateOptions{MaxTokens: 500})
	require.NoError(t, err)
	assert.JSONEq(t, `{"flashcards":[]}`, string(raw))
	assert.Equal(t, "make cards\n\nRespond with valid JSON only, no additional text.", p.prompts[0])
	assert.Equal(t, 0.3, *p.opts[0].Temperature)
	assert.Equal(t, 500, p.opts[0].MaxTokens)
}

func TestGateway_ZeroTemperature(t *testing.T) {
	p := &stubProvider{response: `{"ok":true}`}
	g := NewGateway(p, 1, logger.Nop())

	_, err := g.Generate(context.Background(), "p", GenerateOptions{Temperature: Temp(0)})
	require.NoError(t, err)
	_, err = g.GenerateJSON(context.Background(), "p", GenerateOptions{Temperature: Temp(0)})
	require.NoError(t, err)

	require.Len(t, p.opts, 2)
	assert.Equal(t, 0.0, *p.opts[0].Temperature)
	assert.Equal(t, 0.0, *p.opts[1].Temperature)
	assert.Equal(t, 0.0, p.opts[1].temperature())
	assert.Equal(t, 0.7, GenerateOptions{}.temperature())
}

func TestGateway_ProviderError(t *testing.T) {
	cause := errors.New("quota exceeded")
	g := NewGateway(&stubProvider{err: cause}, 1, logger.Nop())

	_, err := g.Generate(context.Background(), "p", GenerateOptions{})
	var gerr *GenerationError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "stub", gerr.Provider)
	assert.ErrorIs(t, err, cause)
}

func TestGateway_SlotHonoursContext(t *testing.T) {
	p := &stubProvider{response: "ok", block: make(chan struct{})}
	g := NewGateway(p, 1, logger.Nop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		g.Generate(context.Background(), "first", GenerateOptions{})
	}()

	// Wait until the first call holds the only slot.
	for len(g.rateChan) != 0 {
		select {
		case <-done:
			t.Fatal("first call finished early")
		default:
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Generate(ctx, "second", GenerateOptions{})
	assert.ErrorIs(t, err, context.Canceled)

	close(p.block)
	<-done
}

func TestGroqProvider_ChatCompletion(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Unexpected Authorization header %q", got)
		}
		b, _ := io.ReadAll(r.Body)
		json.Unmarshal(b, &body)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "llama-3.3-70b-versatile",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "{\"topics\": [\"Cells\"]}"}}]
		}`)
	}))
	defer srv.Close()

	g := NewGateway(NewGroqProvider("test-key", "", srv.URL), 1, logger.Nop())
	raw, err := g.GenerateJSON(context.Background(), "list topics", GenerateOptions{SystemPrompt: "You are helpful.", MaxTokens: 200})
	require.NoError(t, err)
	assert.JSONEq(t, `{"topics":["Cells"]}`, string(raw))

	assert.Equal(t, "llama-3.3-70b-versatile", body["model"])
	assert.Equal(t, 0.3, body["temperature"])
	assert.Equal(t, float64(200), body["max_tokens"])
	messages, ok := body["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])
}

func TestGroqProvider_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error": {"message": "rate limited", "type": "rate_limit"}}`)
	}))
	defer srv.Close()

	g := NewGateway(NewGroqProvider("k", "", srv.URL), 1, logger.Nop())
	_, err := g.Generate(context.Background(), "hi", GenerateOptions{})
	var gerr *GenerationError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "groq", gerr.Provider)
}

func TestAnthropicProvider_Messages(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "test-key" {
			t.Errorf("Unexpected X-Api-Key header %q", got)
		}
		b, _ := io.ReadAll(r.Body)
		json.Unmarshal(b, &body)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-latest",
			"content": [
				{"type": "text", "text": "Cells are "},
				{"type": "text", "text": "the unit of life."}
			],
			"stop_reason": "end_turn",
			"stop_sequence": null,
			"usage": {"input_tokens": 12, "output_tokens": 7}
		}`)
	}))
	defer srv.Close()

	g := NewGateway(NewAnthropicProvider("test-key", "", srv.URL), 1, logger.Nop())
	text, err := g.Generate(context.Background(), "what is a cell?", GenerateOptions{SystemPrompt: "You are a tutor.", MaxTokens: 300})
	require.NoError(t, err)
	assert.Equal(t, "Cells are the unit of life.", text)

	assert.Equal(t, DefaultAnthropicModel, body["model"])
	assert.Equal(t, float64(300), body["max_tokens"])
	assert.Equal(t, 0.7, body["temperature"])
	system, ok := body["system"].([]interface{})
	require.True(t, ok)
	require.Len(t, system, 1)
	assert.Equal(t, "You are a tutor.", system[0].(map[string]interface{})["text"])
	messages, ok := body["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].(map[string]interface{})["role"])
}

func TestAnthropicProvider_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"type": "error", "error": {"type": "authentication_error", "message": "invalid x-api-key"}}`)
	}))
	defer srv.Close()

	g := NewGateway(NewAnthropicProvider("bad", "", srv.URL), 1, logger.Nop())
	_, err := g.Generate(context.Background(), "hi", GenerateOptions{})
	var gerr *GenerationError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "anthropic", gerr.Provider)
}

func TestGeminiExtractText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{
				genai.Text("Mitochondria "),
				genai.Blob{MIMEType: "image/png", Data: []byte{0x89}},
				genai.Text("make ATP."),
			}}},
			{Content: nil, FinishReason: genai.FinishReasonSafety},
		},
	}
	assert.Equal(t, "Mitochondria make ATP.", extractText(resp))
	assert.Equal(t, "", extractText(&genai.GenerateContentResponse{}))
}
