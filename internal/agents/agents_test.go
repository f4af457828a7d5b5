package agents

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vectortutor-backend/internal/database"
	"vectortutor-backend/internal/logger"
	"vectortutor-backend/internal/models"
	"vectortutor-backend/internal/repository"
	"vectortutor-backend/internal/services"
)

type reply struct {
	out string
	err error
}

type call struct {
	prompt string
	opts   services.GenerateOptions
}

// scriptedGenerator answers calls in order from two queues, one per method.
type scriptedGenerator struct {
	mu        sync.Mutex
	text      []reply
	json      []reply
	textCalls []call
	jsonCalls []call
}

var errUnscripted = errors.New("no scripted reply")

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string, opts services.GenerateOptions) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.textCalls = append(g.textCalls, call{prompt, opts})
	if len(g.text) == 0 {
		return "", errUnscripted
	}
	r := g.text[0]
	g.text = g.text[1:]
	return r.out, r.err
}

func (g *scriptedGenerator) GenerateJSON(ctx context.Context, prompt string, opts services.GenerateOptions) (json.RawMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.jsonCalls = append(g.jsonCalls, call{prompt, opts})
	if len(g.json) == 0 {
		return nil, errUnscripted
	}
	r := g.json[0]
	g.json = g.json[1:]
	if r.err != nil {
		return nil, r.err
	}
	return json.RawMessage(r.out), nil
}

type stubExtractor struct {
	text string
	meta map[string]interface{}
	err  error
}

func (e *stubExtractor) ExtractText(path string) (string, error) { return e.text, e.err }
func (e *stubExtractor) ExtractMetadata(path string) map[string]interface{} {
	return e.meta
}

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "agents.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.RunMigrations(db, logger.Nop()))
	return repository.NewStore(db)
}

func seedDocument(t *testing.T, store *repository.Store, content string, meta models.Metadata) int64 {
	t.Helper()
	id, err := store.Documents.Create(context.Background(), &models.Document{
		Filename: "notes.pdf", Content: content, Metadata: meta,
	})
	require.NoError(t, err)
	return id
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
}
