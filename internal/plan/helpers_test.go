package plan

import (
	"context"
	"sync"
)

// scriptedGenerator answers per model: a text, an error, or blocks until the
// attempt context ends.
type scriptedGenerator struct {
	mu      sync.Mutex
	texts   map[string]string
	errs    map[string]error
	block   map[string]bool
	calls   []string
	prompts []string
}

func newScriptedGenerator() *scriptedGenerator {
	return &scriptedGenerator{
		texts: map[string]string{},
		errs:  map[string]error{},
		block: map[string]bool{},
	}
}

func (g *scriptedGenerator) GenerateContent(ctx context.Context, modelID, prompt string) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, modelID)
	g.prompts = append(g.prompts, prompt)
	blocks := g.block[modelID]
	text, err := g.texts[modelID], g.errs[modelID]
	g.mu.Unlock()

	if blocks {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return text, err
}

func (g *scriptedGenerator) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

type recordedAttempt struct {
	model string
	err   error
}

type memoryRecorder struct {
	mu       sync.Mutex
	attempts []recordedAttempt
	fail     error
}

func (r *memoryRecorder) RecordAttempt(_ context.Context, modelID string, attemptErr error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, recordedAttempt{model: modelID, err: attemptErr})
	return r.fail
}
