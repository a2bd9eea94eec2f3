package llm

import (
	"context"
	"sync"
)

// FakeClient is a deterministic Client used by the translator and
// pipeline tests. Responses are served in call-order from Responses;
// once exhausted, Chat returns an error. It is safe for concurrent use
// since the redistribution pass fans calls out across goroutines.
type FakeClient struct {
	NameV     string
	ModelV    string
	Auth      bool
	Responses []string
	Requests  []string // captured user-message content, for assertions

	mu    sync.Mutex
	calls int
}

func (f *FakeClient) Name() string       { return f.NameV }
func (f *FakeClient) Model() string      { return f.ModelV }
func (f *FakeClient) RequiresAuth() bool { return f.Auth }

func (f *FakeClient) Chat(_ context.Context, messages []Message, _ Params) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range messages {
		if m.Role == RoleUser {
			f.Requests = append(f.Requests, m.Content)
		}
	}
	if f.calls >= len(f.Responses) {
		return "", &Error{Provider: f.NameV, Status: 500, Body: "fake client exhausted"}
	}
	resp := f.Responses[f.calls]
	f.calls++
	return resp, nil
}
