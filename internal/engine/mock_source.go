package engine

import (
	"context"
	"sync"

	"github.com/tradewind/tariffflow/internal/model"
	"github.com/tradewind/tariffflow/internal/service"
)

// MockSource is a test implementation of the AISource interface. It
// returns a preset suggestion or error and records every product it saw.
type MockSource struct {
	name       string
	suggestion *service.AISuggestion
	err        error
	failFirst  int
	calls      int
	mu         sync.Mutex
}

// NewMockSource creates a mock source returning the given suggestion.
func NewMockSource(name string, suggestion *service.AISuggestion) *MockSource {
	return &MockSource{name: name, suggestion: suggestion}
}

// NewFailingSource creates a mock source that always returns err.
func NewFailingSource(name string, err error) *MockSource {
	return &MockSource{name: name, err: err}
}

// FailFirst makes the source fail its first n calls with err before
// succeeding with its preset suggestion.
func (m *MockSource) FailFirst(n int, err error) *MockSource {
	m.failFirst = n
	m.err = err
	return m
}

// Name implements service.AISource.
func (m *MockSource) Name() string {
	return m.name
}

// Classify implements service.AISource.
func (m *MockSource) Classify(_ context.Context, _ model.Product) (*service.AISuggestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.calls <= m.failFirst {
		return nil, m.err
	}
	if m.suggestion == nil && m.err != nil {
		return nil, m.err
	}
	if m.suggestion == nil {
		return nil, nil
	}
	out := *m.suggestion
	return &out, nil
}

// Calls reports how many times Classify was invoked.
func (m *MockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
