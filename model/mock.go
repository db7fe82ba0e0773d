package model

import (
	"context"
	"sync"
)

// MockModel is a scriptable Model for tests. Replies are consumed in order;
// once the script is exhausted every call returns the last reply. Recorded
// requests allow asserting on what the caller sent.
type MockModel struct {
	mu       sync.Mutex
	script   []*Reply
	err      error
	requests []Request
}

// NewMockModel creates a MockModel that plays back the given replies.
func NewMockModel(replies ...*Reply) *MockModel {
	return &MockModel{script: replies}
}

// Fail makes every subsequent Complete call return err.
func (m *MockModel) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Requests returns a copy of all requests seen so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Calls returns how many times Complete was invoked.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Info implements Model.
func (m *MockModel) Info() Info {
	return Info{Provider: "mock", Name: "mock-model"}
}

// Complete implements Model.
func (m *MockModel) Complete(_ context.Context, req Request) (*Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if m.err != nil {
		return nil, m.err
	}
	if len(m.script) == 0 {
		return &Reply{Text: "ok"}, nil
	}

	reply := m.script[0]
	if len(m.script) > 1 {
		m.script = m.script[1:]
	}
	return reply, nil
}
