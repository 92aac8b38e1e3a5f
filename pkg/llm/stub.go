package llm

import (
	"context"
	"fmt"
	"sync"
)

// StubClient is a scripted Client for tests. Responses are consumed in
// order; every request is recorded for assertions.
type StubClient struct {
	mu        sync.Mutex
	responses []*Response
	requests  []*Request

	// Err, when set, is returned by every call.
	Err error

	// GenerateFunc, when set, overrides the scripted responses entirely.
	GenerateFunc func(ctx context.Context, req *Request) (*Response, error)
}

// NewStubClient creates a stub that plays back the given responses in order.
func NewStubClient(responses ...*Response) *StubClient {
	return &StubClient{responses: responses}
}

func (s *StubClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	fn := s.GenerateFunc
	s.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if s.Err != nil {
		return nil, s.Err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.responses) == 0 {
		return nil, fmt.Errorf("stub client: no responses left")
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func (s *StubClient) ContinueWithToolResults(ctx context.Context, req *Request, results []ToolResult) (*Request, *Response, error) {
	next := req.WithToolResults(results)
	resp, err := s.Generate(ctx, next)
	if err != nil {
		return nil, nil, err
	}
	return next, resp, nil
}

func (s *StubClient) Close() error { return nil }

// Requests returns all recorded requests in call order.
func (s *StubClient) Requests() []*Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Request(nil), s.requests...)
}
