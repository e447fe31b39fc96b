package testsupport

import (
	"context"
	"sort"
	"sync"

	"github.com/goliatone/go-catalog-cache/errs"
	"github.com/goliatone/go-catalog-cache/query"
)

// Handler answers a request for one type. It reports false on a miss.
type Handler func(q query.Query) (any, bool)

// Call records one request served by a FixtureSource.
type Call struct {
	Type  string
	Query query.Query
	Many  bool
}

// FixtureSource is a pipeline source answering from handlers and recording
// every request, standing in for a remote API in tests.
type FixtureSource struct {
	mu       sync.Mutex
	name     string
	handlers map[string]Handler
	many     map[string]map[string]string
	calls    []Call
	err      error
}

// NewFixtureSource creates an empty source reporting name.
func NewFixtureSource(name string) *FixtureSource {
	return &FixtureSource{
		name:     name,
		handlers: map[string]Handler{},
		many:     map[string]map[string]string{},
	}
}

// Handle serves typeName with h.
func (s *FixtureSource) Handle(typeName string, h Handler) *FixtureSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[typeName] = h
	return s
}

// HandleMany declares the bulk parameters of typeName, for example
// {"ids": "id"}. Bulk requests are answered member by member.
func (s *FixtureSource) HandleMany(typeName string, plural map[string]string) *FixtureSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.many[typeName] = plural
	return s
}

// FailWith makes every later request fail with err. Pass nil to recover.
func (s *FixtureSource) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *FixtureSource) Name() string { return s.name }

// Provides lists the handled types.
func (s *FixtureSource) Provides() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.handlers))
	for t := range s.handlers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (s *FixtureSource) Get(_ context.Context, typeName string, q query.Query) (any, error) {
	h, err := s.record(Call{Type: typeName, Query: q.Clone()})
	if err != nil {
		return nil, err
	}
	if h != nil {
		if v, ok := h(q); ok {
			return v, nil
		}
	}
	return nil, errs.NotFound(typeName, q)
}

func (s *FixtureSource) GetMany(_ context.Context, typeName string, q query.Query) ([]any, error) {
	h, err := s.record(Call{Type: typeName, Query: q.Clone(), Many: true})
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, errs.NotFound(typeName, q)
	}
	s.mu.Lock()
	plural := s.many[typeName]
	s.mu.Unlock()

	for p, singular := range plural {
		set, ok := q.Set(p)
		if !ok {
			continue
		}
		out := make([]any, 0, len(set))
		for _, member := range set {
			v, ok := h(q.Without(p).With(singular, member))
			if !ok {
				return nil, errs.NotFound(typeName, q)
			}
			out = append(out, v)
		}
		return out, nil
	}
	return nil, errs.NotFound(typeName, q)
}

func (s *FixtureSource) record(c Call) (Handler, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
	return s.handlers[c.Type], s.err
}

// Calls returns a copy of the recorded requests.
func (s *FixtureSource) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Count returns how many requests were made, optionally for one type.
func (s *FixtureSource) Count(typeName ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(typeName) == 0 {
		return len(s.calls)
	}
	n := 0
	for _, c := range s.calls {
		if c.Type == typeName[0] {
			n++
		}
	}
	return n
}

// Reset forgets recorded requests.
func (s *FixtureSource) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}
