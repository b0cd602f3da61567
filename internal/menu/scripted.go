package menu

import (
	"context"
	"slices"
	"sync"
)

// Scripted answers prompts from a fixed list, in order. Once the list is
// exhausted every prompt is cancelled. It records what it was asked.
type Scripted struct {
	mu      sync.Mutex
	answers []string
	prompts []string
	items   [][]string
}

// NewScripted returns a Scripted menu giving answers in order.
func NewScripted(answers ...string) *Scripted {
	return &Scripted{answers: answers}
}

// Enter implements Menu.
func (s *Scripted) Enter(ctx context.Context, prompt string) (string, error) {
	return s.next(prompt, nil), nil
}

// Select implements Menu.
func (s *Scripted) Select(ctx context.Context, prompt string, items []string) (string, error) {
	return s.next(prompt, items), nil
}

// Prompts returns every prompt shown so far.
func (s *Scripted) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.prompts)
}

// Items returns the items offered by each Select call, nil for Enter calls.
func (s *Scripted) Items() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

func (s *Scripted) next(prompt string, items []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	s.items = append(s.items, slices.Clone(items))
	if len(s.answers) == 0 {
		return ""
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a
}
