package collector

import (
	"sync"

	"github.com/crimson-sun/runlog/internal/model"
)

// Store holds the log stacks of in-flight tests, keyed by stack index.
// Each index belongs to one test context at a time.
type Store struct {
	mu     sync.Mutex
	stacks map[int][]model.LogEntry
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{stacks: make(map[int][]model.LogEntry)}
}

// Start opens an empty stack at index for a test that is about to run,
// discarding anything left there. A started stack consumes successfully even
// if nothing was appended.
func (s *Store) Start(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stacks[index] = []model.LogEntry{}
}

// Append adds entry to the end of the stack at index, creating the stack if absent.
func (s *Store) Append(index int, entry model.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stacks[index] = append(s.stacks[index], entry)
}

// ConsumeLogStacks removes and returns the stack at index. The second return
// value is false when no stack exists there.
func (s *Store) ConsumeLogStacks(index int) ([]model.LogEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stack, ok := s.stacks[index]
	if !ok {
		return nil, false
	}
	delete(s.stacks, index)
	return stack, true
}

// Len reports how many entries are waiting at index.
func (s *Store) Len(index int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stacks[index])
}
