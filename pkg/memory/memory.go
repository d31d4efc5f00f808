// Package memory keeps the recent conversation of a project so that
// completions can build on earlier turns.
//
// A Window holds at most a fixed number of messages; appending beyond the
// limit drops the oldest ones. Windows are obtained from a Store keyed by
// project UID. LocalStore keeps them in process memory, RedisStore shares them
// between server replicas.
package memory

import (
	"context"
	"sync"

	"github.com/Haithedotai/core/pkg/model"
)

// DefaultWindow is the number of messages kept per project.
const DefaultWindow = 30

// Window is the bounded message history of one project.
type Window interface {
	// Snapshot returns a copy of the history, oldest first.
	Snapshot(ctx context.Context) ([]model.Message, error)
	// Append adds messages at the end and trims the window.
	Append(ctx context.Context, messages ...model.Message) error
}

// Store hands out windows by key, creating them on first use.
type Store interface {
	GetOrCreate(key string) Window
}

// LocalStore is an in-process Store.
type LocalStore struct {
	size int

	mu      sync.Mutex
	windows map[string]*localWindow
}

// NewLocalStore returns a LocalStore whose windows keep size messages.
// Non-positive sizes use DefaultWindow.
func NewLocalStore(size int) *LocalStore {
	if size <= 0 {
		size = DefaultWindow
	}
	return &LocalStore{size: size, windows: make(map[string]*localWindow)}
}

// GetOrCreate implements Store.
func (s *LocalStore) GetOrCreate(key string) Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[key]
	if !ok {
		w = &localWindow{size: s.size}
		s.windows[key] = w
	}
	return w
}

// Len reports how many windows exist.
func (s *LocalStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

type localWindow struct {
	size int

	mu       sync.Mutex
	messages []model.Message
}

func (w *localWindow) Snapshot(context.Context) ([]model.Message, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]model.Message, len(w.messages))
	copy(out, w.messages)
	return out, nil
}

func (w *localWindow) Append(_ context.Context, messages ...model.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = append(w.messages, messages...)
	if over := len(w.messages) - w.size; over > 0 {
		w.messages = append([]model.Message(nil), w.messages[over:]...)
	}
	return nil
}
