package cart

import (
	"context"
	"sync"
	"time"
)

// PurchasedLoader supplies the lesson ids a student already owns, used to
// seed a fresh machine so an owned lesson can never re-enter the cart.
type PurchasedLoader interface {
	ListLessonIDsByStudent(ctx context.Context, studentID int64) ([]int64, error)
}

// Store owns one Machine per student for the lifetime of the process. Carts
// are session-scoped: they are not persisted and start empty on restart.
type Store struct {
	mu         sync.Mutex
	machines   map[int64]*Machine
	loader     PurchasedLoader
	resetDelay time.Duration
}

func NewStore(loader PurchasedLoader, resetDelay time.Duration) *Store {
	return &Store{
		machines:   make(map[int64]*Machine),
		loader:     loader,
		resetDelay: resetDelay,
	}
}

// ForStudent returns the student's machine, creating and seeding it on first
// use.
func (s *Store) ForStudent(ctx context.Context, studentID int64) (*Machine, error) {
	s.mu.Lock()
	machine, ok := s.machines[studentID]
	s.mu.Unlock()
	if ok {
		return machine, nil
	}

	purchased, err := s.loader.ListLessonIDsByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if machine, ok := s.machines[studentID]; ok {
		return machine, nil
	}
	machine = NewMachine(studentID, purchased, s.resetDelay)
	s.machines[studentID] = machine
	return machine, nil
}
