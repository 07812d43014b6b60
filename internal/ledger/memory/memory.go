package memory

import (
	"context"
	"fmt"
	"sync"

	"agencycrm/internal/ledger"
)

var _ ledger.Writer = (*Store)(nil)

// Store keeps ledger rows in memory.
type Store struct {
	mu   sync.Mutex
	rows []ledger.Row
}

func New() *Store {
	return &Store{}
}

// Append stores the row and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, row ledger.Row) (string, error) {
	if row.RecordID == "" {
		return "", fmt.Errorf("ledger row without record id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of every stored row.
func (s *Store) Rows() []ledger.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ledger.Row(nil), s.rows...)
}
