package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/flyeazy/flyeazy-client/internal/storage"
)

// FileStore keeps the archive as a JSON array under storage.KeyTickets of
// the local state store.
type FileStore struct {
	mu    sync.Mutex
	store storage.Store
	now   func() time.Time
}

var _ Store = (*FileStore)(nil)

func NewFileStore(store storage.Store) *FileStore {
	return &FileStore{store: store, now: time.Now}
}

func (s *FileStore) load() ([]models.ArchivedTicket, error) {
	raw, ok := s.store.Get(storage.KeyTickets)
	if !ok || raw == "" {
		return []models.ArchivedTicket{}, nil
	}
	var tickets []models.ArchivedTicket
	if err := json.Unmarshal([]byte(raw), &tickets); err != nil {
		return nil, fmt.Errorf("failed to decode ticket archive: %w", err)
	}
	return tickets, nil
}

func (s *FileStore) Save(_ context.Context, t models.ArchivedTicket) (*models.ArchivedTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tickets, err := s.load()
	if err != nil {
		return nil, err
	}
	t = prepare(t, s.now())
	tickets = append(tickets, t)

	data, err := json.Marshal(tickets)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ticket archive: %w", err)
	}
	if err := s.store.Set(storage.KeyTickets, string(data)); err != nil {
		return nil, fmt.Errorf("failed to save ticket archive: %w", err)
	}
	return &t, nil
}

func (s *FileStore) Get(_ context.Context, ticketID string) (*models.ArchivedTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tickets, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, t := range tickets {
		if t.TicketID == ticketID {
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func (s *FileStore) List(_ context.Context, userID string) ([]models.ArchivedTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tickets, err := s.load()
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return tickets, nil
	}
	out := make([]models.ArchivedTicket, 0, len(tickets))
	for _, t := range tickets {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}
