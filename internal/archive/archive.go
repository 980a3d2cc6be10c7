// Package archive keeps rendered boarding passes so they can be listed and
// exported after check-in.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("archived ticket not found")

// Store persists archived tickets
type Store interface {
	Save(ctx context.Context, t models.ArchivedTicket) (*models.ArchivedTicket, error)
	Get(ctx context.Context, ticketID string) (*models.ArchivedTicket, error)
	// List returns the tickets of userID, or all tickets when userID is empty,
	// oldest first.
	List(ctx context.Context, userID string) ([]models.ArchivedTicket, error)
}

// NewTicketID generates an archive id of the form ticket-<uuid>
func NewTicketID() string {
	return "ticket-" + uuid.NewString()
}

// prepare fills the generated fields of a ticket about to be saved
func prepare(t models.ArchivedTicket, now time.Time) models.ArchivedTicket {
	if t.TicketID == "" {
		t.TicketID = NewTicketID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now.UTC()
	}
	return t
}

// Export writes each ticket's HTML to dir as ticket_1.html, ticket_2.html, ...
// and returns the written paths.
func Export(tickets []models.ArchivedTicket, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	paths := make([]string, 0, len(tickets))
	for i, t := range tickets {
		path := filepath.Join(dir, fmt.Sprintf("ticket_%d.html", i+1))
		if err := os.WriteFile(path, []byte(t.TicketHTML), 0o644); err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
