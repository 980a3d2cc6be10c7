package archive

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/flyeazy/flyeazy-client/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_SaveListGet(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(storage.NewMemoryStore())

	saved, err := s.Save(ctx, models.ArchivedTicket{TicketHTML: "<div>1</div>", PassengerName: "Ada Lovelace", UserID: "u1"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(saved.TicketID, "ticket-"))
	assert.False(t, saved.CreatedAt.IsZero())

	_, err = s.Save(ctx, models.ArchivedTicket{TicketHTML: "<div>2</div>", PassengerName: "Alan Turing", UserID: "u2"})
	require.NoError(t, err)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := s.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Ada Lovelace", mine[0].PassengerName)

	got, err := s.Get(ctx, saved.TicketID)
	require.NoError(t, err)
	assert.Equal(t, "<div>1</div>", got.TicketHTML)

	_, err = s.Get(ctx, "ticket-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_CorruptArchive(t *testing.T) {
	st := storage.NewMemoryStore()
	require.NoError(t, st.Set(storage.KeyTickets, "not json"))

	_, err := NewFileStore(st).List(context.Background(), "")
	assert.Error(t, err)
}

func TestNewTicketID_Unique(t *testing.T) {
	assert.NotEqual(t, NewTicketID(), NewTicketID())
}

func TestExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := Export([]models.ArchivedTicket{
		{TicketHTML: "<p>a</p>"},
		{TicketHTML: "<p>b</p>"},
	}, dir)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, "ticket_2.html"), paths[1])

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "<p>a</p>", string(data))
}

// Runs against a real database when FLYEAZY_ARCHIVE_TEST_DSN is set.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("FLYEAZY_ARCHIVE_TEST_DSN")
	if dsn == "" {
		t.Skip("FLYEAZY_ARCHIVE_TEST_DSN not set")
	}
	ctx := context.Background()

	s, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()

	userID := "it-" + NewTicketID()
	saved, err := s.Save(ctx, models.ArchivedTicket{TicketHTML: "<p/>", PassengerName: "Ada", UserID: userID})
	require.NoError(t, err)

	got, err := s.Get(ctx, saved.TicketID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.PassengerName)

	list, err := s.List(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = s.Get(ctx, "ticket-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
