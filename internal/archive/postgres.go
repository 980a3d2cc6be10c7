package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps the archive in a shared database, for kiosk setups
// where several terminals print passes for the same users.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ Store = (*PostgresStore)(nil)

// OpenPostgres connects to dsn and makes sure the archive table exists
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	s := NewPostgresStore(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an existing pool
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, now: time.Now}
}

// Migrate creates the archive table if needed
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS archived_tickets (
			ticket_id       TEXT PRIMARY KEY,
			user_id         TEXT NOT NULL,
			passenger_name  TEXT NOT NULL,
			expiration_date TEXT NOT NULL DEFAULT '',
			ticket_html     TEXT NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS archived_tickets_user_idx ON archived_tickets (user_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("failed to migrate archive: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, t models.ArchivedTicket) (*models.ArchivedTicket, error) {
	t = prepare(t, s.now())
	_, err := s.pool.Exec(ctx, `
		INSERT INTO archived_tickets (ticket_id, user_id, passenger_name, expiration_date, ticket_html, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, t.TicketID, t.UserID, t.PassengerName, t.ExpirationDate, t.TicketHTML, t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save archived ticket: %w", err)
	}
	return &t, nil
}

func (s *PostgresStore) Get(ctx context.Context, ticketID string) (*models.ArchivedTicket, error) {
	var t models.ArchivedTicket
	err := s.pool.QueryRow(ctx, `
		SELECT ticket_id, user_id, passenger_name, expiration_date, ticket_html, created_at
		FROM archived_tickets
		WHERE ticket_id = $1
	`, ticketID).Scan(&t.TicketID, &t.UserID, &t.PassengerName, &t.ExpirationDate, &t.TicketHTML, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get archived ticket: %w", err)
	}
	return &t, nil
}

func (s *PostgresStore) List(ctx context.Context, userID string) ([]models.ArchivedTicket, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT ticket_id, user_id, passenger_name, expiration_date, ticket_html, created_at
		FROM archived_tickets
		WHERE $1::text = '' OR user_id = $1::text
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query archived tickets: %w", err)
	}
	defer rows.Close()

	tickets := []models.ArchivedTicket{}
	for rows.Next() {
		var t models.ArchivedTicket
		if err := rows.Scan(&t.TicketID, &t.UserID, &t.PassengerName, &t.ExpirationDate, &t.TicketHTML, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan archived ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read archived tickets: %w", err)
	}
	return tickets, nil
}

// Close releases the pool
func (s *PostgresStore) Close() {
	s.pool.Close()
}
