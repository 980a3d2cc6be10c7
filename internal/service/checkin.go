package service

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/flyeazy/flyeazy-client/internal/apperr"
	"github.com/flyeazy/flyeazy-client/internal/boardingpass"
	"github.com/flyeazy/flyeazy-client/internal/gateway"
	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/flyeazy/flyeazy-client/internal/resource"
	"github.com/flyeazy/flyeazy-client/internal/validation"
	"go.uber.org/zap"
)

// ArchiveSaver stores rendered boarding passes
type ArchiveSaver interface {
	Save(ctx context.Context, t models.ArchivedTicket) (*models.ArchivedTicket, error)
}

// CheckInResult is the outcome of a successful check-in
type CheckInResult struct {
	Pass     *boardingpass.Pass
	HTML     string
	Archived *models.ArchivedTicket
}

// CheckIns submits passport data and produces boarding passes
type CheckIns struct {
	api      gateway.Requester
	auth     resource.Authorizer
	airports *Airports
	archive  ArchiveSaver
	log      *zap.Logger

	mu      sync.Mutex
	loading bool
	success bool
	lastErr string
}

func NewCheckIns(api gateway.Requester, auth resource.Authorizer, airports *Airports, archive ArchiveSaver, log *zap.Logger) *CheckIns {
	return &CheckIns{
		api:      api,
		auth:     auth,
		airports: airports,
		archive:  archive,
		log:      log.With(zap.String("resource", "checkin")),
	}
}

func (c *CheckIns) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Success reports whether the last check-in went through
func (c *CheckIns) Success() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.success
}

func (c *CheckIns) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *CheckIns) begin() {
	c.mu.Lock()
	c.loading = true
	c.success = false
	c.lastErr = ""
	c.mu.Unlock()
}

func (c *CheckIns) end(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	c.success = err == nil
	if err != nil {
		c.lastErr = apperr.Message(err)
	}
	return err
}

// CheckIn posts data for ticket, renders its boarding pass and archives it.
// The check-in itself is not undone if rendering or archiving fails.
func (c *CheckIns) CheckIn(ctx context.Context, ticket models.Ticket, flight models.Flight, data models.CheckInData) (res *CheckInResult, err error) {
	const op = "check in"
	c.begin()
	defer func() { err = c.end(err) }()

	sess, err := c.auth.GetSessionOrFail()
	if err != nil {
		return nil, err
	}
	if ticket.ID == "" {
		return nil, apperr.New(apperr.KindValidation, op, "ticket has no id")
	}
	if err := validation.Check(op, data); err != nil {
		return nil, err
	}

	if _, err := c.api.Request(ctx, "/checkin/"+ticket.ID, http.MethodPost, data, true); err != nil {
		c.log.Error("Check-in failed", zap.String("ticketId", ticket.ID), zap.Error(err))
		return nil, err
	}
	ticket.IsCheckedIn = true
	c.log.Info("Checked in", zap.String("ticketId", ticket.ID))

	names := map[string]string{}
	if c.airports != nil {
		if len(c.airports.Items()) == 0 {
			// names fall back to "Unknown" if the list cannot be loaded
			_ = c.airports.FetchAll(ctx)
		}
		names = c.airports.NameMap()
	}

	pass, err := boardingpass.New(ticket, flight, names)
	if err != nil {
		return nil, err
	}
	html, err := pass.HTML()
	if err != nil {
		return nil, err
	}
	res = &CheckInResult{Pass: pass, HTML: html}

	if c.archive != nil {
		archived, err := c.archive.Save(ctx, models.ArchivedTicket{
			TicketHTML:     html,
			PassengerName:  pass.PassengerName,
			ExpirationDate: data.ExpirationDate,
			UserID:         sess.UserID,
		})
		if err != nil {
			return res, fmt.Errorf("checked in but failed to archive boarding pass: %w", err)
		}
		res.Archived = archived
	}
	return res, nil
}
