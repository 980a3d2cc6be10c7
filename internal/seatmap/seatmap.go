// Package seatmap computes seat availability over the fixed cabin layout and
// tracks a passenger group's seat selection.
package seatmap

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/flyeazy/flyeazy-client/internal/models"
)

const (
	// Rows is the number of seat rows on every flight
	Rows = 32
	// Columns are the seat letters of a row, left to right
	Columns = "ABCDEF"
)

var (
	ErrTooManySeats = errors.New("you can only select as many seats as passengers")
	ErrSeatBooked   = errors.New("seat is already booked")
	ErrUnknownSeat  = errors.New("no such seat")
)

var seatPattern = regexp.MustCompile(`^([1-9][0-9]?)([A-F])$`)

// Universe returns all seat ids in row-major order: 1A, 1B, ... 32F
func Universe() []string {
	ids := make([]string, 0, Rows*len(Columns))
	for row := 1; row <= Rows; row++ {
		for _, col := range Columns {
			ids = append(ids, fmt.Sprintf("%d%c", row, col))
		}
	}
	return ids
}

// Parse splits a seat id into row and column and checks it is in the universe
func Parse(seatID string) (row int, column string, err error) {
	m := seatPattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(seatID)))
	if m == nil {
		return 0, "", fmt.Errorf("%w: %q", ErrUnknownSeat, seatID)
	}
	row, _ = strconv.Atoi(m[1])
	if row < 1 || row > Rows {
		return 0, "", fmt.Errorf("%w: %q", ErrUnknownSeat, seatID)
	}
	return row, m[2], nil
}

// Compute returns every seat of the universe, booked if its id is in booked
// and available otherwise.
func Compute(booked []string) []models.Seat {
	set := make(map[string]bool, len(booked))
	for _, id := range booked {
		set[strings.ToUpper(strings.TrimSpace(id))] = true
	}

	seats := make([]models.Seat, 0, Rows*len(Columns))
	for row := 1; row <= Rows; row++ {
		for _, col := range Columns {
			id := fmt.Sprintf("%d%c", row, col)
			status := models.SeatStatusAvailable
			if set[id] {
				status = models.SeatStatusBooked
			}
			seats = append(seats, models.Seat{
				SeatNumber: id,
				Row:        row,
				Column:     string(col),
				Status:     status,
			})
		}
	}
	return seats
}

// Policy decides what happens when a seat is selected while every passenger
// already has one.
type Policy int

const (
	// RejectOverflow refuses the new seat with ErrTooManySeats
	RejectOverflow Policy = iota
	// EvictMostRecent drops the most recently selected seat to make room
	EvictMostRecent
)

func (p Policy) String() string {
	if p == EvictMostRecent {
		return "evict"
	}
	return "reject"
}

// ParsePolicy accepts "reject" and "evict"; empty means RejectOverflow
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return RejectOverflow, nil
	case "evict":
		return EvictMostRecent, nil
	}
	return RejectOverflow, fmt.Errorf("unknown seat policy %q (want reject or evict)", s)
}

// Selection assigns seats to a fixed number of passenger slots
type Selection struct {
	mu     sync.Mutex
	policy Policy
	booked map[string]bool
	slots  []string // seat per passenger, "" when unassigned
	order  []string // selected seats, oldest first
}

// NewSelection creates a selection for passengers slots over a flight whose
// booked seats are given.
func NewSelection(booked []string, passengers int, policy Policy) *Selection {
	if passengers < 0 {
		passengers = 0
	}
	set := make(map[string]bool, len(booked))
	for _, id := range booked {
		set[strings.ToUpper(strings.TrimSpace(id))] = true
	}
	return &Selection{
		policy: policy,
		booked: set,
		slots:  make([]string, passengers),
	}
}

// Select assigns seatID to the first passenger slot without a seat. Selecting
// an already selected seat is a no-op.
func (s *Selection) Select(seatID string) error {
	row, col, err := Parse(seatID)
	if err != nil {
		return err
	}
	id := fmt.Sprintf("%d%s", row, col)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.booked[id] {
		return fmt.Errorf("%w: %s", ErrSeatBooked, id)
	}
	if s.indexOf(id) >= 0 {
		return nil
	}

	if len(s.order) >= len(s.slots) {
		if s.policy != EvictMostRecent || len(s.order) == 0 {
			return fmt.Errorf("%w (%d)", ErrTooManySeats, len(s.slots))
		}
		s.deselectLocked(s.order[len(s.order)-1])
	}

	for i := range s.slots {
		if s.slots[i] == "" {
			s.slots[i] = id
			break
		}
	}
	s.order = append(s.order, id)
	return nil
}

// Deselect clears seatID from its passenger slot. It reports whether the
// seat was selected.
func (s *Selection) Deselect(seatID string) bool {
	row, col, err := Parse(seatID)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deselectLocked(fmt.Sprintf("%d%s", row, col))
}

func (s *Selection) deselectLocked(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.order = append(s.order[:i], s.order[i+1:]...)
	for j := range s.slots {
		if s.slots[j] == id {
			s.slots[j] = ""
		}
	}
	return true
}

// Toggle deselects a selected seat and selects any other
func (s *Selection) Toggle(seatID string) error {
	if s.Deselect(seatID) {
		return nil
	}
	return s.Select(seatID)
}

func (s *Selection) indexOf(id string) int {
	for i, sel := range s.order {
		if sel == id {
			return i
		}
	}
	return -1
}

// Selected returns the selected seats, oldest first
func (s *Selection) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Slots returns the seat of each passenger slot ("" when unassigned)
func (s *Selection) Slots() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.slots...)
}

// Complete reports whether every passenger has a seat
func (s *Selection) Complete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order) == len(s.slots)
}

// Apply copies the slot seats onto tickets, which must have one entry per
// passenger.
func (s *Selection) Apply(tickets []models.NewTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(tickets) != len(s.slots) {
		return fmt.Errorf("expected %d tickets, got %d", len(s.slots), len(tickets))
	}
	for i := range tickets {
		tickets[i].SeatNumber = s.slots[i]
	}
	return nil
}

// View returns the seat map with the current selection marked
func (s *Selection) View() []models.Seat {
	s.mu.Lock()
	booked := make([]string, 0, len(s.booked))
	for id := range s.booked {
		booked = append(booked, id)
	}
	selected := make(map[string]bool, len(s.order))
	for _, id := range s.order {
		selected[id] = true
	}
	s.mu.Unlock()

	seats := Compute(booked)
	for i := range seats {
		if selected[seats[i].SeatNumber] {
			seats[i].Status = models.SeatStatusSelected
		}
	}
	return seats
}
