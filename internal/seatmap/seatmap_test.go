package seatmap

import (
	"errors"
	"testing"

	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniverse(t *testing.T) {
	ids := Universe()
	require.Len(t, ids, 192)
	assert.Equal(t, "1A", ids[0])
	assert.Equal(t, "1F", ids[5])
	assert.Equal(t, "2A", ids[6])
	assert.Equal(t, "32F", ids[191])
}

func TestCompute(t *testing.T) {
	seats := Compute([]string{"3A", "10F"})
	require.Len(t, seats, 192)

	var booked []string
	for _, s := range seats {
		if s.Status == models.SeatStatusBooked {
			booked = append(booked, s.SeatNumber)
		} else {
			assert.Equal(t, models.SeatStatusAvailable, s.Status)
		}
	}
	assert.Equal(t, []string{"3A", "10F"}, booked)

	ids := make([]string, len(seats))
	for i, s := range seats {
		ids[i] = s.SeatNumber
	}
	assert.Equal(t, Universe(), ids, "ordering must be row-major")
	assert.Equal(t, Compute([]string{"3A", "10F"}), seats, "must be deterministic")
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		row     int
		col     string
		wantErr bool
	}{
		{in: "1A", row: 1, col: "A"},
		{in: "32f", row: 32, col: "F"},
		{in: "33A", wantErr: true},
		{in: "0A", wantErr: true},
		{in: "5G", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			row, col, err := Parse(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownSeat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.row, row)
			assert.Equal(t, tt.col, col)
		})
	}
}

func TestSelection_RejectOverflow(t *testing.T) {
	s := NewSelection([]string{"1A"}, 2, RejectOverflow)

	require.NoError(t, s.Select("2A"))
	require.NoError(t, s.Select("2A"), "reselecting is a no-op")
	require.NoError(t, s.Select("2B"))
	assert.True(t, s.Complete())

	err := s.Select("2C")
	assert.True(t, errors.Is(err, ErrTooManySeats))
	assert.Equal(t, []string{"2A", "2B"}, s.Selected())
}

func TestSelection_EvictMostRecent(t *testing.T) {
	s := NewSelection(nil, 2, EvictMostRecent)

	require.NoError(t, s.Select("2A"))
	require.NoError(t, s.Select("2B"))
	require.NoError(t, s.Select("2C"))

	assert.Equal(t, []string{"2A", "2C"}, s.Selected())
	assert.Equal(t, []string{"2A", "2C"}, s.Slots())
}

func TestSelection_BookedAndUnknownSeats(t *testing.T) {
	s := NewSelection([]string{"3A"}, 1, RejectOverflow)

	assert.True(t, errors.Is(s.Select("3A"), ErrSeatBooked))
	assert.True(t, errors.Is(s.Select("40A"), ErrUnknownSeat))
	assert.Empty(t, s.Selected())
}

func TestSelection_DeselectClearsSlot(t *testing.T) {
	s := NewSelection(nil, 3, RejectOverflow)
	require.NoError(t, s.Select("1A"))
	require.NoError(t, s.Select("1B"))
	require.NoError(t, s.Select("1C"))

	assert.True(t, s.Deselect("1B"))
	assert.Equal(t, []string{"1A", "", "1C"}, s.Slots())
	assert.False(t, s.Deselect("1B"))

	// the freed slot is the first one without a seat
	require.NoError(t, s.Select("5D"))
	assert.Equal(t, []string{"1A", "5D", "1C"}, s.Slots())
}

func TestSelection_Toggle(t *testing.T) {
	s := NewSelection(nil, 1, RejectOverflow)
	require.NoError(t, s.Toggle("4E"))
	assert.Equal(t, []string{"4E"}, s.Selected())
	require.NoError(t, s.Toggle("4E"))
	assert.Empty(t, s.Selected())
}

func TestSelection_ApplyAndView(t *testing.T) {
	s := NewSelection([]string{"1A"}, 2, RejectOverflow)
	require.NoError(t, s.Select("1B"))
	require.NoError(t, s.Select("1C"))

	tickets := make([]models.NewTicket, 2)
	require.NoError(t, s.Apply(tickets))
	assert.Equal(t, "1B", tickets[0].SeatNumber)
	assert.Equal(t, "1C", tickets[1].SeatNumber)
	assert.Error(t, s.Apply(make([]models.NewTicket, 1)))

	view := s.View()
	assert.Equal(t, models.SeatStatusBooked, view[0].Status)
	assert.Equal(t, models.SeatStatusSelected, view[1].Status)
	assert.Equal(t, models.SeatStatusSelected, view[2].Status)
	assert.Equal(t, models.SeatStatusAvailable, view[3].Status)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, RejectOverflow, p)

	p, err = ParsePolicy("Evict")
	require.NoError(t, err)
	assert.Equal(t, EvictMostRecent, p)

	_, err = ParsePolicy("random")
	assert.Error(t, err)
}
