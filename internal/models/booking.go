package models

import "time"

// Booking represents a set of tickets purchased together
type Booking struct {
	ID              string        `json:"_id"`
	UserID          string        `json:"user_id"`
	UserEmail       string        `json:"userEmail"`
	TotalPrice      float64       `json:"totalPrice"`
	BookingDate     string        `json:"bookingDate,omitempty"`
	NumberOfTickets int           `json:"numberOfTickets"`
	BookingStatus   BookingStatus `json:"bookingStatus"`
	Tickets         []Ticket      `json:"tickets"`
}

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "Pending"
	BookingStatusConfirmed BookingStatus = "Confirmed"
	BookingStatusCancelled BookingStatus = "Cancelled"
	BookingStatusScheduled BookingStatus = "Scheduled"
)

// HasFlight reports whether any ticket of the booking is for flightID
func (b Booking) HasFlight(flightID string) bool {
	for _, t := range b.Tickets {
		if t.FlightID == flightID {
			return true
		}
	}
	return false
}

// Ticket is a single passenger's seat on a flight
type Ticket struct {
	ID            string       `json:"_id,omitempty"`
	FirstName     string       `json:"firstName"`
	LastName      string       `json:"lastName"`
	Gender        string       `json:"gender"`
	SeatNumber    string       `json:"seatNumber"`
	TicketPrice   float64      `json:"ticketPrice"`
	FlightID      string       `json:"flight_id"`
	DepartureDate string       `json:"departureDate"`
	IsCheckedIn   bool         `json:"isCheckedIn,omitempty"`
	FlightStatus  FlightStatus `json:"flightStatus,omitempty"`
}

// PassengerName returns "First Last"
func (t Ticket) PassengerName() string {
	return t.FirstName + " " + t.LastName
}

// NewTicket is one passenger slot of a booking request
type NewTicket struct {
	FirstName     string  `json:"firstName" validate:"required"`
	LastName      string  `json:"lastName" validate:"required"`
	Gender        string  `json:"gender" validate:"required"`
	SeatNumber    string  `json:"seatNumber" validate:"required"`
	TicketPrice   float64 `json:"ticketPrice" validate:"gte=0"`
	FlightID      string  `json:"flight_id" validate:"required"`
	DepartureDate string  `json:"departureDate" validate:"required"`
}

// NewBooking is the payload for POST /bookings
type NewBooking struct {
	UserID          string        `json:"user_id"`
	UserEmail       string        `json:"userEmail"`
	TotalPrice      float64       `json:"totalPrice" validate:"gte=0"`
	NumberOfTickets int           `json:"numberOfTickets" validate:"min=1"`
	BookingStatus   BookingStatus `json:"bookingStatus,omitempty"`
	Tickets         []NewTicket   `json:"tickets" validate:"required,min=1,dive"`
}

// TicketsPatch is the body of PATCH /bookings/{id}
type TicketsPatch struct {
	Tickets []Ticket `json:"tickets"`
}

// BookedSeatsResponse is returned by GET /tickets/booked/{flightId}/{date}
type BookedSeatsResponse struct {
	BookedSeats []string `json:"bookedSeats"`
}

// CheckInData is the passport information submitted at check-in
type CheckInData struct {
	PassportNumber string `json:"passportNumber" validate:"required,min=5,max=20"`
	DateOfBirth    string `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	Nationality    string `json:"nationality" validate:"required"`
	ExpirationDate string `json:"expirationDate" validate:"required,datetime=2006-01-02"`
}

// ArchivedTicket is a rendered boarding pass kept on the device
type ArchivedTicket struct {
	TicketID       string    `json:"ticketId"`
	TicketHTML     string    `json:"ticketHtml"`
	PassengerName  string    `json:"passengerName"`
	ExpirationDate string    `json:"expirationDate"`
	UserID         string    `json:"userId"`
	CreatedAt      time.Time `json:"createdAt"`
}
