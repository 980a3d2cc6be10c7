package models

// Seat represents a seat in the fixed cabin layout
type Seat struct {
	SeatNumber string     `json:"seatNumber"`
	Row        int        `json:"row"`
	Column     string     `json:"column"`
	Status     SeatStatus `json:"status"`
}

type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "available"
	SeatStatusBooked    SeatStatus = "booked"
	SeatStatusSelected  SeatStatus = "selected"
)
