package models

import "encoding/json"

// Flight represents a scheduled flight as returned by the booking API
type Flight struct {
	ID              string          `json:"_id"`
	FlightNumber    string          `json:"flightNumber"`
	DepartureDay    string          `json:"departureDay"`
	DepartureTime   string          `json:"departureTime"`
	ArrivalTime     string          `json:"arrivalTime"`
	OperatingPeriod OperatingPeriod `json:"operatingPeriod"`
	Status          FlightStatus    `json:"status"`
	Route           Route           `json:"route"`
	TotalSeats      int             `json:"totalSeats"`
	BasePrice       float64         `json:"basePrice"`
}

// OperatingPeriod bounds the dates a recurring flight operates on
type OperatingPeriod struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type FlightStatus string

const (
	FlightStatusScheduled FlightStatus = "Scheduled"
	FlightStatusDelayed   FlightStatus = "Delayed"
	FlightStatusCancelled FlightStatus = "Cancelled"
	FlightStatusCompleted FlightStatus = "Completed"
)

// Route connects two airports
type Route struct {
	ID                   string `json:"route_id"`
	DepartureAirportID   string `json:"departureAirport_id"`
	ArrivalAirportID     string `json:"arrivalAirport_id"`
	DepartureAirportCode string `json:"departureAirportCode,omitempty"`
	ArrivalAirportCode   string `json:"arrivalAirportCode,omitempty"`
	Duration             string `json:"duration"`
}

// UnmarshalJSON accepts both the "_id" key used by the list endpoint and the
// "route_id" key used elsewhere. An unpopulated reference (a bare id string)
// decodes into a Route carrying only its ID.
func (r *Route) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*r = Route{ID: id}
		return nil
	}
	type plain Route
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Route(aux.plain)
	if r.ID == "" {
		r.ID = aux.MongoID
	}
	return nil
}

// DepartureCode returns the IATA code of the departure airport
func (r Route) DepartureCode() string {
	if r.DepartureAirportCode != "" {
		return r.DepartureAirportCode
	}
	return r.DepartureAirportID
}

// ArrivalCode returns the IATA code of the arrival airport
func (r Route) ArrivalCode() string {
	if r.ArrivalAirportCode != "" {
		return r.ArrivalAirportCode
	}
	return r.ArrivalAirportID
}

// Airport is reference data for route endpoints
type Airport struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// NewFlight is the payload for creating a flight
type NewFlight struct {
	FlightNumber    string          `json:"flightNumber" validate:"required"`
	DepartureDay    string          `json:"departureDay" validate:"required"`
	DepartureTime   string          `json:"departureTime" validate:"required"`
	ArrivalTime     string          `json:"arrivalTime" validate:"required"`
	OperatingPeriod OperatingPeriod `json:"operatingPeriod"`
	Status          FlightStatus    `json:"status,omitempty"`
	RouteID         string          `json:"route" validate:"required"`
	TotalSeats      int             `json:"totalSeats" validate:"min=1,max=192"`
	BasePrice       float64         `json:"basePrice" validate:"gt=0"`
}

// NewRoute is the payload for creating a route
type NewRoute struct {
	DepartureAirportID string `json:"departureAirport_id" validate:"required"`
	ArrivalAirportID   string `json:"arrivalAirport_id" validate:"required,nefield=DepartureAirportID"`
	Duration           string `json:"duration" validate:"required"`
}

// Company holds the public "about us" information
type Company struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Mission      string `json:"mission,omitempty"`
	Vision       string `json:"vision,omitempty"`
	ContactEmail string `json:"contactEmail,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Address      string `json:"address,omitempty"`
}
