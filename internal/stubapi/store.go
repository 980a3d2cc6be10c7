// Package stubapi is an in-memory stand-in for the FlyEazy booking API. It
// serves the endpoints the client consumes and is used by integration tests
// and local demos. Nothing is persisted.
package stubapi

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrBadCredentials = errors.New("invalid email or password")
	ErrSeatTaken      = errors.New("seat already booked")
	ErrAirportInUse   = errors.New("airport is used by a route")
	ErrFlightCanceled = errors.New("flight is cancelled")
	ErrForbidden      = errors.New("access denied")
)

type userRecord struct {
	models.User
	PasswordHash []byte
}

// Store holds all stub data behind one mutex
type Store struct {
	mu       sync.RWMutex
	users    map[string]*userRecord
	flights  map[string]*models.Flight
	routes   map[string]*models.Route
	airports map[string]*models.Airport
	bookings map[string]*models.Booking
	company  models.Company
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:    make(map[string]*userRecord),
		flights:  make(map[string]*models.Flight),
		routes:   make(map[string]*models.Route),
		airports: make(map[string]*models.Airport),
		bookings: make(map[string]*models.Booking),
	}
}

func newID() string {
	return uuid.NewString()
}

// --- Users ---

// CreateUser registers a user with a bcrypt-hashed password
func (s *Store) CreateUser(req models.RegisterRequest) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(req.Email)
	for _, u := range s.users {
		if u.Email == email {
			return nil, ErrDuplicateEmail
		}
	}
	u := &userRecord{
		User: models.User{
			ID:          newID(),
			Name:        req.Name,
			Email:       email,
			Phone:       req.Phone,
			DateOfBirth: req.DateOfBirth,
			IsAdmin:     req.IsAdmin,
		},
		PasswordHash: hash,
	}
	s.users[u.ID] = u
	user := u.User
	return &user, nil
}

// Authenticate checks credentials
func (s *Store) Authenticate(email, password string) (*models.User, error) {
	s.mu.RLock()
	var found *userRecord
	for _, u := range s.users {
		if u.Email == strings.ToLower(email) {
			found = u
			break
		}
	}
	s.mu.RUnlock()

	if found == nil {
		return nil, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(found.PasswordHash, []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	user := found.User
	return &user, nil
}

func (s *Store) GetUser(id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	user := u.User
	return &user, nil
}

// UpdateUser applies the profile fields of patch. Admin rights and the id
// cannot be changed this way.
func (s *Store) UpdateUser(id string, patch models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Name != "" {
		u.Name = patch.Name
	}
	if patch.Phone != "" {
		u.Phone = patch.Phone
	}
	if patch.DateOfBirth != "" {
		u.DateOfBirth = patch.DateOfBirth
	}
	user := u.User
	return &user, nil
}

// --- Airports ---

func (s *Store) ListAirports() []models.Airport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Airport, 0, len(s.airports))
	for _, a := range s.airports {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (s *Store) AirportByCode(code string) (*models.Airport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.airports {
		if strings.EqualFold(a.Code, code) {
			ap := *a
			return &ap, nil
		}
	}
	return nil, ErrNotFound
}

func (s *Store) CreateAirport(a models.Airport) models.Airport {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = newID()
	a.Code = strings.ToUpper(a.Code)
	s.airports[a.ID] = &a
	return a
}

func (s *Store) UpdateAirport(id string, patch models.Airport) (*models.Airport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.airports[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Name != "" {
		a.Name = patch.Name
	}
	if patch.City != "" {
		a.City = patch.City
	}
	if patch.Country != "" {
		a.Country = patch.Country
	}
	ap := *a
	return &ap, nil
}

// DeleteAirport refuses while any route references the airport
func (s *Store) DeleteAirport(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.airports[id]
	if !ok {
		return ErrNotFound
	}
	for _, r := range s.routes {
		for _, ref := range []string{r.DepartureAirportID, r.ArrivalAirportID} {
			if ref == a.ID || strings.EqualFold(ref, a.Code) {
				return ErrAirportInUse
			}
		}
	}
	delete(s.airports, id)
	return nil
}

func (s *Store) airportExistsLocked(ref string) bool {
	for _, a := range s.airports {
		if a.ID == ref || strings.EqualFold(a.Code, ref) {
			return true
		}
	}
	return false
}

// --- Routes ---

func (s *Store) ListRoutes() []models.Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Route, 0, len(s.routes))
	for _, r := range s.routes {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CreateRoute requires both airports to exist
func (s *Store) CreateRoute(in models.NewRoute) (*models.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.airportExistsLocked(in.DepartureAirportID) || !s.airportExistsLocked(in.ArrivalAirportID) {
		return nil, ErrNotFound
	}
	r := &models.Route{
		ID:                 newID(),
		DepartureAirportID: in.DepartureAirportID,
		ArrivalAirportID:   in.ArrivalAirportID,
		Duration:           in.Duration,
	}
	s.fillRouteCodesLocked(r)
	s.routes[r.ID] = r
	route := *r
	return &route, nil
}

func (s *Store) UpdateRoute(id string, patch models.NewRoute) (*models.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.routes[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.DepartureAirportID != "" {
		r.DepartureAirportID = patch.DepartureAirportID
	}
	if patch.ArrivalAirportID != "" {
		r.ArrivalAirportID = patch.ArrivalAirportID
	}
	if patch.Duration != "" {
		r.Duration = patch.Duration
	}
	s.fillRouteCodesLocked(r)
	route := *r
	return &route, nil
}

func (s *Store) DeleteRoute(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.routes[id]; !ok {
		return ErrNotFound
	}
	delete(s.routes, id)
	return nil
}

func (s *Store) fillRouteCodesLocked(r *models.Route) {
	for _, a := range s.airports {
		if a.ID == r.DepartureAirportID || strings.EqualFold(a.Code, r.DepartureAirportID) {
			r.DepartureAirportCode = a.Code
		}
		if a.ID == r.ArrivalAirportID || strings.EqualFold(a.Code, r.ArrivalAirportID) {
			r.ArrivalAirportCode = a.Code
		}
	}
}

// --- Flights ---

func (s *Store) ListFlights() []models.Flight {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Flight, 0, len(s.flights))
	for _, f := range s.flights {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FlightNumber < out[j].FlightNumber })
	return out
}

func (s *Store) GetFlight(id string) (*models.Flight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.flights[id]
	if !ok {
		return nil, ErrNotFound
	}
	flight := *f
	return &flight, nil
}

// CreateFlight populates the route from in.RouteID
func (s *Store) CreateFlight(in models.NewFlight) (*models.Flight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.routes[in.RouteID]
	if !ok {
		return nil, ErrNotFound
	}
	status := in.Status
	if status == "" {
		status = models.FlightStatusScheduled
	}
	f := &models.Flight{
		ID:              newID(),
		FlightNumber:    in.FlightNumber,
		DepartureDay:    in.DepartureDay,
		DepartureTime:   in.DepartureTime,
		ArrivalTime:     in.ArrivalTime,
		OperatingPeriod: in.OperatingPeriod,
		Status:          status,
		Route:           *r,
		TotalSeats:      in.TotalSeats,
		BasePrice:       in.BasePrice,
	}
	s.flights[f.ID] = f
	flight := *f
	return &flight, nil
}

// FlightPatch holds the updatable flight fields
type FlightPatch struct {
	FlightNumber  string              `json:"flightNumber"`
	DepartureDay  string              `json:"departureDay"`
	DepartureTime string              `json:"departureTime"`
	ArrivalTime   string              `json:"arrivalTime"`
	Status        models.FlightStatus `json:"status"`
	TotalSeats    int                 `json:"totalSeats"`
	BasePrice     float64             `json:"basePrice"`
}

func (s *Store) UpdateFlight(id string, p FlightPatch) (*models.Flight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flights[id]
	if !ok {
		return nil, ErrNotFound
	}
	if p.FlightNumber != "" {
		f.FlightNumber = p.FlightNumber
	}
	if p.DepartureDay != "" {
		f.DepartureDay = p.DepartureDay
	}
	if p.DepartureTime != "" {
		f.DepartureTime = p.DepartureTime
	}
	if p.ArrivalTime != "" {
		f.ArrivalTime = p.ArrivalTime
	}
	if p.Status != "" {
		f.Status = p.Status
	}
	if p.TotalSeats > 0 {
		f.TotalSeats = p.TotalSeats
	}
	if p.BasePrice > 0 {
		f.BasePrice = p.BasePrice
	}
	flight := *f
	return &flight, nil
}

// CancelFlight soft-cancels the flight. Bookings are left to the client.
func (s *Store) CancelFlight(id string) (*models.Flight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flights[id]
	if !ok {
		return nil, ErrNotFound
	}
	f.Status = models.FlightStatusCancelled
	flight := *f
	return &flight, nil
}

// --- Bookings and tickets ---

func (s *Store) ListBookings(match func(models.Booking) bool) []models.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Booking, 0)
	for _, b := range s.bookings {
		if match == nil || match(*b) {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BookingDate != out[j].BookingDate {
			return out[i].BookingDate < out[j].BookingDate
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) GetBooking(id string) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	booking := cloneBooking(b)
	return &booking, nil
}

// CreateBooking stores a booking after checking every seat is still free
func (s *Store) CreateBooking(in models.NewBooking, now time.Time) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := &models.Booking{
		ID:              newID(),
		UserID:          in.UserID,
		UserEmail:       strings.ToLower(in.UserEmail),
		TotalPrice:      in.TotalPrice,
		BookingDate:     now.UTC().Format(time.RFC3339),
		NumberOfTickets: in.NumberOfTickets,
		BookingStatus:   models.BookingStatusConfirmed,
		Tickets:         make([]models.Ticket, 0, len(in.Tickets)),
	}
	for _, t := range in.Tickets {
		f, ok := s.flights[t.FlightID]
		if !ok {
			return nil, ErrNotFound
		}
		if f.Status == models.FlightStatusCancelled {
			return nil, ErrFlightCanceled
		}
		if s.seatTakenLocked(t.FlightID, t.DepartureDate, t.SeatNumber) {
			return nil, ErrSeatTaken
		}
		b.Tickets = append(b.Tickets, models.Ticket{
			ID:            newID(),
			FirstName:     t.FirstName,
			LastName:      t.LastName,
			Gender:        t.Gender,
			SeatNumber:    t.SeatNumber,
			TicketPrice:   t.TicketPrice,
			FlightID:      t.FlightID,
			DepartureDate: t.DepartureDate,
			FlightStatus:  f.Status,
		})
	}
	s.bookings[b.ID] = b
	booking := cloneBooking(b)
	return &booking, nil
}

// ReplaceTickets overwrites the ticket array of a booking
func (s *Store) ReplaceTickets(id string, tickets []models.Ticket) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	b.Tickets = append([]models.Ticket(nil), tickets...)
	booking := cloneBooking(b)
	return &booking, nil
}

func (s *Store) CancelBooking(id string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	b.BookingStatus = models.BookingStatusCancelled
	booking := cloneBooking(b)
	return &booking, nil
}

func (s *Store) DeleteBooking(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[id]; !ok {
		return ErrNotFound
	}
	delete(s.bookings, id)
	return nil
}

// BookedSeats lists the seats held by non-cancelled bookings on a flight date
func (s *Store) BookedSeats(flightID, date string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seats := make([]string, 0)
	for _, b := range s.bookings {
		if b.BookingStatus == models.BookingStatusCancelled {
			continue
		}
		for _, t := range b.Tickets {
			if t.FlightID == flightID && t.DepartureDate == date {
				seats = append(seats, t.SeatNumber)
			}
		}
	}
	sort.Strings(seats)
	return seats
}

func (s *Store) seatTakenLocked(flightID, date, seat string) bool {
	for _, b := range s.bookings {
		if b.BookingStatus == models.BookingStatusCancelled {
			continue
		}
		for _, t := range b.Tickets {
			if t.FlightID == flightID && t.DepartureDate == date && strings.EqualFold(t.SeatNumber, seat) {
				return true
			}
		}
	}
	return false
}

// ListTickets returns every booked ticket
func (s *Store) ListTickets() []models.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Ticket, 0)
	for _, b := range s.bookings {
		out = append(out, b.Tickets...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UpdateTicket applies fn to the ticket. fn also receives the id of the user
// owning the booking; the change is discarded if fn fails.
func (s *Store) UpdateTicket(id string, fn func(t *models.Ticket, ownerID string) error) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		for i := range b.Tickets {
			if b.Tickets[i].ID != id {
				continue
			}
			t := b.Tickets[i]
			if err := fn(&t, b.UserID); err != nil {
				return nil, err
			}
			b.Tickets[i] = t
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func cloneBooking(b *models.Booking) models.Booking {
	c := *b
	c.Tickets = append([]models.Ticket(nil), b.Tickets...)
	return c
}

// --- Company ---

func (s *Store) Company() models.Company {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.company
}

func (s *Store) UpdateCompany(patch models.Company) models.Company {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &s.company
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&c.Name, patch.Name},
		{&c.Description, patch.Description},
		{&c.Mission, patch.Mission},
		{&c.Vision, patch.Vision},
		{&c.ContactEmail, patch.ContactEmail},
		{&c.Phone, patch.Phone},
		{&c.Address, patch.Address},
	} {
		if f.src != "" {
			*f.dst = f.src
		}
	}
	return s.company
}
