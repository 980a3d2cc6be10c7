package stubapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/flyeazy/flyeazy-client/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Handler contains HTTP handlers for the stub API
type Handler struct {
	store  *Store
	secret []byte
	log    *zap.Logger
	now    func() time.Time
	hub    *Hub
}

// NewHandler creates a new Handler instance
func NewHandler(store *Store, secret string, log *zap.Logger) *Handler {
	return &Handler{
		store:  store,
		secret: []byte(secret),
		log:    log.With(zap.String("component", "stubapi")),
		now:    time.Now,
		hub:    NewHub(log),
	}
}

// WithClock overrides the time source used for tokens and booking dates
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(text))
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) respondStoreError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respondError(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, ErrSeatTaken), errors.Is(err, ErrAirportInUse),
		errors.Is(err, ErrDuplicateEmail), errors.Is(err, ErrFlightCanceled):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrForbidden):
		respondError(w, http.StatusForbidden, "Access Denied")
	case errors.Is(err, ErrBadCredentials):
		respondError(w, http.StatusUnauthorized, err.Error())
	default:
		h.log.Error("Request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// decode reads the JSON body into v and validates it. It writes the error
// response itself and reports whether the handler may continue.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if errs := validation.ValidateStruct(v); len(errs) > 0 {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "Validation failed",
			"fields": errs,
		})
		return false
	}
	return true
}

type authData struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (h *Handler) respondAuth(w http.ResponseWriter, status int, user *models.User) {
	token, err := h.IssueToken(*user, TokenTTL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	respondJSON(w, status, map[string]any{
		"error": nil,
		"data":  authData{Token: token, User: *user},
	})
}

// --- Users ---

// Login handles POST /user/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.store.Authenticate(req.Email, req.Password)
	if err != nil {
		h.log.Info("Login refused", zap.String("email", req.Email))
		h.respondStoreError(w, err, "user")
		return
	}
	h.log.Info("User logged in", zap.String("userId", user.ID))
	h.respondAuth(w, http.StatusOK, user)
}

// Register handles POST /user/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.store.CreateUser(req)
	if err != nil {
		h.respondStoreError(w, err, "user")
		return
	}
	h.log.Info("User registered", zap.String("userId", user.ID))
	h.respondAuth(w, http.StatusCreated, user)
}

// ownerOrAdmin reports whether the caller may act on userID's data
func ownerOrAdmin(r *http.Request, userID string) bool {
	c := claimsFrom(r)
	return c != nil && (c.IsAdmin || c.UserID == userID)
}

// GetUser handles GET /user/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !ownerOrAdmin(r, id) {
		respondError(w, http.StatusForbidden, "Access Denied")
		return
	}
	user, err := h.store.GetUser(id)
	if err != nil {
		h.respondStoreError(w, err, "User")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UpdateUser handles PUT /user/{id}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !ownerOrAdmin(r, id) {
		respondError(w, http.StatusForbidden, "Access Denied")
		return
	}
	var patch models.User
	if !decode(w, r, &patch) {
		return
	}
	user, err := h.store.UpdateUser(id, patch)
	if err != nil {
		h.respondStoreError(w, err, "User")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": user})
}

// --- Flights ---

// GetFlights handles GET /flights
func (h *Handler) GetFlights(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.ListFlights())
}

// GetFlight handles GET /flights/{id}
func (h *Handler) GetFlight(w http.ResponseWriter, r *http.Request) {
	flight, err := h.store.GetFlight(mux.Vars(r)["id"])
	if err != nil {
		h.respondStoreError(w, err, "Flight")
		return
	}
	respondJSON(w, http.StatusOK, flight)
}

// CreateFlight handles POST /flights
func (h *Handler) CreateFlight(w http.ResponseWriter, r *http.Request) {
	var req models.NewFlight
	if !decode(w, r, &req) {
		return
	}
	flight, err := h.store.CreateFlight(req)
	if err != nil {
		h.respondStoreError(w, err, "Route")
		return
	}
	h.log.Info("Flight created", zap.String("flightId", flight.ID), zap.String("flightNumber", flight.FlightNumber))
	respondJSON(w, http.StatusCreated, flight)
}

// UpdateFlight handles PUT /flights/{id}
func (h *Handler) UpdateFlight(w http.ResponseWriter, r *http.Request) {
	var patch FlightPatch
	if !decode(w, r, &patch) {
		return
	}
	flight, err := h.store.UpdateFlight(mux.Vars(r)["id"], patch)
	if err != nil {
		h.respondStoreError(w, err, "Flight")
		return
	}
	respondJSON(w, http.StatusOK, flight)
}

// CancelFlight handles DELETE /flights/{id}. Flights are never removed, only
// marked cancelled.
func (h *Handler) CancelFlight(w http.ResponseWriter, r *http.Request) {
	flight, err := h.store.CancelFlight(mux.Vars(r)["id"])
	if err != nil {
		h.respondStoreError(w, err, "Flight")
		return
	}
	h.log.Info("Flight cancelled", zap.String("flightId", flight.ID))
	respondText(w, http.StatusOK, "Flight cancelled successfully")
}

// --- Routes ---

// GetRoutes handles GET /routes. Routes are listed with "_id" keys.
func (h *Handler) GetRoutes(w http.ResponseWriter, r *http.Request) {
	routes := h.store.ListRoutes()
	out := make([]map[string]string, 0, len(routes))
	for _, rt := range routes {
		out = append(out, map[string]string{
			"_id":                  rt.ID,
			"departureAirport_id":  rt.DepartureAirportID,
			"arrivalAirport_id":    rt.ArrivalAirportID,
			"departureAirportCode": rt.DepartureAirportCode,
			"arrivalAirportCode":   rt.ArrivalAirportCode,
			"duration":             rt.Duration,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

// CreateRoute handles POST /routes
func (h *Handler) CreateRoute(w http.ResponseWriter, r *http.Request) {
	var req models.NewRoute
	if !decode(w, r, &req) {
		return
	}
	route, err := h.store.CreateRoute(req)
	if err != nil {
		h.respondStoreError(w, err, "Airport")
		return
	}
	respondJSON(w, http.StatusCreated, route)
}

// UpdateRoute handles PUT /routes/{id}
func (h *Handler) UpdateRoute(w http.ResponseWriter, r *http.Request) {
	var patch models.NewRoute
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	route, err := h.store.UpdateRoute(mux.Vars(r)["id"], patch)
	if err != nil {
		h.respondStoreError(w, err, "Route")
		return
	}
	respondJSON(w, http.StatusOK, route)
}

// DeleteRoute handles DELETE /routes/{id}
func (h *Handler) DeleteRoute(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteRoute(mux.Vars(r)["id"]); err != nil {
		h.respondStoreError(w, err, "Route")
		return
	}
	respondText(w, http.StatusOK, "Route deleted")
}

// --- Airports ---

// GetAirports handles GET /airports/all
func (h *Handler) GetAirports(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.ListAirports())
}

// GetAirportByCode handles GET /airports/fetch/{code}
func (h *Handler) GetAirportByCode(w http.ResponseWriter, r *http.Request) {
	airport, err := h.store.AirportByCode(mux.Vars(r)["code"])
	if err != nil {
		h.respondStoreError(w, err, "Airport")
		return
	}
	respondJSON(w, http.StatusOK, airport)
}

// CreateAirport handles POST /airports
func (h *Handler) CreateAirport(w http.ResponseWriter, r *http.Request) {
	var req models.Airport
	if !decode(w, r, &req) {
		return
	}
	if req.Code == "" || req.Name == "" {
		respondError(w, http.StatusBadRequest, "Airport code and name are required")
		return
	}
	if _, err := h.store.AirportByCode(req.Code); err == nil {
		respondError(w, http.StatusConflict, "Airport code already exists")
		return
	}
	respondJSON(w, http.StatusCreated, h.store.CreateAirport(req))
}

// UpdateAirport handles PUT /airports/{id}
func (h *Handler) UpdateAirport(w http.ResponseWriter, r *http.Request) {
	var patch models.Airport
	if !decode(w, r, &patch) {
		return
	}
	airport, err := h.store.UpdateAirport(mux.Vars(r)["id"], patch)
	if err != nil {
		h.respondStoreError(w, err, "Airport")
		return
	}
	respondJSON(w, http.StatusOK, airport)
}

// DeleteAirport handles DELETE /airports/{id}
func (h *Handler) DeleteAirport(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteAirport(mux.Vars(r)["id"]); err != nil {
		h.respondStoreError(w, err, "Airport")
		return
	}
	respondText(w, http.StatusOK, "Airport deleted")
}

// --- Bookings ---

// GetBookings handles GET /bookings. Admins see every booking, users their own.
func (h *Handler) GetBookings(w http.ResponseWriter, r *http.Request) {
	c := claimsFrom(r)
	if c.IsAdmin {
		respondJSON(w, http.StatusOK, h.store.ListBookings(nil))
		return
	}
	respondJSON(w, http.StatusOK, h.store.ListBookings(func(b models.Booking) bool {
		return b.UserID == c.UserID
	}))
}

// GetBooking handles GET /bookings/{id}
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	booking, ok := h.ownedBooking(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

// ownedBooking loads the booking named in the path if the caller may see it
func (h *Handler) ownedBooking(w http.ResponseWriter, r *http.Request) (*models.Booking, bool) {
	booking, err := h.store.GetBooking(mux.Vars(r)["id"])
	if err != nil {
		h.respondStoreError(w, err, "Booking")
		return nil, false
	}
	if !ownerOrAdmin(r, booking.UserID) {
		respondError(w, http.StatusForbidden, "Access Denied")
		return nil, false
	}
	return booking, true
}

// GetUserBookings handles GET /bookings/user/{id}
func (h *Handler) GetUserBookings(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !ownerOrAdmin(r, id) {
		respondError(w, http.StatusForbidden, "Access Denied")
		return
	}
	respondJSON(w, http.StatusOK, h.store.ListBookings(func(b models.Booking) bool {
		return b.UserID == id
	}))
}

// GetBookingsByEmail handles GET /bookings/user/email/{email}
func (h *Handler) GetBookingsByEmail(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(mux.Vars(r)["email"])
	c := claimsFrom(r)
	if !c.IsAdmin && !strings.EqualFold(c.Email, email) {
		respondError(w, http.StatusForbidden, "Access Denied")
		return
	}
	respondJSON(w, http.StatusOK, h.store.ListBookings(func(b models.Booking) bool {
		return b.UserEmail == email
	}))
}

// CreateBooking handles POST /bookings
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req models.NewBooking
	if !decode(w, r, &req) {
		return
	}
	if req.NumberOfTickets != len(req.Tickets) {
		respondError(w, http.StatusBadRequest, "numberOfTickets does not match tickets")
		return
	}
	c := claimsFrom(r)
	if req.UserID == "" {
		req.UserID = c.UserID
	}
	if req.UserEmail == "" {
		req.UserEmail = c.Email
	}
	if !ownerOrAdmin(r, req.UserID) {
		respondError(w, http.StatusForbidden, "Access Denied")
		return
	}

	booking, err := h.store.CreateBooking(req, h.now())
	if err != nil {
		h.respondStoreError(w, err, "Flight")
		return
	}
	h.log.Info("Booking created", zap.String("bookingId", booking.ID), zap.Int("tickets", len(booking.Tickets)))
	h.notifySeats(booking.Tickets)
	respondJSON(w, http.StatusCreated, map[string]any{"message": "Booking created", "booking": booking})
}

// PatchBooking handles PATCH /bookings/{id}, replacing the ticket array
func (h *Handler) PatchBooking(w http.ResponseWriter, r *http.Request) {
	before, ok := h.ownedBooking(w, r)
	if !ok {
		return
	}
	var patch models.TicketsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil || patch.Tickets == nil {
		respondError(w, http.StatusBadRequest, "tickets are required")
		return
	}
	booking, err := h.store.ReplaceTickets(mux.Vars(r)["id"], patch.Tickets)
	if err != nil {
		h.respondStoreError(w, err, "Booking")
		return
	}
	h.notifySeats(before.Tickets, booking.Tickets)
	respondJSON(w, http.StatusOK, map[string]any{"message": "Booking updated", "booking": booking})
}

// CancelBooking handles PATCH /bookings/{id}/cancel
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.ownedBooking(w, r); !ok {
		return
	}
	booking, err := h.store.CancelBooking(mux.Vars(r)["id"])
	if err != nil {
		h.respondStoreError(w, err, "Booking")
		return
	}
	h.log.Info("Booking cancelled", zap.String("bookingId", booking.ID))
	h.notifySeats(booking.Tickets)
	respondJSON(w, http.StatusOK, map[string]any{"message": "Booking cancelled", "booking": booking})
}

// DeleteBooking handles DELETE /bookings/{id}
func (h *Handler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	before, err := h.store.GetBooking(id)
	if err != nil {
		h.respondStoreError(w, err, "Booking")
		return
	}
	if err := h.store.DeleteBooking(id); err != nil {
		h.respondStoreError(w, err, "Booking")
		return
	}
	h.notifySeats(before.Tickets)
	respondText(w, http.StatusOK, "Booking deleted")
}

// --- Tickets ---

// GetTickets handles GET /tickets
func (h *Handler) GetTickets(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.ListTickets())
}

// GetBookedSeats handles GET /tickets/booked/{flightId}/{date}
func (h *Handler) GetBookedSeats(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	respondJSON(w, http.StatusOK, models.BookedSeatsResponse{
		BookedSeats: h.store.BookedSeats(vars["flightId"], vars["date"]),
	})
}

// UpdateTicket handles PUT /tickets/{id}. Passenger details and the seat may
// change; ids and check-in state may not.
func (h *Handler) UpdateTicket(w http.ResponseWriter, r *http.Request) {
	var patch models.Ticket
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	c := claimsFrom(r)
	ticket, err := h.store.UpdateTicket(mux.Vars(r)["id"], func(t *models.Ticket, ownerID string) error {
		if !c.IsAdmin && ownerID != c.UserID {
			return ErrForbidden
		}
		if patch.FirstName != "" {
			t.FirstName = patch.FirstName
		}
		if patch.LastName != "" {
			t.LastName = patch.LastName
		}
		if patch.Gender != "" {
			t.Gender = patch.Gender
		}
		if patch.SeatNumber != "" {
			t.SeatNumber = patch.SeatNumber
		}
		if patch.FlightStatus != "" {
			t.FlightStatus = patch.FlightStatus
		}
		return nil
	})
	if err != nil {
		h.respondStoreError(w, err, "Ticket")
		return
	}
	h.notifySeats([]models.Ticket{*ticket})
	respondJSON(w, http.StatusOK, ticket)
}

// CheckIn handles POST /checkin/{ticketId}
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var data models.CheckInData
	if !decode(w, r, &data) {
		return
	}
	c := claimsFrom(r)
	ticket, err := h.store.UpdateTicket(mux.Vars(r)["ticketId"], func(t *models.Ticket, ownerID string) error {
		if !c.IsAdmin && ownerID != c.UserID {
			return ErrForbidden
		}
		if t.FlightStatus == models.FlightStatusCancelled {
			return ErrFlightCanceled
		}
		t.IsCheckedIn = true
		return nil
	})
	if err != nil {
		h.respondStoreError(w, err, "Ticket")
		return
	}
	h.log.Info("Ticket checked in", zap.String("ticketId", ticket.ID), zap.String("userId", c.UserID))
	respondJSON(w, http.StatusOK, map[string]any{"message": "Check-in successful", "ticket": ticket})
}

// --- Company ---

// GetCompany handles GET /about/company
func (h *Handler) GetCompany(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Company())
}

// UpdateCompany handles PUT /about/company
func (h *Handler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	var patch models.Company
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"company": h.store.UpdateCompany(patch)})
}
