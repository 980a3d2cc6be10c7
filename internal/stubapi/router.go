package stubapi

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/flyeazy/flyeazy-client/internal/gateway"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// NewRouter creates and configures the HTTP router. Routes are mounted under
// prefix, e.g. "/api".
func NewRouter(h *Handler, prefix string) *mux.Router {
	r := mux.NewRouter()

	r.Use(corsMiddleware)
	r.Use(h.logMiddleware)

	api := r.PathPrefix(prefix).Subrouter()

	// Users
	api.HandleFunc("/user/login", h.Login).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/user/register", h.Register).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/user/{id}", h.requireAuth(h.GetUser)).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/user/{id}", h.requireAuth(h.UpdateUser)).Methods(http.MethodPut, http.MethodOptions)

	// Flights
	api.HandleFunc("/flights", h.GetFlights).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/flights", h.requireAdmin(h.CreateFlight)).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/flights/{id}", h.GetFlight).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/flights/{id}", h.requireAdmin(h.UpdateFlight)).Methods(http.MethodPut, http.MethodOptions)
	api.HandleFunc("/flights/{id}", h.requireAdmin(h.CancelFlight)).Methods(http.MethodDelete, http.MethodOptions)

	// Routes
	api.HandleFunc("/routes", h.GetRoutes).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/routes", h.requireAdmin(h.CreateRoute)).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/routes/{id}", h.requireAdmin(h.UpdateRoute)).Methods(http.MethodPut, http.MethodOptions)
	api.HandleFunc("/routes/{id}", h.requireAdmin(h.DeleteRoute)).Methods(http.MethodDelete, http.MethodOptions)

	// Airports
	api.HandleFunc("/airports/all", h.GetAirports).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/airports/fetch/{code}", h.GetAirportByCode).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/airports", h.requireAdmin(h.CreateAirport)).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/airports/{id}", h.requireAdmin(h.UpdateAirport)).Methods(http.MethodPut, http.MethodOptions)
	api.HandleFunc("/airports/{id}", h.requireAdmin(h.DeleteAirport)).Methods(http.MethodDelete, http.MethodOptions)

	// Bookings
	api.HandleFunc("/bookings", h.requireAuth(h.GetBookings)).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/bookings", h.requireAuth(h.CreateBooking)).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/bookings/user/email/{email}", h.requireAuth(h.GetBookingsByEmail)).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/bookings/user/{id}", h.requireAuth(h.GetUserBookings)).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/bookings/{id}", h.requireAuth(h.GetBooking)).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/bookings/{id}", h.requireAuth(h.PatchBooking)).Methods(http.MethodPatch, http.MethodOptions)
	api.HandleFunc("/bookings/{id}", h.requireAdmin(h.DeleteBooking)).Methods(http.MethodDelete, http.MethodOptions)
	api.HandleFunc("/bookings/{id}/cancel", h.requireAuth(h.CancelBooking)).Methods(http.MethodPatch, http.MethodOptions)

	// Tickets and check-in
	api.HandleFunc("/tickets", h.requireAdmin(h.GetTickets)).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/tickets/booked/{flightId}/{date}", h.GetBookedSeats).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/tickets/{id}", h.requireAuth(h.UpdateTicket)).Methods(http.MethodPut, http.MethodOptions)
	api.HandleFunc("/checkin/{ticketId}", h.requireAuth(h.CheckIn)).Methods(http.MethodPost, http.MethodOptions)

	// Live seat map
	api.HandleFunc("/ws/seats/{flightId}/{date}", h.WatchSeats).Methods(http.MethodGet)

	// Company
	api.HandleFunc("/about/company", h.GetCompany).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/about/company", h.requireAdmin(h.UpdateCompany)).Methods(http.MethodPut, http.MethodOptions)

	// Health check
	r.HandleFunc("/health", healthCheck).Methods(http.MethodGet)

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+gateway.AuthHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Hijack lets websocket upgrades pass through the logging middleware
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (h *Handler) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.log.Debug("Request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
