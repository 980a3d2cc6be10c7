package stubapi_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flyeazy/flyeazy-client/internal/apperr"
	"github.com/flyeazy/flyeazy-client/internal/archive"
	"github.com/flyeazy/flyeazy-client/internal/gateway"
	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/flyeazy/flyeazy-client/internal/service"
	"github.com/flyeazy/flyeazy-client/internal/session"
	"github.com/flyeazy/flyeazy-client/internal/storage"
	"github.com/flyeazy/flyeazy-client/internal/stubapi"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

// ClientSuite drives the real client stack against the stub API over HTTP
type ClientSuite struct {
	suite.Suite
	server *httptest.Server
	store  *stubapi.Store
}

type client struct {
	session  *session.Store
	services *service.Services
	archive  *archive.FileStore
}

func (s *ClientSuite) SetupTest() {
	s.store = stubapi.NewStore()
	s.Require().NoError(stubapi.Seed(s.store))
	h := stubapi.NewHandler(s.store, "e2e-secret", zap.NewNop())
	s.server = httptest.NewServer(stubapi.NewRouter(h, "/api"))
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func (s *ClientSuite) login(email, password string) *client {
	log := zap.NewNop()
	kv := storage.NewMemoryStore()
	api := gateway.NewClient(s.server.URL+"/api", kv, log)
	sess := session.New(api, kv, log)
	_, err := sess.Login(context.Background(), email, password)
	s.Require().NoError(err)

	arch := archive.NewFileStore(kv)
	return &client{session: sess, services: service.New(api, sess, arch, log), archive: arch}
}

func (s *ClientSuite) flight(c *client, number string) models.Flight {
	s.Require().NoError(c.services.Flights.FetchAll(context.Background()))
	for _, f := range c.services.Flights.Items() {
		if f.FlightNumber == number {
			return f
		}
	}
	s.FailNow("flight not found", number)
	return models.Flight{}
}

func (s *ClientSuite) book(c *client, flight models.Flight, seat string) *models.Booking {
	booking, err := c.services.Bookings.Create(context.Background(), models.NewBooking{
		TotalPrice:      flight.BasePrice,
		NumberOfTickets: 1,
		Tickets: []models.NewTicket{{
			FirstName: "Demo", LastName: "User", Gender: "other",
			SeatNumber: seat, TicketPrice: flight.BasePrice,
			FlightID: flight.ID, DepartureDate: "2026-05-04",
		}},
	})
	s.Require().NoError(err)
	s.Require().NotNil(booking)
	return booking
}

func (s *ClientSuite) TestLoginEstablishesSession() {
	admin := s.login(stubapi.SeedAdminEmail, stubapi.SeedAdminPassword)
	s.True(admin.session.IsLoggedIn())
	s.True(admin.session.IsAdmin())

	user := s.login(stubapi.SeedUserEmail, stubapi.SeedUserPassword)
	sess, err := user.session.GetSessionOrFail()
	s.Require().NoError(err)
	s.Equal(stubapi.SeedUserEmail, sess.Email)
	s.False(sess.IsAdmin)
}

func (s *ClientSuite) TestBookingReservesSeat() {
	ctx := context.Background()
	user := s.login(stubapi.SeedUserEmail, stubapi.SeedUserPassword)
	fe101 := s.flight(user, "FE101")

	s.book(user, fe101, "12C")
	s.Equal([]string{"12C"}, user.services.Tickets.BookedSeats(ctx, fe101.ID, "2026-05-04"))
	s.Empty(user.services.Tickets.BookedSeats(ctx, fe101.ID, "2026-05-05"))

	_, err := user.services.Bookings.Create(ctx, models.NewBooking{
		NumberOfTickets: 1,
		Tickets: []models.NewTicket{{
			FirstName: "Second", LastName: "Try", Gender: "other", SeatNumber: "12C",
			FlightID: fe101.ID, DepartureDate: "2026-05-04",
		}},
	})
	s.Error(err)

	mine, err := user.services.Bookings.ForCurrentUser(ctx)
	s.Require().NoError(err)
	s.Len(mine, 1)
}

func (s *ClientSuite) TestWatchBookedSeatsFollowsBookings() {
	user := s.login(stubapi.SeedUserEmail, stubapi.SeedUserPassword)
	fe101 := s.flight(user, "FE101")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := make(chan []string, 8)
	done := make(chan error, 1)
	go func() {
		done <- user.services.Tickets.WatchBookedSeats(ctx, fe101.ID, "2026-05-04", func(seats []string) {
			updates <- seats
		})
	}()

	next := func() []string {
		select {
		case seats := <-updates:
			return seats
		case <-time.After(5 * time.Second):
			s.FailNow("no seat update")
			return nil
		}
	}

	s.Empty(next(), "snapshot of an empty flight")
	booking := s.book(user, fe101, "7B")
	s.Equal([]string{"7B"}, next())

	s.Require().NoError(user.services.Bookings.Cancel(context.Background(), booking.ID))
	s.Empty(next())

	cancel()
	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(5 * time.Second):
		s.FailNow("watch did not stop")
	}
}

func (s *ClientSuite) TestCancelFlightCascade() {
	ctx := context.Background()
	user := s.login(stubapi.SeedUserEmail, stubapi.SeedUserPassword)
	fe101 := s.flight(user, "FE101")
	fe201 := s.flight(user, "FE201")

	onCancelled := s.book(user, fe101, "1A")
	untouched := s.book(user, fe201, "1A")

	admin := s.login(stubapi.SeedAdminEmail, stubapi.SeedAdminPassword)
	s.flight(admin, "FE101")

	var asked []models.Booking
	report, err := admin.services.Flights.CancelFlight(ctx, fe101.ID, service.ConfirmFunc(
		func(_ context.Context, _ string, affected []models.Booking) (bool, error) {
			asked = affected
			return true, nil
		}))
	s.Require().NoError(err)
	s.Len(asked, 1)
	s.Equal([]string{onCancelled.ID}, report.CancelledBookings)

	f, err := s.store.GetFlight(fe101.ID)
	s.Require().NoError(err)
	s.Equal(models.FlightStatusCancelled, f.Status)

	b, err := s.store.GetBooking(onCancelled.ID)
	s.Require().NoError(err)
	s.Equal(models.BookingStatusCancelled, b.BookingStatus)
	s.Equal(models.FlightStatusCancelled, b.Tickets[0].FlightStatus)

	other, err := s.store.GetBooking(untouched.ID)
	s.Require().NoError(err)
	s.Equal(models.BookingStatusConfirmed, other.BookingStatus)

	// the seat is free again and the cancelled flight refuses check-in
	s.Empty(user.services.Tickets.BookedSeats(ctx, fe101.ID, "2026-05-04"))
	_, err = user.services.CheckIns.CheckIn(ctx, b.Tickets[0], *f, passport())
	s.Error(err)
}

func (s *ClientSuite) TestDeclinedCancellationChangesNothing() {
	ctx := context.Background()
	user := s.login(stubapi.SeedUserEmail, stubapi.SeedUserPassword)
	fe102 := s.flight(user, "FE102")
	booking := s.book(user, fe102, "4D")

	admin := s.login(stubapi.SeedAdminEmail, stubapi.SeedAdminPassword)
	_, err := admin.services.Flights.CancelFlight(ctx, fe102.ID, service.ConfirmFunc(
		func(context.Context, string, []models.Booking) (bool, error) { return false, nil }))
	s.ErrorIs(err, apperr.ErrCancelled)

	f, err := s.store.GetFlight(fe102.ID)
	s.Require().NoError(err)
	s.Equal(models.FlightStatusScheduled, f.Status)
	b, err := s.store.GetBooking(booking.ID)
	s.Require().NoError(err)
	s.Equal(models.BookingStatusConfirmed, b.BookingStatus)
}

func (s *ClientSuite) TestCheckInArchivesBoardingPass() {
	ctx := context.Background()
	user := s.login(stubapi.SeedUserEmail, stubapi.SeedUserPassword)
	fe301 := s.flight(user, "FE301")
	booking := s.book(user, fe301, "7F")

	res, err := user.services.CheckIns.CheckIn(ctx, booking.Tickets[0], fe301, passport())
	s.Require().NoError(err)
	s.True(user.services.CheckIns.Success())
	s.Contains(res.HTML, "Copenhagen Airport")
	s.Contains(res.HTML, "Barcelona El Prat")
	s.Require().NotNil(res.Archived)

	stored, err := user.archive.Get(ctx, res.Archived.TicketID)
	s.Require().NoError(err)
	s.Equal(res.HTML, stored.TicketHTML)

	b, err := s.store.GetBooking(booking.ID)
	s.Require().NoError(err)
	s.True(b.Tickets[0].IsCheckedIn)
}

func (s *ClientSuite) TestAdminOnlyWrites() {
	ctx := context.Background()
	user := s.login(stubapi.SeedUserEmail, stubapi.SeedUserPassword)

	_, err := user.services.Routes.Add(ctx, models.NewRoute{DepartureAirportID: "OSL", ArrivalAirportID: "BCN", Duration: "3h"})
	s.Equal(apperr.KindAccessDenied, apperr.KindOf(err))

	admin := s.login(stubapi.SeedAdminEmail, stubapi.SeedAdminPassword)
	s.Require().NoError(admin.services.Airports.FetchAll(ctx))
	route, err := admin.services.Routes.Add(ctx, models.NewRoute{DepartureAirportID: "OSL", ArrivalAirportID: "BCN", Duration: "3h"})
	s.Require().NoError(err)
	s.NotEmpty(route.ID)

	cph, err := s.store.AirportByCode("CPH")
	s.Require().NoError(err)
	err = admin.services.Airports.Delete(ctx, cph.ID)
	s.Equal(apperr.KindConflict, apperr.KindOf(err))

	company, err := admin.services.Company.Save(ctx, map[string]any{"mission": "Fly further"})
	s.Require().NoError(err)
	s.Equal("Fly further", company.Mission)
	s.Equal("Fly further", s.store.Company().Mission)
}

func passport() models.CheckInData {
	return models.CheckInData{
		PassportNumber: "DK1234567",
		DateOfBirth:    "1992-06-15",
		Nationality:    "Danish",
		ExpirationDate: "2031-01-01",
	}
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}
