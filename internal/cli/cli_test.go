package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/flyeazy/flyeazy-client/internal/app"
	"github.com/flyeazy/flyeazy-client/internal/apperr"
	"github.com/flyeazy/flyeazy-client/internal/config"
	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/flyeazy/flyeazy-client/internal/navigation"
	"github.com/flyeazy/flyeazy-client/internal/storage"
	"github.com/flyeazy/flyeazy-client/internal/stubapi"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type CLISuite struct {
	suite.Suite
	server  *httptest.Server
	store   *stubapi.Store
	handler *stubapi.Handler
	cfg    *config.Config
	dir    string
}

func (s *CLISuite) SetupTest() {
	s.store = stubapi.NewStore()
	s.Require().NoError(stubapi.Seed(s.store))
	s.handler = stubapi.NewHandler(s.store, "cli-secret", zap.NewNop())
	s.server = httptest.NewServer(stubapi.NewRouter(s.handler, "/api"))

	s.dir = s.T().TempDir()
	s.cfg = &config.Config{
		App: config.AppConfig{
			StatePath:  filepath.Join(s.dir, "state.json"),
			SeatPolicy: "reject",
		},
		API: config.APIConfig{BaseURL: s.server.URL + "/api"},
	}
}

func (s *CLISuite) TearDownTest() {
	s.server.Close()
}

// run executes one CLI invocation; each builds a fresh app over the same
// state file, like separate processes would.
func (s *CLISuite) run(stdin string, args ...string) (string, error) {
	var out, errOut bytes.Buffer
	factory := func(ctx context.Context) (*app.App, error) {
		return app.NewWithConfig(ctx, s.cfg, "flyeazy")
	}
	err := Execute(context.Background(), factory, args, strings.NewReader(stdin), &out, &errOut)
	return out.String() + errOut.String(), err
}

func (s *CLISuite) login(email, password string) {
	out, err := s.run("", "login", "--email", email, "--password", password)
	s.Require().NoError(err)
	s.Contains(out, "Logged in as "+email)
}

func (s *CLISuite) flightID(number string) string {
	for _, f := range s.store.ListFlights() {
		if f.FlightNumber == number {
			return f.ID
		}
	}
	s.FailNow("no flight " + number)
	return ""
}

func (s *CLISuite) onlyBooking() models.Booking {
	bookings := s.store.ListBookings(nil)
	s.Require().Len(bookings, 1)
	return bookings[0]
}

func (s *CLISuite) TestGuardRequiresLogin() {
	_, err := s.run("", "bookings")
	s.Require().Error(err)
	s.True(apperr.IsAuth(err))

	out, err := s.run("", "about")
	s.Require().NoError(err)
	s.Contains(out, "FlyEazy")
}

func (s *CLISuite) TestLoginPromptsForMissingCredentials() {
	out, err := s.run(stubapi.SeedUserEmail+"\n"+stubapi.SeedUserPassword+"\n", "login")
	s.Require().NoError(err)
	s.Contains(out, "Email: ")
	s.Contains(out, "(user)")

	out, err = s.run("", "flights")
	s.Require().NoError(err)
	s.Contains(out, "FE101")
	s.Contains(out, "CPH-LHR")
}

func (s *CLISuite) TestUserCannotOpenAdminCommands() {
	s.login(stubapi.SeedUserEmail, stubapi.SeedUserPassword)

	_, err := s.run("", "flights", "cancel", s.flightID("FE101"), "--yes")
	s.ErrorIs(err, apperr.ErrAccessDenied)

	f, err := s.store.GetFlight(s.flightID("FE101"))
	s.Require().NoError(err)
	s.Equal(models.FlightStatusScheduled, f.Status)
}

func (s *CLISuite) TestLogoutClearsSession() {
	s.login(stubapi.SeedUserEmail, stubapi.SeedUserPassword)
	_, err := s.run("", "logout")
	s.Require().NoError(err)

	_, err = s.run("", "bookings")
	s.ErrorIs(err, apperr.ErrAuthRequired)
}

func (s *CLISuite) TestBookSeatsAndCheckIn() {
	s.login(stubapi.SeedUserEmail, stubapi.SeedUserPassword)
	fe301 := s.flightID("FE301")

	_, err := s.run("", "bookings", "create", "--flight", fe301, "--date", "2026-07-04",
		"--passenger", "Ada,Lovelace,female", "--passenger", "Alan,Turing,male", "--seat", "10A")
	s.Require().Error(err, "two passengers need two seats")

	out, err := s.run("", "bookings", "create", "--flight", fe301, "--date", "2026-07-04",
		"--passenger", "Ada,Lovelace,female", "--passenger", "Alan,Turing,male", "--seat", "10A,10B")
	s.Require().NoError(err)
	s.Contains(out, "seats 10A, 10B")

	out, err = s.run("", "seats", fe301, "2026-07-04")
	s.Require().NoError(err)
	s.Contains(out, " 10 x x . . . .")
	s.Contains(out, "2 of 192 seats booked")

	_, err = s.run("", "bookings", "create", "--flight", fe301, "--date", "2026-07-04",
		"--passenger", "Grace,Hopper,female", "--seat", "10B")
	s.Require().Error(err, "10B is taken")

	booking := s.onlyBooking()
	s.Equal(2, booking.NumberOfTickets)
	ticket := booking.Tickets[0]

	pdf := filepath.Join(s.dir, "pass.pdf")
	out, err = s.run("", "checkin", ticket.ID,
		"--passport", "DK1234567", "--dob", "1990-12-10", "--nationality", "British",
		"--expires", "2030-01-01", "--pdf", pdf)
	s.Require().NoError(err)
	s.Contains(out, "Checked in Ada Lovelace on FE301, seat 10A")
	s.Contains(out, "Boarding pass archived as ticket-")
	data, err := os.ReadFile(pdf)
	s.Require().NoError(err)
	s.True(bytes.HasPrefix(data, []byte("%PDF")))

	_, err = s.run("", "checkin", ticket.ID,
		"--passport", "DK1234567", "--dob", "1990-12-10", "--nationality", "British", "--expires", "2030-01-01")
	s.Error(err, "already checked in")

	exportDir := filepath.Join(s.dir, "export")
	out, err = s.run("", "tickets", "export", exportDir)
	s.Require().NoError(err)
	s.Contains(out, "ticket_1.html")
	html, err := os.ReadFile(filepath.Join(exportDir, "ticket_1.html"))
	s.Require().NoError(err)
	s.Contains(string(html), "Barcelona El Prat")
}

func (s *CLISuite) TestCancelFlightAsksBeforeCascade() {
	s.login(stubapi.SeedUserEmail, stubapi.SeedUserPassword)
	fe102 := s.flightID("FE102")
	_, err := s.run("", "bookings", "create", "--flight", fe102, "--date", "2026-03-02",
		"--passenger", "Ada,Lovelace,female", "--seat", "1A")
	s.Require().NoError(err)

	s.login(stubapi.SeedAdminEmail, stubapi.SeedAdminPassword)

	out, err := s.run("n\n", "flights", "cancel", fe102)
	s.ErrorIs(err, apperr.ErrCancelled)
	s.Contains(out, "has 1 booking(s)")
	s.Equal(models.BookingStatusConfirmed, s.onlyBooking().BookingStatus)

	out, err = s.run("y\n", "flights", "cancel", fe102)
	s.Require().NoError(err)
	s.Contains(out, "Flight "+fe102+" cancelled")

	booking := s.onlyBooking()
	s.Equal(models.BookingStatusCancelled, booking.BookingStatus)
	s.Equal(models.FlightStatusCancelled, booking.Tickets[0].FlightStatus)
	f, err := s.store.GetFlight(fe102)
	s.Require().NoError(err)
	s.Equal(models.FlightStatusCancelled, f.Status)
}

func (s *CLISuite) TestAdminCatalogCommands() {
	s.login(stubapi.SeedAdminEmail, stubapi.SeedAdminPassword)

	out, err := s.run("", "airports", "add", "--code", "arn", "--name", "Stockholm Arlanda", "--city", "Stockholm", "--country", "Sweden")
	s.Require().NoError(err)
	s.Contains(out, "Created airport ARN")

	out, err = s.run("", "routes", "add", "--from", "ARN", "--to", "CPH", "--duration", "1h10m")
	s.Require().NoError(err)
	s.Contains(out, "ARN-CPH")

	cph, err := s.store.AirportByCode("CPH")
	s.Require().NoError(err)
	_, err = s.run("", "airports", "delete", cph.ID)
	s.Equal(apperr.KindConflict, apperr.KindOf(err))

	_, err = s.run("", "about", "update", "--mission", "Fly further")
	s.Require().NoError(err)
	s.Equal("Fly further", s.store.Company().Mission)
}

func (s *CLISuite) TestSeatsWatchEndsWhenLoggedOutElsewhere() {
	s.login(stubapi.SeedUserEmail, stubapi.SeedUserPassword)
	fe301 := s.flightID("FE301")

	done := make(chan error, 1)
	go func() {
		_, err := s.run("", "seats", fe301, "2026-07-04", "--watch")
		done <- err
	}()
	s.Eventually(func() bool {
		return s.handler.Hub().Watchers(fe301, "2026-07-04") == 1
	}, 5*time.Second, 20*time.Millisecond)

	// another process logs out by clearing the shared state file
	other, err := storage.OpenFileStore(s.cfg.App.StatePath, zap.NewNop())
	s.Require().NoError(err)
	var runErr error
	s.Eventually(func() bool {
		_ = other.Remove(storage.KeyToken, storage.KeyUserID, storage.KeyUserEmail, storage.KeyIsAdmin, storage.KeyIsLoggedIn)
		select {
		case runErr = <-done:
			return true
		default:
			return false
		}
	}, 10*time.Second, 50*time.Millisecond)

	s.Require().Error(runErr)
	s.ErrorIs(runErr, apperr.ErrAuthRequired)
	s.Contains(runErr.Error(), navigation.PathBookings)
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLISuite))
}
