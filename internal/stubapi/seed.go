package stubapi

import (
	"fmt"

	"github.com/flyeazy/flyeazy-client/internal/models"
)

// Demo credentials created by Seed
const (
	SeedAdminEmail    = "admin@flyeazy.io"
	SeedAdminPassword = "admin123"
	SeedUserEmail     = "user@flyeazy.io"
	SeedUserPassword  = "user1234"
)

// Seed fills the store with two accounts, a handful of airports, routes and
// flights, and the company profile.
func Seed(s *Store) error {
	if _, err := s.CreateUser(models.RegisterRequest{
		Name: "FlyEazy Admin", Email: SeedAdminEmail, Phone: "+4512345678",
		Password: SeedAdminPassword, DateOfBirth: "1985-01-01", IsAdmin: true,
	}); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if _, err := s.CreateUser(models.RegisterRequest{
		Name: "Demo User", Email: SeedUserEmail, Phone: "+4587654321",
		Password: SeedUserPassword, DateOfBirth: "1992-06-15",
	}); err != nil {
		return fmt.Errorf("seed user: %w", err)
	}

	for _, a := range []models.Airport{
		{Code: "CPH", Name: "Copenhagen Airport", City: "Copenhagen", Country: "Denmark"},
		{Code: "LHR", Name: "Heathrow Airport", City: "London", Country: "United Kingdom"},
		{Code: "OSL", Name: "Oslo Gardermoen", City: "Oslo", Country: "Norway"},
		{Code: "BCN", Name: "Barcelona El Prat", City: "Barcelona", Country: "Spain"},
	} {
		s.CreateAirport(a)
	}

	flights := []struct {
		from, to, duration, number, day, dep, arr string
		price                                     float64
	}{
		{"CPH", "LHR", "2h", "FE101", "Monday", "08:00", "09:00", 129},
		{"LHR", "CPH", "2h", "FE102", "Monday", "11:00", "14:00", 139},
		{"CPH", "OSL", "1h10m", "FE201", "Friday", "17:30", "18:40", 89},
		{"CPH", "BCN", "3h05m", "FE301", "Saturday", "06:45", "09:50", 199},
	}
	for _, f := range flights {
		r, err := s.CreateRoute(models.NewRoute{DepartureAirportID: f.from, ArrivalAirportID: f.to, Duration: f.duration})
		if err != nil {
			return fmt.Errorf("seed route %s-%s: %w", f.from, f.to, err)
		}
		if _, err := s.CreateFlight(models.NewFlight{
			FlightNumber:    f.number,
			DepartureDay:    f.day,
			DepartureTime:   f.dep,
			ArrivalTime:     f.arr,
			OperatingPeriod: models.OperatingPeriod{StartDate: "2026-01-01", EndDate: "2027-12-31"},
			RouteID:         r.ID,
			TotalSeats:      192,
			BasePrice:       f.price,
		}); err != nil {
			return fmt.Errorf("seed flight %s: %w", f.number, err)
		}
	}

	s.UpdateCompany(models.Company{
		Name:         "FlyEazy",
		Description:  "Short-haul flights across Europe, booked in minutes.",
		Mission:      "Make flying easy.",
		Vision:       "Every city one click away.",
		ContactEmail: "hello@flyeazy.io",
		Phone:        "+45 70 70 70 70",
		Address:      "Lufthavnsboulevarden 6, 2770 Kastrup",
	})
	return nil
}
