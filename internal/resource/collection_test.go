package resource

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/flyeazy/flyeazy-client/internal/apperr"
	"github.com/flyeazy/flyeazy-client/internal/gateway/mocks"
	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAuth struct {
	sess *models.Session
	err  error
}

func (f fakeAuth) GetSessionOrFail() (*models.Session, error) {
	return f.sess, f.err
}

var (
	admin = fakeAuth{sess: &models.Session{UserID: "a1", IsAdmin: true}}
	user  = fakeAuth{sess: &models.Session{UserID: "u1"}}
)

func flightSpec() Spec[models.Flight] {
	return Spec[models.Flight]{
		Name:      "flight",
		ListPath:  "/flights",
		AdminOnly: true,
		ID:        func(f *models.Flight) string { return f.ID },
		SetID:     func(f *models.Flight, id string) { f.ID = id },
	}
}

func newFlights(api *mocks.MockRequester, auth Authorizer) *Collection[models.Flight] {
	return New(flightSpec(), api, auth, zap.NewNop())
}

func TestFetchAll(t *testing.T) {
	api := new(mocks.MockRequester)
	c := newFlights(api, admin)
	flights := []models.Flight{{ID: "F1", FlightNumber: "FE100"}, {ID: "F2", FlightNumber: "FE200"}}

	api.On("Request", mock.Anything, "/flights", http.MethodGet, nil, false).
		Return(mocks.JSON(flights), nil).Twice()

	require.NoError(t, c.FetchAll(context.Background()))
	first := c.Items()
	require.NoError(t, c.FetchAll(context.Background()))

	assert.Equal(t, first, c.Items(), "fetching twice must not duplicate entries")
	assert.Len(t, c.Items(), 2)
	assert.Empty(t, c.Err())
	assert.False(t, c.Loading())
}

func TestFetchAll_FailureEmptiesList(t *testing.T) {
	api := new(mocks.MockRequester)
	c := newFlights(api, admin)
	c.Replace([]models.Flight{{ID: "stale"}})

	api.On("Request", mock.Anything, "/flights", http.MethodGet, nil, false).
		Return(nil, apperr.HTTP("GET /flights", http.StatusInternalServerError, "No data available"))

	err := c.FetchAll(context.Background())
	require.Error(t, err)
	assert.Empty(t, c.Items())
	assert.Equal(t, "No data available", c.Err())
	assert.False(t, c.Loading())
}

func TestFetchOne(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		api := new(mocks.MockRequester)
		c := newFlights(api, admin)
		api.On("Request", mock.Anything, "/flights/F1", http.MethodGet, nil, false).
			Return(mocks.JSON(models.Flight{ID: "F1"}), nil)

		f, err := c.FetchOne(context.Background(), "F1")
		require.NoError(t, err)
		assert.Equal(t, "F1", f.ID)
	})

	t.Run("404 yields nil", func(t *testing.T) {
		api := new(mocks.MockRequester)
		c := newFlights(api, admin)
		api.On("Request", mock.Anything, "/flights/gone", http.MethodGet, nil, false).
			Return(nil, apperr.HTTP("GET /flights/gone", http.StatusNotFound, "Flight not found"))

		f, err := c.FetchOne(context.Background(), "gone")
		assert.NoError(t, err)
		assert.Nil(t, f)
	})

	t.Run("server error is returned", func(t *testing.T) {
		api := new(mocks.MockRequester)
		c := newFlights(api, admin)
		api.On("Request", mock.Anything, "/flights/F1", http.MethodGet, nil, false).
			Return(nil, apperr.HTTP("GET /flights/F1", http.StatusBadGateway, "upstream down"))

		f, err := c.FetchOne(context.Background(), "F1")
		assert.Error(t, err)
		assert.Nil(t, f)
		assert.Equal(t, "upstream down", c.Err())
	})
}

func TestCreate_Gating(t *testing.T) {
	input := models.NewFlight{
		FlightNumber:  "FE100",
		DepartureDay:  "Monday",
		DepartureTime: "08:00",
		ArrivalTime:   "10:00",
		RouteID:       "R1",
		TotalSeats:    192,
		BasePrice:     120,
	}

	tests := []struct {
		name string
		auth fakeAuth
		kind apperr.Kind
	}{
		{name: "non admin", auth: user, kind: apperr.KindAccessDenied},
		{name: "no session", auth: fakeAuth{err: apperr.ErrAuthRequired}, kind: apperr.KindAuthRequired},
		{name: "expired session", auth: fakeAuth{err: apperr.ErrSessionExpired}, kind: apperr.KindSessionExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(mocks.MockRequester)
			c := newFlights(api, tt.auth)

			_, err := c.Create(context.Background(), input)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
			assert.NotEmpty(t, c.Err())
			api.AssertNotCalled(t, "Request", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCreate(t *testing.T) {
	api := new(mocks.MockRequester)
	c := newFlights(api, admin)
	input := models.NewFlight{
		FlightNumber:  "FE100",
		DepartureDay:  "Monday",
		DepartureTime: "08:00",
		ArrivalTime:   "10:00",
		RouteID:       "R1",
		TotalSeats:    192,
		BasePrice:     120,
	}
	api.On("Request", mock.Anything, "/flights", http.MethodPost, input, true).
		Return(mocks.JSON(models.Flight{ID: "F9", FlightNumber: "FE100"}), nil)

	f, err := c.Create(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "F9", f.ID)
	assert.Len(t, c.Items(), 1)
}

func TestCreate_PlainTextRefetchesList(t *testing.T) {
	api := new(mocks.MockRequester)
	c := newFlights(api, admin)
	input := models.NewFlight{
		FlightNumber:  "FE100",
		DepartureDay:  "Monday",
		DepartureTime: "08:00",
		ArrivalTime:   "10:00",
		RouteID:       "R1",
		TotalSeats:    192,
		BasePrice:     120,
	}
	api.On("Request", mock.Anything, "/flights", http.MethodPost, input, true).
		Return(mocks.Text("Flight created successfully"), nil)
	api.On("Request", mock.Anything, "/flights", http.MethodGet, nil, false).
		Return(mocks.JSON([]models.Flight{{ID: "F9", FlightNumber: "FE100"}}), nil)

	f, err := c.Create(context.Background(), input)
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.Empty(t, c.Err())
	got, ok := c.Find("F9")
	require.True(t, ok)
	assert.Equal(t, "FE100", got.FlightNumber)
	assert.False(t, c.Loading())
}

func TestCreate_InvalidInput(t *testing.T) {
	api := new(mocks.MockRequester)
	c := newFlights(api, admin)

	_, err := c.Create(context.Background(), models.NewFlight{FlightNumber: "FE100", TotalSeats: 500})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	api.AssertNotCalled(t, "Request", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_MergesAndKeepsID(t *testing.T) {
	api := new(mocks.MockRequester)
	c := newFlights(api, admin)
	c.Replace([]models.Flight{{ID: "F1", Status: models.FlightStatusScheduled}, {ID: "F2"}})

	patch := map[string]any{"status": "Delayed"}
	api.On("Request", mock.Anything, "/flights/F1", http.MethodPut, patch, true).
		Return(mocks.JSON(map[string]any{"status": "Delayed"}), nil)

	f, err := c.Update(context.Background(), "F1", patch)
	require.NoError(t, err)
	assert.Equal(t, "F1", f.ID)

	got, ok := c.Find("F1")
	require.True(t, ok)
	assert.Equal(t, models.FlightStatusDelayed, got.Status)
	assert.Len(t, c.Items(), 2)
}

func TestUpdate_PlainTextLeavesListUntouched(t *testing.T) {
	api := new(mocks.MockRequester)
	c := newFlights(api, admin)
	c.Replace([]models.Flight{{ID: "F1", Status: models.FlightStatusScheduled}})

	api.On("Request", mock.Anything, "/flights/F1", http.MethodPut, mock.Anything, true).
		Return(mocks.Text("Flight updated successfully"), nil)

	f, err := c.Update(context.Background(), "F1", map[string]any{"status": "Delayed"})
	require.NoError(t, err)
	assert.Nil(t, f)
	got, _ := c.Find("F1")
	assert.Equal(t, models.FlightStatusScheduled, got.Status)
}

func TestDelete(t *testing.T) {
	t.Run("removes after confirmation", func(t *testing.T) {
		api := new(mocks.MockRequester)
		c := newFlights(api, admin)
		c.Replace([]models.Flight{{ID: "F1"}, {ID: "F2"}})
		api.On("Request", mock.Anything, "/flights/F1", http.MethodDelete, nil, true).
			Return(mocks.Text("deleted"), nil)

		require.NoError(t, c.Delete(context.Background(), "F1"))
		assert.Equal(t, []models.Flight{{ID: "F2"}}, c.Items())
	})

	t.Run("keeps entry on failure", func(t *testing.T) {
		api := new(mocks.MockRequester)
		c := newFlights(api, admin)
		c.Replace([]models.Flight{{ID: "F1"}})
		api.On("Request", mock.Anything, "/flights/F1", http.MethodDelete, nil, true).
			Return(nil, errors.New("connection reset"))

		require.Error(t, c.Delete(context.Background(), "F1"))
		assert.Len(t, c.Items(), 1)
		assert.Equal(t, "connection reset", c.Err())
	})

	t.Run("missing id", func(t *testing.T) {
		api := new(mocks.MockRequester)
		c := newFlights(api, admin)
		err := c.Delete(context.Background(), " ")
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})
}

func TestLoading_ResetAfterOperation(t *testing.T) {
	api := new(mocks.MockRequester)
	c := newFlights(api, user)

	_, _ = c.Update(context.Background(), "F1", nil)
	assert.False(t, c.Loading())

	done := c.Begin()
	assert.True(t, c.Loading())
	done()
	assert.False(t, c.Loading())
}
