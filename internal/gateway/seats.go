package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/flyeazy/flyeazy-client/internal/apperr"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// SeatsUpdatedMessage is the type of every message on the live seat feed
const SeatsUpdatedMessage = "seats_updated"

// SeatsUpdate is one message of the live seat feed of a flight date
type SeatsUpdate struct {
	Type        string   `json:"type"`
	FlightID    string   `json:"flightId"`
	Date        string   `json:"date"`
	BookedSeats []string `json:"bookedSeats"`
	Timestamp   int64    `json:"timestamp"`
}

// SeatWatcher follows the booked seats of a flight date as they change
type SeatWatcher interface {
	WatchSeats(ctx context.Context, flightID, date string, fn func(SeatsUpdate)) error
}

// seatsURL turns the http(s) base URL into the websocket feed address
func (c *Client) seatsURL(flightID, date string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/seats/" + url.PathEscape(flightID) + "/" + url.PathEscape(date)
	return u.String(), nil
}

// WatchSeats calls fn with the current booked seats and again after every
// change until ctx is done. It returns nil when ctx ends the watch.
func (c *Client) WatchSeats(ctx context.Context, flightID, date string, fn func(SeatsUpdate)) error {
	addr, err := c.seatsURL(flightID, date)
	if err != nil {
		return err
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
	if err != nil {
		if resp != nil {
			return apperr.HTTP("watch seats", resp.StatusCode, resp.Status)
		}
		return apperr.Wrap(apperr.KindNetwork, "watch seats", err)
	}
	defer conn.Close()
	c.log.Debug("Watching seats", zap.String("flightId", flightID), zap.String("date", date))

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			conn.Close()
		case <-stop:
		}
	}()

	for {
		var msg SeatsUpdate
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return apperr.Wrap(apperr.KindNetwork, "watch seats", err)
		}
		if msg.Type != SeatsUpdatedMessage {
			continue
		}
		fn(msg)
	}
}
