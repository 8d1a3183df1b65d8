package calendly

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"callbook-service/internal/booking"
)

// timeLayout is the UTC timestamp form Calendly expects in query strings.
const timeLayout = "2006-01-02T15:04:05.000000Z"

type availableTime struct {
	Status            string `json:"status"`
	InviteesRemaining int    `json:"invitees_remaining"`
	StartTime         string `json:"start_time"`
	SchedulingURL     string `json:"scheduling_url"`
}

// AvailableSlots lists open start times for the event type within w.
func (c *Client) AvailableSlots(ctx context.Context, w booking.TimeWindow) ([]booking.Slot, error) {
	q := url.Values{}
	q.Set("event_type", c.EventType)
	q.Set("start_time", w.Start.UTC().Format(timeLayout))
	q.Set("end_time", w.End.UTC().Format(timeLayout))

	var resp struct {
		Collection []availableTime `json:"collection"`
	}
	if err := c.do(ctx, "available times", http.MethodGet, "/event_type_available_times", q, nil, &resp); err != nil {
		return nil, err
	}

	slots := make([]booking.Slot, 0, len(resp.Collection))
	for _, at := range resp.Collection {
		start, err := time.Parse(time.RFC3339Nano, at.StartTime)
		if err != nil {
			return nil, fmt.Errorf("calendly available times: bad start_time %q: %w", at.StartTime, err)
		}
		slots = append(slots, booking.Slot{Start: start, SchedulingURL: at.SchedulingURL})
	}
	return slots, nil
}
