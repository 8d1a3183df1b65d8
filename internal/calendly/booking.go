package calendly

import (
	"context"
	"errors"
	"net/http"
	"time"

	"callbook-service/internal/booking"
)

var errNoBookingURL = errors.New("calendly scheduling link: response has no booking_url")

type eventRef struct {
	EventType string `json:"event_type"`
	StartTime string `json:"start_time"`
}

type inviteeRef struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type scheduleEventReq struct {
	Event   eventRef   `json:"event"`
	Invitee inviteeRef `json:"invitee"`
}

type scheduledEvent struct {
	URI       string `json:"uri"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// BookSlot creates a scheduled event at slot.Start for the invitee.
func (c *Client) BookSlot(ctx context.Context, slot booking.Slot, invitee booking.Invitee) (booking.Event, error) {
	payload := scheduleEventReq{
		Event:   eventRef{EventType: c.EventType, StartTime: slot.Start.UTC().Format(time.RFC3339Nano)},
		Invitee: inviteeRef{Email: invitee.Email, Name: invitee.Name},
	}
	var resp struct {
		Resource scheduledEvent `json:"resource"`
	}
	if err := c.do(ctx, "schedule event", http.MethodPost, "/scheduled_events", nil, payload, &resp); err != nil {
		return booking.Event{}, err
	}

	ev := booking.Event{Ref: resp.Resource.URI}
	// Fall back to the requested slot when the response omits times.
	ev.Start = parseOr(resp.Resource.StartTime, slot.Start)
	ev.End = parseOr(resp.Resource.EndTime, time.Time{})
	return ev, nil
}

type schedulingLinkReq struct {
	MaxEventCount int    `json:"max_event_count"`
	Owner         string `json:"owner"`
	OwnerType     string `json:"owner_type"`
}

// CreateSchedulingLink creates a link that accepts exactly one booking of
// the event type.
func (c *Client) CreateSchedulingLink(ctx context.Context) (string, error) {
	payload := schedulingLinkReq{MaxEventCount: 1, Owner: c.EventType, OwnerType: "EventType"}
	var resp struct {
		Resource struct {
			BookingURL string `json:"booking_url"`
		} `json:"resource"`
	}
	if err := c.do(ctx, "scheduling link", http.MethodPost, "/scheduling_links", nil, payload, &resp); err != nil {
		return "", err
	}
	if resp.Resource.BookingURL == "" {
		return "", errNoBookingURL
	}
	return resp.Resource.BookingURL, nil
}

func parseOr(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fallback
	}
	return t
}

var _ booking.Scheduler = (*Client)(nil)
