package gcal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"callbook-service/internal/booking"
)

const (
	DefaultCalendarID = "primary"
	DefaultDuration   = 30 * time.Minute
	slotStep          = 30 * time.Minute
)

// ErrNoBookingPage is returned by CreateSchedulingLink when no booking page
// is configured. The Calendar API cannot mint scheduling links itself.
var ErrNoBookingPage = errors.New("google calendar: no booking page configured")

// OAuthConfig builds the consent flow config for calendar access.
func OAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{calendar.CalendarScope},
		Endpoint:     google.Endpoint,
	}
}

type Config struct {
	ClientID       string
	ClientSecret   string
	RefreshToken   string
	CalendarID     string
	Duration       time.Duration
	BookingPageURL string
}

// Client books meetings directly on a Google calendar. Slots are fixed
// length, aligned to the half hour and free according to freebusy.
type Client struct {
	Service        *calendar.Service
	CalendarID     string
	Duration       time.Duration
	BookingPageURL string
	Now            func() time.Time
}

// NewClient builds a Client authorized by a stored refresh token.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	oc := OAuthConfig(cfg.ClientID, cfg.ClientSecret, "")
	httpClient := oc.Client(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	srv, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return NewClientWithService(srv, cfg), nil
}

func NewClientWithService(srv *calendar.Service, cfg Config) *Client {
	c := &Client{
		Service:        srv,
		CalendarID:     cfg.CalendarID,
		Duration:       cfg.Duration,
		BookingPageURL: cfg.BookingPageURL,
	}
	if c.CalendarID == "" {
		c.CalendarID = DefaultCalendarID
	}
	if c.Duration <= 0 {
		c.Duration = DefaultDuration
	}
	return c
}

func (c *Client) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// AvailableSlots queries freebusy for the window and returns every aligned
// start whose full duration avoids busy periods, earliest first.
func (c *Client) AvailableSlots(ctx context.Context, w booking.TimeWindow) ([]booking.Slot, error) {
	req := &calendar.FreeBusyRequest{
		TimeMin: w.Start.UTC().Format(time.RFC3339),
		TimeMax: w.End.UTC().Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: c.CalendarID}},
	}
	resp, err := c.Service.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("google freebusy: %w", err)
	}

	cal, ok := resp.Calendars[c.CalendarID]
	if !ok {
		return nil, fmt.Errorf("google freebusy: calendar %q missing from response", c.CalendarID)
	}
	if len(cal.Errors) > 0 {
		return nil, fmt.Errorf("google freebusy: %s: %s", cal.Errors[0].Domain, cal.Errors[0].Reason)
	}

	busy := make([]period, 0, len(cal.Busy))
	for _, b := range cal.Busy {
		p, err := parsePeriod(b)
		if err != nil {
			return nil, fmt.Errorf("google freebusy: %w", err)
		}
		busy = append(busy, p)
	}
	return freeSlots(w, busy, c.Duration, c.now()), nil
}

// BookSlot inserts an event at slot.Start and invites the attendee.
func (c *Client) BookSlot(ctx context.Context, slot booking.Slot, invitee booking.Invitee) (booking.Event, error) {
	start := slot.Start.UTC()
	end := start.Add(c.Duration)
	ev := &calendar.Event{
		Summary: fmt.Sprintf("Meeting with %s", invitee.Name),
		Start:   &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:     &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)},
		Attendees: []*calendar.EventAttendee{
			{Email: invitee.Email, DisplayName: invitee.Name},
		},
	}
	created, err := c.Service.Events.Insert(c.CalendarID, ev).SendUpdates("all").Context(ctx).Do()
	if err != nil {
		return booking.Event{}, fmt.Errorf("google insert event: %w", err)
	}

	out := booking.Event{Ref: created.HtmlLink, Start: start, End: end}
	if out.Ref == "" {
		out.Ref = created.Id
	}
	if created.Start != nil {
		if t, err := time.Parse(time.RFC3339, created.Start.DateTime); err == nil {
			out.Start = t
		}
	}
	if created.End != nil {
		if t, err := time.Parse(time.RFC3339, created.End.DateTime); err == nil {
			out.End = t
		}
	}
	return out, nil
}

// CreateSchedulingLink returns the configured booking page.
func (c *Client) CreateSchedulingLink(ctx context.Context) (string, error) {
	if c.BookingPageURL == "" {
		return "", ErrNoBookingPage
	}
	return c.BookingPageURL, nil
}

var _ booking.Scheduler = (*Client)(nil)
