package booking

import (
	"fmt"
	"strings"
	"time"
)

type State string

const (
	StateSearching    State = "searching"
	StateBooking      State = "booking"
	StateCreatingLink State = "creating_link"
	StateScheduled    State = "scheduled"
	StateLinkCreated  State = "link_created"
	StateFailed       State = "failed"
)

type Scheduled struct {
	EventRef     string    `json:"event_uri"`
	Start        time.Time `json:"start_time"`
	End          time.Time `json:"end_time"`
	InviteeEmail string    `json:"invitee_email"`
	InviteeName  string    `json:"invitee_name"`
}

type LinkCreated struct {
	URL     string `json:"scheduling_url"`
	Message string `json:"message"`
}

type Failed struct {
	ErrorDetail string `json:"error"`
}

// Result is the terminal outcome of one booking run. Exactly one of
// Scheduled, Link or Failure is set, matching State.
type Result struct {
	State State   `json:"status"`
	Path  []State `json:"-"`

	Scheduled *Scheduled   `json:"scheduled,omitempty"`
	Link      *LinkCreated `json:"link,omitempty"`
	Failure   *Failed      `json:"failure,omitempty"`
}

func (r Result) String() string {
	path := make([]string, len(r.Path))
	for i, s := range r.Path {
		path[i] = string(s)
	}
	switch r.State {
	case StateScheduled:
		return fmt.Sprintf("scheduled event=%s start=%s path=%s",
			r.Scheduled.EventRef, r.Scheduled.Start.Format(time.RFC3339), strings.Join(path, ">"))
	case StateLinkCreated:
		return fmt.Sprintf("link_created url=%s path=%s", r.Link.URL, strings.Join(path, ">"))
	case StateFailed:
		return fmt.Sprintf("failed error=%q path=%s", r.Failure.ErrorDetail, strings.Join(path, ">"))
	default:
		return fmt.Sprintf("%s path=%s", r.State, strings.Join(path, ">"))
	}
}
