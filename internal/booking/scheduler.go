package booking

import (
	"context"
	"time"
)

// Slot is a bookable start time reported by the scheduling service.
type Slot struct {
	Start         time.Time
	SchedulingURL string
}

type Invitee struct {
	Name  string
	Email string
}

// Event is a booked meeting as confirmed by the scheduling service.
type Event struct {
	Ref   string
	Start time.Time
	End   time.Time
}

// Scheduler is the external scheduling service, bound to one event type.
type Scheduler interface {
	// AvailableSlots returns open slots in w in service order. An error
	// means the lookup itself failed, not that the window is empty.
	AvailableSlots(ctx context.Context, w TimeWindow) ([]Slot, error)
	BookSlot(ctx context.Context, slot Slot, invitee Invitee) (Event, error)
	// CreateSchedulingLink creates a single-use booking link.
	CreateSchedulingLink(ctx context.Context) (string, error)
}
