package booking

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Request carries a confirmed intent into the booking run.
type Request struct {
	CallID string
	Time   string
	Name   string
	Email  string
}

// Orchestrator searches for a slot near the requested time, books the first
// one found, and otherwise falls back to a single-use scheduling link.
//
// Every external call is attempted once. Running it twice for the same
// request may book twice.
type Orchestrator struct {
	Scheduler Scheduler
	Location  *time.Location
	Now       func() time.Time
	Logger    *log.Logger
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Orchestrator) logf(format string, args ...any) {
	if o.Logger != nil {
		o.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// Run drives SEARCHING to one of SCHEDULED, LINK_CREATED or FAILED.
func (o *Orchestrator) Run(ctx context.Context, req Request) Result {
	res := Result{}
	invitee := Invitee{Name: req.Name, Email: req.Email}

	res.Path = append(res.Path, StateSearching)
	o.logf("[booking] call=%s booking meeting for %s around %s", req.CallID, req.Email, req.Time)
	slots := o.search(ctx, req)

	if len(slots) == 0 {
		res.Path = append(res.Path, StateCreatingLink)
		url, err := o.Scheduler.CreateSchedulingLink(ctx)
		if err != nil {
			o.logf("[booking] call=%s scheduling link creation failed: %v", req.CallID, err)
			return o.fail(res, err)
		}
		o.logf("[booking] call=%s created scheduling link: %s", req.CallID, url)
		res.State = StateLinkCreated
		res.Path = append(res.Path, StateLinkCreated)
		res.Link = &LinkCreated{
			URL:     url,
			Message: fmt.Sprintf("Please share this link with %s (%s) to complete booking.", invitee.Name, invitee.Email),
		}
		return res
	}

	res.Path = append(res.Path, StateBooking)
	slot := slots[0]
	o.logf("[booking] call=%s booking slot at %s", req.CallID, slot.Start.Format(time.RFC3339))
	ev, err := o.Scheduler.BookSlot(ctx, slot, invitee)
	if err != nil {
		o.logf("[booking] call=%s booking slot failed: %v", req.CallID, err)
		return o.fail(res, err)
	}
	o.logf("[booking] call=%s meeting scheduled: event=%s", req.CallID, ev.Ref)
	res.State = StateScheduled
	res.Path = append(res.Path, StateScheduled)
	res.Scheduled = &Scheduled{
		EventRef:     ev.Ref,
		Start:        ev.Start,
		End:          ev.End,
		InviteeEmail: invitee.Email,
		InviteeName:  invitee.Name,
	}
	return res
}

// search never fails: a lookup error is logged and reported as no slots.
func (o *Orchestrator) search(ctx context.Context, req Request) []Slot {
	w, ok := SearchWindow(req.Time, o.now(), o.Location)
	if !ok {
		o.logf("[booking] call=%s unparseable meeting time %q, searching fallback window %s", req.CallID, req.Time, w)
	} else {
		o.logf("[booking] call=%s searching for available slots in %s", req.CallID, w)
	}

	slots, err := o.Scheduler.AvailableSlots(ctx, w)
	if err != nil {
		o.logf("[booking] call=%s availability lookup failed, treating as no slots: %v", req.CallID, err)
		return nil
	}
	if len(slots) == 0 {
		o.logf("[booking] call=%s no available slots in %s, creating a scheduling link instead", req.CallID, w)
	}
	return slots
}

func (o *Orchestrator) fail(res Result, err error) Result {
	res.State = StateFailed
	res.Path = append(res.Path, StateFailed)
	res.Failure = &Failed{ErrorDetail: err.Error()}
	return res
}
