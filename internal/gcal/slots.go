package gcal

import (
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"

	"callbook-service/internal/booking"
)

type period struct {
	start time.Time
	end   time.Time
}

func (p period) overlaps(start, end time.Time) bool {
	return start.Before(p.end) && p.start.Before(end)
}

func parsePeriod(tp *calendar.TimePeriod) (period, error) {
	start, err := time.Parse(time.RFC3339, tp.Start)
	if err != nil {
		return period{}, fmt.Errorf("invalid busy start %q", tp.Start)
	}
	end, err := time.Parse(time.RFC3339, tp.End)
	if err != nil {
		return period{}, fmt.Errorf("invalid busy end %q", tp.End)
	}
	return period{start: start, end: end}, nil
}

// freeSlots chunks the window into slotLen intervals starting on the half
// hour, dropping those in the past or overlapping any busy period.
func freeSlots(w booking.TimeWindow, busy []period, slotLen time.Duration, now time.Time) []booking.Slot {
	var out []booking.Slot
	first := w.Start.UTC().Truncate(slotStep)
	if first.Before(w.Start) {
		first = first.Add(slotStep)
	}
	for s := first; !s.Add(slotLen).After(w.End); s = s.Add(slotStep) {
		e := s.Add(slotLen)
		if s.Before(now) {
			continue
		}
		free := true
		for _, b := range busy {
			if b.overlaps(s, e) {
				free = false
				break
			}
		}
		if free {
			out = append(out, booking.Slot{Start: s})
		}
	}
	return out
}
