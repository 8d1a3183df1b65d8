package booking

import (
	"fmt"
	"strings"
	"time"
)

const (
	windowLead    = time.Hour
	windowTrail   = 2 * time.Hour
	fallbackDelay = 24 * time.Hour
	fallbackSpan  = 3 * time.Hour
)

// TimeWindow is the interval searched for open slots.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("%s..%s", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

// layouts accepted for a requested meeting time, most specific first.
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseRequestedTime parses an ISO-8601 timestamp. Values without an offset
// are read in loc.
func ParseRequestedTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized meeting time %q", s)
}

// SearchWindow computes [T-1h, T+2h] around the requested time. When the
// time cannot be parsed it returns [now+24h, now+27h] and ok=false.
func SearchWindow(requested string, now time.Time, loc *time.Location) (w TimeWindow, ok bool) {
	t, err := ParseRequestedTime(requested, loc)
	if err != nil {
		start := now.Add(fallbackDelay)
		return TimeWindow{Start: start, End: start.Add(fallbackSpan)}, false
	}
	return TimeWindow{Start: t.Add(-windowLead), End: t.Add(windowTrail)}, true
}
