package app

import (
	"context"
	"time"

	"golang.org/x/oauth2"

	"callbook-service/internal/booking"
	"callbook-service/internal/intent"
)

type Extractor interface {
	Extract(ctx context.Context, transcript string, now time.Time) (intent.MeetingIntent, error)
}

type Booker interface {
	Run(ctx context.Context, req booking.Request) booking.Result
}

type App struct {
	Extractor Extractor
	Booker    Booker
	Tasks     *Dispatcher
	Now       func() time.Time

	// OAuth enables the Google consent helper routes when set.
	OAuth  *oauth2.Config
	states oauthStates
}

// Outcome is what the caller learns synchronously about a call.
type Outcome struct {
	Status string
	Intent intent.MeetingIntent
	TaskID string
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// Analyze normalizes the transcript, extracts the meeting intent and, when
// the intent is confirmed, starts booking in the background. It returns
// without waiting for the booking.
func (a *App) Analyze(ctx context.Context, call CallLog) (Outcome, error) {
	var turns []Turn
	if call.Logs != nil {
		turns = call.Logs.Transcript
	}
	text, err := NormalizeTranscript(turns)
	if err != nil {
		return Outcome{}, err
	}

	mi, err := a.Extractor.Extract(ctx, text, a.now())
	if err != nil {
		return Outcome{}, err
	}
	if !mi.Confirmed() {
		return Outcome{Status: StatusNoMeeting, Intent: mi}, nil
	}

	req := booking.Request{
		CallID: call.CallID,
		Time:   mi.TimeValue(),
		Name:   mi.NameValue(),
		Email:  mi.EmailValue(),
	}
	id := a.Tasks.Go(call.CallID, func(ctx context.Context) booking.Result {
		return a.Booker.Run(ctx, req)
	})
	return Outcome{Status: StatusBookingStarted, Intent: mi, TaskID: id}, nil
}
