package app

import "callbook-service/internal/intent"

// Turn is one utterance in the call. Transcript is nil when the turn
// carried no text.
type Turn struct {
	Role       string  `json:"role"`
	Transcript *string `json:"transcript"`
}

type CallLogs struct {
	Transcript []Turn `json:"transcript"`
}

// CallLog is the body of POST /call-logs.
type CallLog struct {
	CallID    string    `json:"callId" binding:"required"`
	Logs      *CallLogs `json:"logs" binding:"required"`
	Timestamp string    `json:"timestamp" binding:"required"`
}

const (
	StatusBookingStarted = "meeting_booking_started"
	StatusNoMeeting      = "no_meeting_detected"
	StatusError          = "error"
)

const (
	msgNoTranscript  = "No transcript to analyze."
	msgAnalyzeFailed = "Failed to analyze call logs."
)

type analysisResponse struct {
	Status  string                `json:"status"`
	Details *intent.MeetingIntent `json:"details,omitempty"`
	Message string                `json:"message,omitempty"`
}
