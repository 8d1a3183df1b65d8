package intent

import (
	"fmt"
	"time"
)

const systemTemplate = "You are an expert log analyst. Your job is to read a call transcript and determine if a meeting was successfully scheduled. " +
	"The user MUST have confirmed a specific time and provided at least an email. " +
	"Today's date is %s. " +
	"If they say 'tomorrow at 2pm', calculate that date. " +
	"Respond ONLY with the required JSON object." +
	"\n\n%s"

const humanTemplate = "Here is the call transcript:\n%s\n\n" +
	"Please analyze the transcript and extract the meeting details. " +
	"If no meeting was confirmed, or if name/email is missing, set 'scheduled' to false."

// SystemPrompt renders the policy instruction. now is the moment of the
// call, so relative expressions resolve against the request date.
func SystemPrompt(now time.Time) string {
	return fmt.Sprintf(systemTemplate, formatToday(now), formatInstructions())
}

// HumanPrompt wraps the normalized transcript.
func HumanPrompt(transcript string) string {
	return fmt.Sprintf(humanTemplate, transcript)
}

func formatToday(now time.Time) string {
	return fmt.Sprintf("%s (%s)", now.Format("2006-01-02T15:04:05"), now.Weekday())
}

func formatInstructions() string {
	return "The output must be a single JSON object that conforms to the JSON schema below. " +
		"Use null for any value that was not stated.\n```json\n" + schemaText() + "\n```"
}
