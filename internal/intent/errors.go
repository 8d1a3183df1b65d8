package intent

import (
	"errors"
	"fmt"
)

// Kind classifies why extraction failed.
type Kind string

const (
	KindRequest Kind = "request"
	KindEmpty   Kind = "empty_response"
	KindRefusal Kind = "refusal"
	KindDecode  Kind = "decode"
	KindInvalid Kind = "invalid"
)

var errTrailingData = errors.New("unexpected data after JSON object")

// ExtractionError is returned when the model call fails or its output does
// not conform to the MeetingIntent schema.
type ExtractionError struct {
	Kind Kind
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("intent extraction failed (%s)", e.Kind)
	}
	return fmt.Sprintf("intent extraction failed (%s): %v", e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// IsExtractionError reports whether err carries an ExtractionError.
func IsExtractionError(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee)
}
