package intent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
)

// MeetingIntent is the structured summary the model extracts from a call
// transcript. Optional fields are nil when the model reports nothing.
type MeetingIntent struct {
	Scheduled *bool   `json:"scheduled" validate:"required" jsonschema_description:"Was a meeting successfully scheduled and confirmed by the user?"`
	Time      *string `json:"time" jsonschema_description:"The confirmed date and time of the meeting in 'YYYY-MM-DDTHH:MM:SS' format. Use today's date if only a time is given."`
	Name      *string `json:"name" jsonschema_description:"The user's full name."`
	Email     *string `json:"email" jsonschema_description:"The user's email address."`
}

// Confirmed reports whether the intent can be booked: the model said
// scheduled and time, name and email are all present.
func (m MeetingIntent) Confirmed() bool {
	if m.Scheduled == nil || !*m.Scheduled {
		return false
	}
	return present(m.Time) && present(m.Name) && present(m.Email)
}

// TimeValue returns the trimmed meeting time, or "" when absent.
func (m MeetingIntent) TimeValue() string { return value(m.Time) }

// NameValue returns the trimmed invitee name, or "" when absent.
func (m MeetingIntent) NameValue() string { return value(m.Name) }

// EmailValue returns the trimmed invitee email, or "" when absent.
func (m MeetingIntent) EmailValue() string { return value(m.Email) }

// JSONSchemaExtend marks the optional fields as nullable. Strict structured
// output requires every property to be listed as required.
func (MeetingIntent) JSONSchemaExtend(s *jsonschema.Schema) {
	if s.Properties == nil {
		return
	}
	for _, name := range []string{"time", "name", "email"} {
		p, ok := s.Properties.Get(name)
		if !ok {
			continue
		}
		p.Type = ""
		p.AnyOf = []*jsonschema.Schema{{Type: "string"}, {Type: "null"}}
	}
}

// Schema returns the JSON schema the model output must conform to.
func Schema() *jsonschema.Schema {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return r.Reflect(MeetingIntent{})
}

var (
	validate     = validator.New(validator.WithRequiredStructEnabled())
	requiredKeys = Schema().Required
)

// Parse decodes raw model output into a MeetingIntent. Unknown fields,
// trailing data and keys the schema requires but the output omits are
// rejected rather than defaulted. An explicit null is a stated absence.
func Parse(raw string) (MeetingIntent, error) {
	text := stripFence(raw)

	var m MeetingIntent
	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return MeetingIntent{}, &ExtractionError{Kind: KindDecode, Err: err}
	}
	if dec.More() {
		return MeetingIntent{}, &ExtractionError{Kind: KindDecode, Err: errTrailingData}
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &keys); err != nil {
		return MeetingIntent{}, &ExtractionError{Kind: KindDecode, Err: err}
	}
	var missing []string
	for _, k := range requiredKeys {
		if _, ok := keys[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return MeetingIntent{}, &ExtractionError{Kind: KindInvalid, Err: fmt.Errorf("missing required keys: %s", strings.Join(missing, ", "))}
	}

	if err := validate.Struct(m); err != nil {
		return MeetingIntent{}, &ExtractionError{Kind: KindInvalid, Err: err}
	}
	return m, nil
}

// stripFence removes a ```json fence some OpenAI-compatible backends wrap
// around the object even in JSON mode.
func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func schemaText() string {
	b, err := json.Marshal(Schema())
	if err != nil {
		return "{}"
	}
	var out bytes.Buffer
	if err := json.Indent(&out, b, "", "  "); err != nil {
		return string(b)
	}
	return out.String()
}
