package intent

import (
	"context"
	"net/http"
	"strings"
	"time"

	openaigo "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.1-8b-instant"

	schemaName = "meeting_intent"
)

// Response formats requested from the backend. json_object only asks for
// valid JSON and relies on the schema carried in the system prompt;
// json_schema asks the backend to enforce the schema itself, which not every
// model supports.
const (
	ResponseFormatJSONObject = "json_object"
	ResponseFormatJSONSchema = "json_schema"
)

type Config struct {
	BaseURL        string
	APIKey         string
	Model          string
	ResponseFormat string
}

func (c Config) withDefaults() Config {
	out := c
	if strings.TrimSpace(out.BaseURL) == "" {
		out.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(out.Model) == "" {
		out.Model = DefaultModel
	}
	if strings.TrimSpace(out.ResponseFormat) == "" {
		out.ResponseFormat = ResponseFormatJSONObject
	}
	return out
}

// Extractor turns a transcript into a MeetingIntent through one
// schema-constrained chat completion against an OpenAI-compatible backend.
type Extractor struct {
	client openaigo.Client
	model  string
	format string
}

// NewExtractor builds an Extractor. A nil httpClient uses http.DefaultClient,
// which imposes no timeout of its own.
func NewExtractor(cfg Config, httpClient *http.Client) *Extractor {
	cfg = cfg.withDefaults()
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	client := openaigo.NewClient(
		option.WithBaseURL(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")),
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	)
	return &Extractor{
		client: client,
		model:  strings.TrimSpace(cfg.Model),
		format: strings.TrimSpace(cfg.ResponseFormat),
	}
}

// Extract runs the model over transcript. Any failure, including output that
// does not match the schema, comes back as *ExtractionError.
func (e *Extractor) Extract(ctx context.Context, transcript string, now time.Time) (MeetingIntent, error) {
	params := openaigo.ChatCompletionNewParams{
		Model: openaigo.ChatModel(e.model),
		Messages: []openaigo.ChatCompletionMessageParamUnion{
			openaigo.SystemMessage(SystemPrompt(now)),
			openaigo.UserMessage(HumanPrompt(transcript)),
		},
		Temperature:    openaigo.Float(0),
		ResponseFormat: e.responseFormat(),
	}

	resp, err := e.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return MeetingIntent{}, &ExtractionError{Kind: KindRequest, Err: err}
	}
	if resp == nil || len(resp.Choices) == 0 {
		return MeetingIntent{}, &ExtractionError{Kind: KindEmpty}
	}
	msg := resp.Choices[0].Message
	if strings.TrimSpace(msg.Refusal) != "" {
		return MeetingIntent{}, &ExtractionError{Kind: KindRefusal, Err: refusalError(msg.Refusal)}
	}
	if strings.TrimSpace(msg.Content) == "" {
		return MeetingIntent{}, &ExtractionError{Kind: KindEmpty}
	}
	return Parse(msg.Content)
}

func (e *Extractor) responseFormat() openaigo.ChatCompletionNewParamsResponseFormatUnion {
	if e.format == ResponseFormatJSONSchema {
		return openaigo.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openaigo.ResponseFormatJSONSchemaParam{
				JSONSchema: openaigo.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        schemaName,
					Description: openaigo.String("Meeting details extracted from a call transcript"),
					Schema:      Schema(),
					Strict:      openaigo.Bool(true),
				},
			},
		}
	}
	return openaigo.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONObject: &openaigo.ResponseFormatJSONObjectParam{},
	}
}

type refusalError string

func (r refusalError) Error() string { return "model refused: " + string(r) }
