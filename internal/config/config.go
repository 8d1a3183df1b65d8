package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendCalendly = "calendly"
	BackendGoogle   = "google"

	defaultPort = "8004"
)

type LLM struct {
	APIKey  string
	BaseURL string
	Model   string

	// ResponseFormat is "json_object" (default) or "json_schema".
	ResponseFormat string
}

type Calendly struct {
	APIKey       string
	EventTypeURL string
	BaseURL      string
}

type Google struct {
	ClientID       string
	ClientSecret   string
	RefreshToken   string
	RedirectURL    string
	CalendarID     string
	EventDuration  time.Duration
	BookingPageURL string
}

// Config is built once at startup and handed to the components that need it.
type Config struct {
	Port         string
	AllowOrigins []string
	Location     *time.Location

	LLM      LLM
	Backend  string
	Calendly Calendly
	Google   Google
}

// Load reads .env.local and .env when present, then builds the Config from
// the process environment. Variables already set are never overridden.
func Load() (*Config, error) {
	for _, p := range []string{".env.local", ".env"} {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("load %s: %w", p, err)
		}
		log.Printf("[config] loaded env from %s", p)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv. Every missing required variable is
// reported in one error.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key string) string { return strings.TrimSpace(getenv(key)) }

	cfg := &Config{
		Port:    get("PORT"),
		Backend: strings.ToLower(get("SCHEDULER_BACKEND")),
		LLM: LLM{
			APIKey:  firstNonEmpty(get("LLM_API_KEY"), get("GROQ_API_KEY")),
			BaseURL: get("LLM_BASE_URL"),
			Model:   get("LLM_MODEL"),

			ResponseFormat: strings.ToLower(get("LLM_RESPONSE_FORMAT")),
		},
		Calendly: Calendly{
			APIKey:       get("CALENDLY_API_KEY"),
			EventTypeURL: get("CALENDLY_EVENT_TYPE_URL"),
			BaseURL:      get("CALENDLY_BASE_URL"),
		},
		Google: Google{
			ClientID:       get("GOOGLE_CLIENT_ID"),
			ClientSecret:   get("GOOGLE_CLIENT_SECRET"),
			RefreshToken:   get("GOOGLE_REFRESH_TOKEN"),
			RedirectURL:    get("GOOGLE_REDIRECT_URL"),
			CalendarID:     get("GOOGLE_CALENDAR_ID"),
			BookingPageURL: get("GOOGLE_BOOKING_PAGE_URL"),
		},
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendCalendly
	}

	cfg.AllowOrigins = splitList(get("CORS_ALLOW_ORIGINS"))
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = []string{"*"}
	}

	switch cfg.LLM.ResponseFormat {
	case "":
		cfg.LLM.ResponseFormat = "json_object"
	case "json_object", "json_schema":
	default:
		return nil, fmt.Errorf("invalid LLM_RESPONSE_FORMAT %q (want json_object or json_schema)", cfg.LLM.ResponseFormat)
	}

	tz := get("DEFAULT_TIMEZONE")
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_TIMEZONE %q: %w", tz, err)
	}
	cfg.Location = loc

	if v := get("GOOGLE_EVENT_DURATION_MINUTES"); v != "" {
		mins, err := strconv.Atoi(v)
		if err != nil || mins <= 0 {
			return nil, fmt.Errorf("invalid GOOGLE_EVENT_DURATION_MINUTES %q", v)
		}
		cfg.Google.EventDuration = time.Duration(mins) * time.Minute
	}

	var missing []string
	if cfg.LLM.APIKey == "" {
		missing = append(missing, "LLM_API_KEY (or GROQ_API_KEY)")
	}
	switch cfg.Backend {
	case BackendCalendly:
		if cfg.Calendly.APIKey == "" {
			missing = append(missing, "CALENDLY_API_KEY")
		}
		if cfg.Calendly.EventTypeURL == "" {
			missing = append(missing, "CALENDLY_EVENT_TYPE_URL")
		}
	case BackendGoogle:
		if cfg.Google.ClientID == "" {
			missing = append(missing, "GOOGLE_CLIENT_ID")
		}
		if cfg.Google.ClientSecret == "" {
			missing = append(missing, "GOOGLE_CLIENT_SECRET")
		}
		if cfg.Google.RefreshToken == "" && cfg.Google.RedirectURL == "" {
			missing = append(missing, "GOOGLE_REFRESH_TOKEN (or GOOGLE_REDIRECT_URL to obtain one)")
		}
	default:
		return nil, fmt.Errorf("unknown SCHEDULER_BACKEND %q", cfg.Backend)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
