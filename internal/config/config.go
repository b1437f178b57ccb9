package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all environment configuration values for the coordinator.
// Every timing constant of the session lifecycle lives here so that tests
// and deployments can shrink or stretch the clock without code changes.
type Config struct {
	// Env selects the logging profile: local, dev or prod
	Env string `envconfig:"APP_ENV" default:"local"`

	// Port is the port the HTTP server listens on
	Port string `envconfig:"PORT" default:"8080"`

	// CORSOrigins is the list of allowed browser origins
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`

	// PresenceTTL is how long a participant may go without a heartbeat
	// before being evicted from the presence registry.
	PresenceTTL time.Duration `envconfig:"PRESENCE_TTL" default:"15s"`

	// MessageTTL is how long a community message stays visible.
	MessageTTL time.Duration `envconfig:"MESSAGE_TTL" default:"5m"`

	// CommunityPeriod is the clock-aligned reset period of the community
	// channel. Boundaries fall on wall-clock multiples of this value.
	CommunityPeriod time.Duration `envconfig:"COMMUNITY_PERIOD" default:"30m"`

	// SitePeriod is the clock-aligned full-reset period. Crossing a site
	// boundary clears presence and every private room.
	SitePeriod time.Duration `envconfig:"SITE_PERIOD" default:"2h"`

	// QuietLength is the length of the scheduled quiet moment near the
	// end of each community period.
	QuietLength time.Duration `envconfig:"QUIET_LENGTH" default:"2m"`

	// RoomDuration is the initial lifetime of a private room. A granted
	// extension adds the same amount once.
	RoomDuration time.Duration `envconfig:"ROOM_DURATION" default:"30m"`

	// InviteTTL is how long an invitation waits for a decision.
	InviteTTL time.Duration `envconfig:"INVITE_TTL" default:"30s"`

	// RejoinWindow is how long a room with a missing participant waits
	// before force-closing.
	RejoinWindow time.Duration `envconfig:"REJOIN_WINDOW" default:"15m"`

	// BufferCap caps the community message buffer; the oldest entry is
	// evicted past this size regardless of age.
	BufferCap int `envconfig:"BUFFER_CAP" default:"200"`

	// BorderlineThreshold is the borderline-verdict count at which a
	// participant's messages stop being broadcast to others.
	BorderlineThreshold int `envconfig:"BORDERLINE_THRESHOLD" default:"5"`

	// TickInterval drives all time-based transitions.
	TickInterval time.Duration `envconfig:"TICK_INTERVAL" default:"1s"`

	// BlockedWords and BorderlineWords feed the word-list moderation
	// gateway. Comma separated.
	BlockedWords    []string `envconfig:"BLOCKED_WORDS"`
	BorderlineWords []string `envconfig:"BORDERLINE_WORDS"`
}

// Load reads environment variables and returns a populated Config struct.
// It will load from a .env file if present, then read from environment
// variables, falling back to the defaults above.
func Load() (*Config, error) {
	// Not an error if the .env file is missing; production environments
	// set real environment variables instead.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
