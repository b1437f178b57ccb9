package services

import (
	"math/rand"
	"time"

	"github.com/samber/lo"

	"github.com/solenne-dev/nightjar/internal/models"
)

// quietLead is how far before a period boundary the quiet moment may start.
// The random offset keeps at most quietLead-quietJitter of lead, so the
// window always finishes before the boundary.
const (
	quietLead   = 10 * time.Minute
	quietJitter = 8 * time.Minute
)

// Community owns the shared channel: its bounded message buffer, per-message
// TTL, and the clock-aligned reset cycle. Boundaries are computed from wall
// clock multiples so every process derives the same instants independently.
// No internal lock; the coordinator serializes access.
type Community struct {
	messages      []models.Message
	windowEnd     time.Time
	siteWindowEnd time.Time
	topic         string
	style         SessionStyle
	quiet         models.QuietWindow

	period      time.Duration
	sitePeriod  time.Duration
	messageTTL  time.Duration
	quietLength time.Duration
	bufferCap   int

	rng *rand.Rand
}

// CommunityTick reports what a tick crossed. SiteReset implies Reset.
type CommunityTick struct {
	Reset     bool
	SiteReset bool
}

// NewCommunity initializes the channel with boundaries aligned to the clock
// at now, a starting style, and a scheduled quiet window.
func NewCommunity(period, sitePeriod, messageTTL, quietLength time.Duration, bufferCap int, now time.Time) *Community {
	c := &Community{
		period:      period,
		sitePeriod:  sitePeriod,
		messageTTL:  messageTTL,
		quietLength: quietLength,
		bufferCap:   bufferCap,
		style:       StyleDeep,
		rng:         rand.New(rand.NewSource(now.UnixNano())),
	}
	c.windowEnd = nextBoundary(now, period)
	c.siteWindowEnd = nextBoundary(now, sitePeriod)
	c.topic = c.pickTopic()
	c.quiet = c.scheduleQuiet()
	return c
}

// nextBoundary returns the first wall-clock multiple of period after now.
// Checked with now >= target, so a missed tick delays rather than skips a
// crossing.
func nextBoundary(now time.Time, period time.Duration) time.Time {
	return now.Truncate(period).Add(period)
}

// Append adds a message to the buffer, evicting the oldest entry once the
// cap is exceeded regardless of its age.
func (c *Community) Append(msg models.Message) {
	c.messages = append(c.messages, msg)
	if len(c.messages) > c.bufferCap {
		c.messages = c.messages[len(c.messages)-c.bufferCap:]
	}
}

// Visible returns the messages still inside their TTL at now. Visibility is
// a property of query time, not only of the pruning tick.
func (c *Community) Visible(now time.Time) []models.Message {
	return lo.Filter(c.messages, func(m models.Message, _ int) bool {
		return now.Sub(m.Timestamp) < c.messageTTL
	})
}

// InQuietWindow reports whether now falls inside the scheduled quiet moment.
func (c *Community) InQuietWindow(now time.Time) bool {
	return !now.Before(c.quiet.Start) && now.Before(c.quiet.End)
}

// Tick expires aged messages and detects boundary crossings. On a period
// crossing the buffer clears, the style toggles, a fresh topic is chosen and
// a new quiet window is scheduled. The caller broadcasts the corresponding
// reset events and, on a site crossing, clears presence and private rooms.
func (c *Community) Tick(now time.Time) CommunityTick {
	c.messages = c.Visible(now)

	var result CommunityTick
	if !now.Before(c.siteWindowEnd) {
		c.siteWindowEnd = nextBoundary(now, c.sitePeriod)
		result.SiteReset = true
	}
	if !now.Before(c.windowEnd) {
		c.windowEnd = nextBoundary(now, c.period)
		c.messages = nil
		c.style = c.style.Toggle()
		c.topic = c.pickTopic()
		c.quiet = c.scheduleQuiet()
		result.Reset = true
	}
	return result
}

// scheduleQuiet randomizes a quiet window inside the final stretch of the
// current period: start = end - lead + offset in [0, jitter).
func (c *Community) scheduleQuiet() models.QuietWindow {
	lead, jitter := quietLead, quietJitter
	if c.period < lead {
		// Short periods (tests, demos) still get a proportional window.
		lead = c.period / 3
		jitter = lead - c.quietLength
		if jitter <= 0 {
			jitter = time.Nanosecond
		}
	}
	start := c.windowEnd.Add(-lead).Add(time.Duration(c.rng.Int63n(int64(jitter))))
	return models.QuietWindow{Start: start, End: start.Add(c.quietLength)}
}

func (c *Community) pickTopic() string {
	pool := topicsFor(c.style)
	return pool[c.rng.Intn(len(pool))]
}

// Accessors used by the coordinator when assembling wire payloads.

func (c *Community) WindowEnd() time.Time      { return c.windowEnd }
func (c *Community) SiteWindowEnd() time.Time  { return c.siteWindowEnd }
func (c *Community) Topic() string             { return c.topic }
func (c *Community) Style() SessionStyle       { return c.style }
func (c *Community) Quiet() models.QuietWindow { return c.quiet }
func (c *Community) Len() int                  { return len(c.messages) }
