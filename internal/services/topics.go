package services

// SessionStyle flavors a community period. Styles alternate on every
// 30-minute reset so regulars see both moods over an evening.
type SessionStyle string

const (
	StyleDeep    SessionStyle = "DEEP"
	StylePlayful SessionStyle = "PLAYFUL"
)

// Toggle returns the other style.
func (s SessionStyle) Toggle() SessionStyle {
	if s == StyleDeep {
		return StylePlayful
	}
	return StyleDeep
}

var deepTopics = []string{
	"What is something you changed your mind about this year?",
	"What do you miss that you never expected to miss?",
	"What would you do differently if nobody could see you?",
	"Which small kindness do you still remember?",
	"What are you avoiding thinking about?",
	"When did you last feel completely at ease?",
	"What would you tell a stranger who is exactly where you were five years ago?",
}

var playfulTopics = []string{
	"Worst haircut you ever had. Go.",
	"What food hill are you prepared to die on?",
	"Describe your week as a weather forecast.",
	"What is the most useless talent you have?",
	"Best bad movie of all time?",
	"What would your villain origin story be?",
	"Two truths and a lie, no hints.",
}

// topicsFor returns the topic pool for a style.
func topicsFor(style SessionStyle) []string {
	if style == StyleDeep {
		return deepTopics
	}
	return playfulTopics
}
