// Package moderation provides the three-valued content classifier the
// coordinator consults before relaying any message. The policy applied to
// each verdict lives with the coordinator; this package only decides.
package moderation

// Verdict is the classifier's answer for a piece of message text.
type Verdict int

const (
	// Allowed text is relayed normally.
	Allowed Verdict = iota
	// Borderline text is relayed but counted against the sender.
	Borderline
	// Blocked text is never relayed to others.
	Blocked
)

func (v Verdict) String() string {
	switch v {
	case Borderline:
		return "BORDERLINE"
	case Blocked:
		return "BLOCKED"
	default:
		return "ALLOWED"
	}
}

// Gateway classifies message text. Implementations must be safe for
// concurrent use and must never panic on arbitrary input.
type Gateway interface {
	Moderate(text string) Verdict
}
