package moderation

import (
	"log/slog"
	"unicode"

	"github.com/abadojack/whatlanggo"
	goahocorasick "github.com/anknown/ahocorasick"
)

// Default lists used when the environment supplies none. Deliberately mild:
// real deployments are expected to provide their own.
var (
	DefaultBlockedWords    = []string{"doxx", "killyourself", "kys"}
	DefaultBorderlineWords = []string{"idiot", "stupid", "loser", "shut up"}
)

// WordListGateway classifies text by matching it against two normalized
// word lists with Aho-Corasick automatons. Normalization lowercases, strips
// punctuation and whitespace, and folds common leet-speak substitutions so
// that "1d10t" still matches "idiot".
type WordListGateway struct {
	blocked    *goahocorasick.Machine
	borderline *goahocorasick.Machine
	log        *slog.Logger
}

// NewWordListGateway builds the two automatons. Empty lists fall back to the
// package defaults.
func NewWordListGateway(blockedWords, borderlineWords []string, log *slog.Logger) (*WordListGateway, error) {
	if len(blockedWords) == 0 {
		blockedWords = DefaultBlockedWords
	}
	if len(borderlineWords) == 0 {
		borderlineWords = DefaultBorderlineWords
	}

	blocked, err := buildMachine(blockedWords)
	if err != nil {
		return nil, err
	}
	borderline, err := buildMachine(borderlineWords)
	if err != nil {
		return nil, err
	}

	return &WordListGateway{blocked: blocked, borderline: borderline, log: log}, nil
}

// Moderate returns the strictest verdict any list produces for the text.
func (g *WordListGateway) Moderate(text string) Verdict {
	norm := normalizeRunes([]rune(text))
	if len(norm) == 0 {
		return Allowed
	}

	verdict := Allowed
	if len(g.blocked.MultiPatternSearch(norm, false)) > 0 {
		verdict = Blocked
	} else if len(g.borderline.MultiPatternSearch(norm, false)) > 0 {
		verdict = Borderline
	}

	if verdict != Allowed && g.log != nil {
		info := whatlanggo.Detect(text)
		g.log.Warn("moderation verdict",
			"verdict", verdict.String(),
			"lang", info.Lang.Iso6391())
	}
	return verdict
}

func buildMachine(words []string) (*goahocorasick.Machine, error) {
	patterns := make([][]rune, len(words))
	for i, word := range words {
		patterns[i] = normalizeRunes([]rune(word))
	}
	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return m, nil
}

// normalizeRunes applies simplification and noise removal to a slice of runes.
func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// simplifyRune maps common leet-speak characters back to their standard
// alphabet counterparts.
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

// isNoise identifies characters ignored during pattern matching.
func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
