package whatsapp

import (
	"regexp"
	"strings"
	"time"
)

// Grammar identifies one of the line formats WhatsApp exports in,
// depending on device locale
type Grammar int

const (
	// GrammarUS is `[1/15/24, 10:30:45 AM] Sender: Message`
	GrammarUS Grammar = iota

	// GrammarEuDotBracketed is `[15.01.24, 10:30:45] Sender: Message`
	GrammarEuDotBracketed

	// GrammarEuDotNoBracket is `26.10.2025, 20:40 - Sender: Message`
	GrammarEuDotNoBracket

	// GrammarEuSlash is `15/01/2024, 10:30 - Sender: Message`
	GrammarEuSlash

	// GrammarEuSlashBracketed is `[15/01/2024, 10:30] Sender: Message`
	GrammarEuSlashBracketed
)

// grammars lists all known grammars in priority order; ties during
// detection resolve to the earliest entry
var grammars = []Grammar{
	GrammarUS,
	GrammarEuDotBracketed,
	GrammarEuDotNoBracket,
	GrammarEuSlash,
	GrammarEuSlashBracketed,
}

// Header line shape per grammar: date, time, sender, first content line
var grammarPatterns = map[Grammar]*regexp.Regexp{
	GrammarUS: regexp.MustCompile(
		`^\[(\d{1,2}/\d{1,2}/\d{2,4}),\s(\d{1,2}:\d{2}(?::\d{2})?(?:\s?[APap][Mm])?)\]\s([^:]+):\s?(.*)`),
	GrammarEuDotBracketed: regexp.MustCompile(
		`^\[(\d{2}\.\d{2}\.\d{2,4}),\s(\d{2}:\d{2}(?::\d{2})?)\]\s([^:]+):\s?(.*)`),
	GrammarEuDotNoBracket: regexp.MustCompile(
		`^(\d{2}\.\d{2}\.\d{2,4}),\s(\d{2}:\d{2}(?::\d{2})?)\s-\s([^:]+):\s?(.*)`),
	GrammarEuSlash: regexp.MustCompile(
		`^(\d{2}/\d{2}/\d{2,4}),\s(\d{2}:\d{2}(?::\d{2})?)\s-\s([^:]+):\s?(.*)`),
	GrammarEuSlashBracketed: regexp.MustCompile(
		`^\[(\d{2}/\d{2}/\d{2,4}),\s(\d{2}:\d{2}(?::\d{2})?)\]\s([^:]+):\s?(.*)`),
}

// Candidate time layouts per grammar, most specific first
var grammarLayouts = map[Grammar][]string{
	GrammarUS: {
		"1/2/06, 3:04:05 PM",
		"1/2/06, 3:04 PM",
		"1/2/2006, 3:04:05 PM",
		"1/2/2006, 3:04 PM",
		"1/2/06, 15:04:05",
		"1/2/06, 15:04",
		"1/2/2006, 15:04:05",
		"1/2/2006, 15:04",
	},
	GrammarEuDotBracketed:   euDotLayouts,
	GrammarEuDotNoBracket:   euDotLayouts,
	GrammarEuSlash:          euSlashLayouts,
	GrammarEuSlashBracketed: euSlashLayouts,
}

var euDotLayouts = []string{
	"02.01.06, 15:04:05",
	"02.01.06, 15:04",
	"02.01.2006, 15:04:05",
	"02.01.2006, 15:04",
}

var euSlashLayouts = []string{
	"02/01/06, 15:04:05",
	"02/01/06, 15:04",
	"02/01/2006, 15:04:05",
	"02/01/2006, 15:04",
}

// Pattern returns the compiled header regexp for the grammar
func (g Grammar) Pattern() *regexp.Regexp { return grammarPatterns[g] }

// String names the grammar for logs
func (g Grammar) String() string {
	switch g {
	case GrammarUS:
		return "us"
	case GrammarEuDotBracketed:
		return "eu-dot-bracketed"
	case GrammarEuDotNoBracket:
		return "eu-dot"
	case GrammarEuSlash:
		return "eu-slash"
	case GrammarEuSlashBracketed:
		return "eu-slash-bracketed"
	default:
		return "unknown"
	}
}

// DetectGrammar scores every grammar against the sampled lines and returns
// the one with the most header matches. Ties resolve in declaration order.
// ok is false when no grammar matched any line.
func DetectGrammar(lines []string) (Grammar, bool) {
	scores := make([]int, len(grammars))
	for _, line := range lines {
		for i, g := range grammars {
			if g.Pattern().MatchString(line) {
				scores[i]++
			}
		}
	}

	best, max := 0, 0
	for i, s := range scores {
		if s > max {
			best, max = i, s
		}
	}
	if max == 0 {
		return 0, false
	}
	return grammars[best], true
}

// parseTimestamp interprets the captured date and time under the grammar's
// layouts, first success wins. Exports carry no zone, so times are read as
// UTC. Returns the zero time when nothing fits.
func parseTimestamp(dateStr, timeStr string, g Grammar) time.Time {
	joined := dateStr + ", " + normalizeTime(timeStr)
	for _, layout := range grammarLayouts[g] {
		if t, err := time.ParseInLocation(layout, joined, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}

// normalizeTime uppercases the meridiem and guarantees a single space
// before it, so one layout set covers "10:30AM", "10:30 am" and friends
func normalizeTime(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, suffix := range []string{"AM", "PM"} {
		if strings.HasSuffix(s, suffix) {
			head := strings.TrimRight(strings.TrimSuffix(s, suffix), " ")
			return head + " " + suffix
		}
	}
	return s
}
