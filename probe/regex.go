package probe

import "regexp"

// RegexSet is the per-entry configuration for the Regex probe: an ordered
// list of compiled patterns, any one of which is sufficient to match.
type RegexSet struct {
	Patterns []*regexp.Regexp
}

// Regex matches if any configured pattern matches buf. The regexp engine
// only ever sees buf itself, so it can never read past len(buf). Regex
// never returns Again: patterns are expected to tolerate partial input, or
// the entry's MinLength is used to hold off invoking the probe at all.
func Regex(buf []byte, entry *ProtocolEntry) Outcome {
	set, ok := entry.Data.(*RegexSet)
	if !ok || set == nil {
		return Next
	}
	for _, pattern := range set.Patterns {
		if pattern.Match(buf) {
			return Match
		}
	}
	return Next
}
