package probe

// ProbeBuffer runs entries, in order, against buf and returns the first
// entry that matches. Declaration order is authoritative: the first probe
// to match wins, and no later probe's result can shadow an earlier one.
//
// If any entry along the way was inconclusive (Again, including an
// implicit Again from an unmet MinLength) and no entry matched, the result
// is (Again, nil): more bytes might change the outcome. Otherwise, once the
// chain is exhausted with no match and no Again, the residual fallback is
// the last configured entry — conventionally an always-match sentinel.
//
// onAttempt, if given, is called with each entry's name right before that
// entry's probe runs; callers use this to log probe attempts under
// verbose diagnostics without the arbiter itself depending on a logger.
func ProbeBuffer(entries []*ProtocolEntry, buf []byte, onAttempt ...func(name string)) (Outcome, *ProtocolEntry) {
	anyAgain := false
	var notify func(string)
	if len(onAttempt) > 0 {
		notify = onAttempt[0]
	}

	for i, entry := range entries {
		if entry.Probe == nil {
			continue
		}
		if i == len(entries)-1 && entry.Name == AnyProtName {
			break
		}
		if entry.MinLength > 0 && len(buf) < entry.MinLength {
			anyAgain = true
			continue
		}

		if notify != nil {
			notify(entry.Name)
		}

		switch entry.Probe(buf, entry) {
		case Match:
			return Match, entry
		case Again:
			anyAgain = true
		case Next:
			// try the next entry
		}
	}

	if anyAgain {
		return Again, nil
	}
	if len(entries) == 0 {
		return Again, nil
	}
	return Match, entries[len(entries)-1]
}
