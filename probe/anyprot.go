package probe

// AnyProtName is the conventional name of the always-match sentinel entry.
// The arbiter recognizes a trailing entry by this name and treats it as
// the residual fallback rather than invoking it as a probe.
const AnyProtName = "anyprot"

// TimeoutName is the reserved pseudo-protocol name an idle-timeout
// fallback entry conventionally carries.
const TimeoutName = "timeout"

// AnyProt unconditionally matches. It is the always-match sentinel; the
// arbiter never invokes it as part of the chain, treating a trailing
// AnyProt entry as the residual fallback instead. Exported so the registry
// can still resolve it by name for configurations that reference it
// directly (e.g. "timeout").
func AnyProt(_ []byte, _ *ProtocolEntry) Outcome {
	return Match
}
