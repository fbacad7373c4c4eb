package probe

// TimeoutProtocol returns the entry to use when a connection has been idle
// past the configured window with no match yet: the entry named by
// cfg.OnTimeout, or the first configured entry if that name doesn't
// resolve.
func TimeoutProtocol(cfg *Configuration) *ProtocolEntry {
	if cfg == nil || len(cfg.Entries) == 0 {
		return nil
	}
	if e := cfg.Find(cfg.OnTimeout); e != nil {
		return e
	}
	return cfg.Entries[0]
}

// ExhaustionFallback returns the entry to use when the arbiter's chain
// completes with no match and no Again: the last configured entry,
// conventionally the always-match sentinel.
func ExhaustionFallback(cfg *Configuration) *ProtocolEntry {
	if cfg == nil || len(cfg.Entries) == 0 {
		return nil
	}
	return cfg.Entries[len(cfg.Entries)-1]
}
