package config

// EffectiveSettings resolves the timeout policy, retry policy, thread
// count, and test-group name a single test instance runs under: the
// profile's own settings, narrowed by the first override (in file order)
// whose Filter matches returns true. Per spec.md §4.1, each override's
// conditions (platform and/or filter, already evaluated by the caller
// into the matches callback) must all permit the candidate test for the
// override to apply; only the first such override wins per field-set.
func EffectiveSettings(p Profile, matches func(ov Override) bool) (TimeoutPolicy, RetryPolicy, int, string) {
	timeouts := p.TimeoutPolicy()
	retries := p.Retries
	threads := p.Threads
	group := ""

	var sawTimeout, sawRetries, sawThreads, sawGroup bool
	for _, ov := range p.Overrides {
		if !matches(ov) {
			continue
		}
		if !sawTimeout && (ov.SlowTimeout > 0 || ov.TerminateAfter > 0 || ov.LeakTimeout > 0) {
			timeouts = ov.TimeoutPolicy(p.TimeoutPolicy())
			sawTimeout = true
		}
		if !sawRetries && ov.Retries != nil {
			retries = *ov.Retries
			sawRetries = true
		}
		if !sawThreads && ov.Threads != nil {
			threads = *ov.Threads
			sawThreads = true
		}
		if !sawGroup && ov.Group != "" {
			group = ov.Group
			sawGroup = true
		}
	}
	return timeouts, retries, threads, group
}
