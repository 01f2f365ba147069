package config

import "runtime"

// defaultProfileName is the profile used when a run doesn't select one
// explicitly and is always implicitly present, even in a config file that
// never mentions it.
const defaultProfileName = "default"

// DefaultConfig returns the configuration a workspace with no config.toml
// at all resolves to: a single "default" profile with no retries, one
// thread per logical CPU, and no timeouts.
func DefaultConfig() Config {
	return Config{
		Profiles: map[string]Profile{
			defaultProfileName: {
				Name:    defaultProfileName,
				Threads: runtime.NumCPU(),
			},
		},
	}
}
