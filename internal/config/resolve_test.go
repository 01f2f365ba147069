package config

import "testing"

func TestEffectiveSettingsFirstMatchingOverrideWins(t *testing.T) {
	p := Profile{
		Threads: 4,
		Overrides: []Override{
			{Filter: "test(slow)", Threads: intPtr(1)},
			{Filter: "all()", Threads: intPtr(8)},
		},
	}

	_, _, threads, _ := EffectiveSettings(p, func(Override) bool { return true })
	if threads != 1 {
		t.Errorf("threads = %d, want 1 (first matching override)", threads)
	}
}

func TestEffectiveSettingsFallsBackToProfile(t *testing.T) {
	p := Profile{Threads: 4}
	_, _, threads, group := EffectiveSettings(p, func(Override) bool { return false })
	if threads != 4 {
		t.Errorf("threads = %d, want 4", threads)
	}
	if group != "" {
		t.Errorf("group = %q, want empty", group)
	}
}

func TestEffectiveSettingsMergesAcrossOverrides(t *testing.T) {
	p := Profile{
		Threads: 4,
		Overrides: []Override{
			{Filter: "test(a)", Group: "db"},
			{Filter: "test(a)", Threads: intPtr(2)},
		},
	}
	_, _, threads, group := EffectiveSettings(p, func(Override) bool { return true })
	if threads != 2 {
		t.Errorf("threads = %d, want 2 (taken from the second override, since the first didn't set it)", threads)
	}
	if group != "db" {
		t.Errorf("group = %q, want db", group)
	}
}

func intPtr(i int) *int { return &i }
