package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, configFileName), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir, "1.0.0")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := cfg.Profiles[defaultProfileName]; !ok {
		t.Fatal("expected synthesized default profile")
	}
}

func TestLoadParsesProfiles(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[profile.ci]
test-threads = 4
default-filter = "all()"

[profile.ci.retries]
fixed = 2
`)

	cfg, err := Load(dir, "1.0.0")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ci, ok := cfg.Profiles["ci"]
	if !ok {
		t.Fatal("expected profile \"ci\" to be parsed")
	}
	if ci.Threads != 4 {
		t.Errorf("Threads = %d, want 4", ci.Threads)
	}
	if ci.Retries.Fixed != 2 {
		t.Errorf("Retries.Fixed = %d, want 2", ci.Retries.Fixed)
	}
	if _, ok := cfg.Profiles[defaultProfileName]; !ok {
		t.Fatal("expected \"default\" profile to still be synthesized alongside \"ci\"")
	}
}

func TestLoadVersionRequirementRejectsOldBinary(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[nextest.version]
required = "2.0.0"
`)

	if _, err := Load(dir, "1.5.0"); err == nil {
		t.Fatal("expected version requirement to reject an older running version")
	}
}

func TestLoadVersionRequirementOverride(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[nextest.version]
required = "2.0.0"
override = true
`)

	if _, err := Load(dir, "1.5.0"); err != nil {
		t.Fatalf("expected override=true to allow loading despite version mismatch, got: %v", err)
	}
}

func TestLoadRejectsUnauthorizedToolNamespace(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[script."@tool:buildgen:setup-db"]
id = "@tool:buildgen:setup-db"
command = ["./setup-db.sh"]
`)

	if _, err := Load(dir, "1.0.0"); err == nil {
		t.Fatal("expected an error for an undeclared @tool: namespace")
	}
}

func TestLoadRejectsUnknownTestGroupReference(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[profile.ci]
test-threads = 4

[[profile.ci.overrides]]
filter = "all()"
group = "does-not-exist"
`)

	_, err := Load(dir, "1.0.0")
	if err == nil {
		t.Fatal("expected an error for an override referencing an undefined test group")
	}
	var cec *ConfigErrorCollection
	if !errors.As(err, &cec) {
		t.Fatalf("expected a *ConfigErrorCollection, got %T: %v", err, err)
	}
}

func TestLoadRejectsUnknownSetupScriptReference(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[profile.ci]
setup-scripts = ["missing-script"]
`)

	if _, err := Load(dir, "1.0.0"); err == nil {
		t.Fatal("expected an error for a profile referencing an undefined setup script")
	}
}

func TestStoreDirEnvOverride(t *testing.T) {
	t.Setenv(StoreDirEnvVar, "/tmp/custom-store")
	if got := StoreDir("/workspace"); got != "/tmp/custom-store" {
		t.Errorf("StoreDir = %q, want /tmp/custom-store", got)
	}
}

func TestStoreDirDefault(t *testing.T) {
	t.Setenv(StoreDirEnvVar, "")
	got := StoreDir("/workspace")
	want := filepath.Join("/workspace", ".nextrunner", "store")
	if got != want {
		t.Errorf("StoreDir = %q, want %q", got, want)
	}
}
