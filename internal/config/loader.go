package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"

	"github.com/nextrunner/nextrunner/pkg/logging"
)

const configFileName = "config.toml"

// StoreDirEnvVar overrides the record store's root directory, taking
// precedence over anything in config.toml. Useful for CI, where the
// store should live on a fast, ephemeral disk distinct from the checkout.
const StoreDirEnvVar = "NEXTRUNNER_STORE_DIR"

// Load reads and validates config.toml from workspaceDir, returning a
// fully resolved Config. A missing file is not an error: Load returns
// DefaultConfig() instead, the way a workspace that has never needed to
// customize anything continues to work unmodified.
//
// Load runs two decode passes, deliberately: the first pass reads only
// enough of the file ([nextest.version]) to check the version requirement
// before doing anything else, so a config written for a newer release
// reports "this config needs nextrunner >= X" instead of a confusing
// field-shape decode error from the second, fully typed pass.
func Load(workspaceDir, runningVersion string) (Config, error) {
	path := filepath.Join(workspaceDir, configFileName)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		logging.Info("config", "no %s found, using defaults", path)
		return DefaultConfig(), nil
	}

	var versionProbe struct {
		Nextest struct {
			Version VersionRequirement `toml:"version"`
		} `toml:"nextest"`
	}
	if _, err := toml.DecodeFile(path, &versionProbe); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := ValidateVersionRequirement(versionProbe.Nextest.Version, runningVersion); err != nil {
		if !versionProbe.Nextest.Version.Override {
			return Config{}, err
		}
		logging.Warn("config", "%s: %v (continuing: override = true)", path, err)
	}

	var raw rawConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	for _, key := range meta.Undecoded() {
		logging.Warn("config", "%s: unrecognized key %q, ignoring", path, key.String())
	}

	cfg := Config{
		NextVersion:  versionProbe.Nextest.Version,
		Profiles:     raw.Profile,
		Scripts:      raw.Script,
		TestGroups:   raw.TestGroups,
		Experimental: raw.Experimental,
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]Profile{}
	}
	for name, p := range cfg.Profiles {
		p.Name = name
		cfg.Profiles[name] = p
	}
	if _, ok := cfg.Profiles[defaultProfileName]; !ok {
		cfg.Profiles[defaultProfileName] = DefaultConfig().Profiles[defaultProfileName]
	}
	for name, tg := range cfg.TestGroups {
		tg.Name = name
		cfg.TestGroups[name] = tg
	}

	if err := validateNamespaces(cfg); err != nil {
		return Config{}, err
	}
	if err := validateReferences(cfg); err != nil {
		return Config{}, err
	}

	logging.Info("config", "loaded %d profile(s) from %s", len(cfg.Profiles), path)
	return cfg, nil
}

func validateNamespaces(cfg Config) error {
	allowedTools := map[string]bool{} // no tool integrations ship with nextrunner itself today
	var errs ValidationErrors
	for name := range cfg.Scripts {
		if err := ValidateToolNamespace(name, allowedTools); err != nil {
			errs = append(errs, err.(ValidationError))
		}
	}
	for name := range cfg.TestGroups {
		if err := ValidateToolNamespace(name, allowedTools); err != nil {
			errs = append(errs, err.(ValidationError))
		}
	}
	if errs.HasErrors() {
		return errs
	}
	return nil
}

// StoreDir resolves the record store's root directory: the environment
// override if set, otherwise workspaceDir/.nextrunner/store.
func StoreDir(workspaceDir string) string {
	if dir := os.Getenv(StoreDirEnvVar); dir != "" {
		return dir
	}
	return filepath.Join(workspaceDir, ".nextrunner", "store")
}

// Watch reloads config.toml whenever it changes on disk and invokes
// onChange with the freshly parsed Config. It runs until ctx-like stop is
// closed; callers that don't want hot-reload (the common case: a single
// `nextrunner run` invocation) simply never call this.
func Watch(workspaceDir, runningVersion string, stop <-chan struct{}, onChange func(Config, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: starting watcher: %w", err)
	}
	if err := watcher.Add(workspaceDir); err != nil {
		watcher.Close()
		return fmt.Errorf("config: watching %s: %w", workspaceDir, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-stop:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != configFileName {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(workspaceDir, runningVersion)
				onChange(cfg, err)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Warn("config", "watch error: %v", err)
			}
		}
	}()
	return nil
}
