package config

import (
	"os"
	"strconv"
)

// ConfigSource identifies where a configuration value came from.
type ConfigSource string

const (
	// SourceDefault indicates the value came from built-in defaults.
	SourceDefault ConfigSource = "default"
	// SourceFile indicates the value came from the configuration file.
	SourceFile ConfigSource = "file"
	// SourceEnv indicates the value came from an environment variable.
	SourceEnv ConfigSource = "env"
	// SourceCLI indicates the value came from a CLI flag.
	SourceCLI ConfigSource = "cli"
)

// ResolvedConfig holds the fully-resolved configuration with source tracking.
// The Config field contains the merged values; Sources tracks where each came from.
type ResolvedConfig struct {
	Config  *Config
	Sources map[string]ConfigSource // key is dotted path, e.g. "github.owner"
	Path    string                  // path to the config file used (empty if none)
}

// CLIOverrides captures flag values that can override configuration.
// Nil fields mean "not set" (do not override); a pointer to the zero value
// means "override to the zero value."
type CLIOverrides struct {
	Platform    *string
	SpecsRoot   *string
	Strategy    *string
	Concurrency *int
}

// EnvFunc is a function that looks up environment variables.
// Default implementation is os.LookupEnv. Injected for testability.
type EnvFunc func(key string) (string, bool)

// Resolve merges configuration from all sources in priority order:
// CLI flags > environment variables > config file > defaults.
//
// Parameters:
//   - defaults: built-in default config (from NewDefaults())
//   - fileConfig: parsed config from the discovered file (nil if none found)
//   - envFn: function to look up environment variables
//   - overrides: CLI flag values (nil fields mean "not set")
//
// After merging, ${VAR} references in the github token are expanded against
// the same environment so the secret itself can stay out of the file.
func Resolve(defaults, fileConfig *Config, envFn EnvFunc, overrides *CLIOverrides) *ResolvedConfig {
	rc := &ResolvedConfig{
		Config:  &Config{GitHub: &GitHubConfig{}},
		Sources: make(map[string]ConfigSource),
	}

	if defaults == nil {
		defaults = &Config{}
	}
	if envFn == nil {
		envFn = func(string) (string, bool) { return "", false }
	}
	if overrides == nil {
		overrides = &CLIOverrides{}
	}

	// Layer 1: start with defaults as the base.
	resolveFromDefaults(rc, defaults)

	// Layer 2: merge file config on top (non-zero values override).
	if fileConfig != nil {
		resolveFromFile(rc, fileConfig)
	}

	// Layer 3: merge environment variables on top.
	resolveFromEnv(rc, envFn)

	// Layer 4: merge CLI overrides on top.
	resolveFromCLI(rc, overrides)

	expandToken(rc, envFn)

	return rc
}

// --- Layer 1: Defaults ---

func resolveFromDefaults(rc *ResolvedConfig, defaults *Config) {
	c := rc.Config

	setString(&c.Platform, defaults.Platform, "platform", SourceDefault, rc.Sources)
	setString(&c.ConflictStrategy, defaults.ConflictStrategy, "conflict_strategy", SourceDefault, rc.Sources)
	setString(&c.SpecsRoot, defaults.SpecsRoot, "specs_root", SourceDefault, rc.Sources)

	c.AutoSync = copyBool(defaults.AutoSync)
	rc.Sources["auto_sync"] = SourceDefault

	c.Concurrency = defaults.Concurrency
	rc.Sources["concurrency"] = SourceDefault

	if len(defaults.Ignore) > 0 {
		c.Ignore = append([]string(nil), defaults.Ignore...)
	}
	rc.Sources["ignore"] = SourceDefault

	d := defaults.GitHub
	if d == nil {
		d = &GitHubConfig{}
	}
	g := c.GitHub
	setString(&g.Owner, d.Owner, "github.owner", SourceDefault, rc.Sources)
	setString(&g.Repo, d.Repo, "github.repo", SourceDefault, rc.Sources)
	setString(&g.Auth, d.Auth, "github.auth", SourceDefault, rc.Sources)
	setString(&g.Token, d.Token, "github.token", SourceDefault, rc.Sources)
	for kind, labels := range d.Labels {
		if g.Labels == nil {
			g.Labels = make(map[string]StringList, len(d.Labels))
		}
		g.Labels[kind] = append(StringList(nil), labels...)
		rc.Sources["github.labels."+kind] = SourceDefault
	}
	if len(d.Assignees) > 0 {
		g.Assignees = append([]string(nil), d.Assignees...)
	}
	rc.Sources["github.assignees"] = SourceDefault
	g.Milestone = d.Milestone
	rc.Sources["github.milestone"] = SourceDefault
}

// --- Layer 2: File ---

func resolveFromFile(rc *ResolvedConfig, file *Config) {
	c := rc.Config

	mergeString(&c.Platform, file.Platform, "platform", SourceFile, rc.Sources)
	mergeString(&c.ConflictStrategy, file.ConflictStrategy, "conflict_strategy", SourceFile, rc.Sources)
	mergeString(&c.SpecsRoot, file.SpecsRoot, "specs_root", SourceFile, rc.Sources)

	if file.AutoSync != nil {
		c.AutoSync = copyBool(file.AutoSync)
		rc.Sources["auto_sync"] = SourceFile
	}
	if file.Concurrency != 0 {
		c.Concurrency = file.Concurrency
		rc.Sources["concurrency"] = SourceFile
	}
	if len(file.Ignore) > 0 {
		c.Ignore = append([]string(nil), file.Ignore...)
		rc.Sources["ignore"] = SourceFile
	}

	f := file.GitHub
	if f == nil {
		return
	}
	g := c.GitHub
	mergeString(&g.Owner, f.Owner, "github.owner", SourceFile, rc.Sources)
	mergeString(&g.Repo, f.Repo, "github.repo", SourceFile, rc.Sources)
	mergeString(&g.Auth, f.Auth, "github.auth", SourceFile, rc.Sources)
	mergeString(&g.Token, f.Token, "github.token", SourceFile, rc.Sources)
	for kind, labels := range f.Labels {
		if g.Labels == nil {
			g.Labels = make(map[string]StringList, len(f.Labels))
		}
		g.Labels[kind] = append(StringList(nil), labels...)
		rc.Sources["github.labels."+kind] = SourceFile
	}
	if len(f.Assignees) > 0 {
		g.Assignees = append([]string(nil), f.Assignees...)
		rc.Sources["github.assignees"] = SourceFile
	}
	if f.Milestone != 0 {
		g.Milestone = f.Milestone
		rc.Sources["github.milestone"] = SourceFile
	}
}

// --- Layer 3: Environment ---

// Environment variable mapping:
//
//	SPECSYNC_PLATFORM          -> platform
//	SPECSYNC_AUTO_SYNC         -> auto_sync
//	SPECSYNC_CONFLICT_STRATEGY -> conflict_strategy
//	SPECSYNC_SPECS_ROOT        -> specs_root
//	SPECSYNC_CONCURRENCY       -> concurrency
//	SPECSYNC_GITHUB_OWNER      -> github.owner
//	SPECSYNC_GITHUB_REPO       -> github.repo
//	SPECSYNC_GITHUB_AUTH       -> github.auth
//	SPECSYNC_GITHUB_TOKEN      -> github.token
//
// Boolean and integer variables that fail to parse are ignored; validation
// of the merged result happens in Validate, not here.
func resolveFromEnv(rc *ResolvedConfig, envFn EnvFunc) {
	c := rc.Config

	if val, ok := envFn("SPECSYNC_PLATFORM"); ok {
		c.Platform = val
		rc.Sources["platform"] = SourceEnv
	}
	if val, ok := envFn("SPECSYNC_AUTO_SYNC"); ok {
		if parsed, err := strconv.ParseBool(val); err == nil {
			c.AutoSync = &parsed
			rc.Sources["auto_sync"] = SourceEnv
		}
	}
	if val, ok := envFn("SPECSYNC_CONFLICT_STRATEGY"); ok {
		c.ConflictStrategy = val
		rc.Sources["conflict_strategy"] = SourceEnv
	}
	if val, ok := envFn("SPECSYNC_SPECS_ROOT"); ok {
		c.SpecsRoot = val
		rc.Sources["specs_root"] = SourceEnv
	}
	if val, ok := envFn("SPECSYNC_CONCURRENCY"); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			c.Concurrency = parsed
			rc.Sources["concurrency"] = SourceEnv
		}
	}

	g := c.GitHub
	if val, ok := envFn("SPECSYNC_GITHUB_OWNER"); ok {
		g.Owner = val
		rc.Sources["github.owner"] = SourceEnv
	}
	if val, ok := envFn("SPECSYNC_GITHUB_REPO"); ok {
		g.Repo = val
		rc.Sources["github.repo"] = SourceEnv
	}
	if val, ok := envFn("SPECSYNC_GITHUB_AUTH"); ok {
		g.Auth = val
		rc.Sources["github.auth"] = SourceEnv
	}
	if val, ok := envFn("SPECSYNC_GITHUB_TOKEN"); ok {
		g.Token = val
		rc.Sources["github.token"] = SourceEnv
	}
}

// --- Layer 4: CLI overrides ---

func resolveFromCLI(rc *ResolvedConfig, overrides *CLIOverrides) {
	c := rc.Config

	if overrides.Platform != nil {
		c.Platform = *overrides.Platform
		rc.Sources["platform"] = SourceCLI
	}
	if overrides.SpecsRoot != nil {
		c.SpecsRoot = *overrides.SpecsRoot
		rc.Sources["specs_root"] = SourceCLI
	}
	if overrides.Strategy != nil {
		c.ConflictStrategy = *overrides.Strategy
		rc.Sources["conflict_strategy"] = SourceCLI
	}
	if overrides.Concurrency != nil {
		c.Concurrency = *overrides.Concurrency
		rc.Sources["concurrency"] = SourceCLI
	}
}

// expandToken resolves $VAR and ${VAR} references in the github token. The
// source stays whatever layer supplied the reference; expansion changes the
// value, not its origin.
func expandToken(rc *ResolvedConfig, envFn EnvFunc) {
	tok := rc.Config.GitHub.Token
	if tok == "" {
		return
	}
	rc.Config.GitHub.Token = os.Expand(tok, func(key string) string {
		val, _ := envFn(key)
		return val
	})
}

// --- Helpers ---

// setString unconditionally sets the target to the given value and records the source.
func setString(target *string, value string, path string, source ConfigSource, sources map[string]ConfigSource) {
	*target = value
	sources[path] = source
}

// mergeString overwrites the target only if value is non-empty (non-zero string).
// An empty string in the file means "not set in file", so it does not
// override the lower layer.
func mergeString(target *string, value string, path string, source ConfigSource, sources map[string]ConfigSource) {
	if value != "" {
		*target = value
		sources[path] = source
	}
}

// copyBool clones a *bool so later layers cannot alias the original.
func copyBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}
