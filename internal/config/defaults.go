package config

// NewDefaults returns a Config populated with the built-in defaults: the
// GitHub adapter with CLI credentials, auto-sync on, manual conflict
// resolution, the specs/ root, and the standard batch concurrency.
func NewDefaults() *Config {
	on := true
	return &Config{
		Platform:         "github",
		AutoSync:         &on,
		ConflictStrategy: "manual",
		SpecsRoot:        "specs",
		Concurrency:      5,
		GitHub: &GitHubConfig{
			Auth: "cli",
		},
	}
}
