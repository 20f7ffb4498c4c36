// Package config provides 12-factor configuration for switcherd.
//
// Configuration is loaded from environment variables with defaults suited to
// the device. CLI flags override a few of them for development.
//
// Configuration Sections:
//   - Switcher: debounce, kill-confirmation and launch timeouts, bg-kill policy
//   - Catalog: descriptor directories, match pattern, reload watching
//   - Server: HTTP API listen address
//   - Bus: D-Bus integration
//   - Display: X display name
//   - Logging: Log level and output format
//   - RateLimit: HTTP rate limiting
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("kill timeout %s\n", cfg.Switcher.KillTimeout)
package config
