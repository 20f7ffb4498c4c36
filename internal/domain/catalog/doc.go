// Package catalog maps window class-names to application descriptors.
//
// Descriptors come from files in three formats, chosen by extension:
//   - .desktop key files ([Desktop Entry] group, StartupWMClass, X-Osso-Service)
//   - .yaml / .yml
//   - .toml
//
// A Scanner discovers files with a doublestar pattern and parses them,
// skipping malformed ones with a warning. A Watcher calls a reload hook when
// the directories change so the caller can rescan and Replace the catalog.
//
// Example Usage:
//
//	scanner := catalog.NewScanner(cfg.Catalog.Dirs, cfg.Catalog.Pattern, log)
//	descs, err := scanner.Scan()
//	cat := catalog.New(descs...)
//	d, ok := cat.Lookup("osso_email")
package catalog
