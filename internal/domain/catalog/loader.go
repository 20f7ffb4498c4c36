package catalog

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// ErrMalformed is wrapped by every descriptor validation failure.
var ErrMalformed = errors.New("malformed descriptor")

// ErrNotApplication marks key files that describe something other than an
// application (links, directories, hidden entries).
var ErrNotApplication = errors.New("not an application descriptor")

// ParseFile reads one descriptor, choosing the format by extension.
func ParseFile(path string) (Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("failed to read descriptor: %w", err)
	}

	d, err := Parse(filepath.Ext(path), data)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%s: %w", path, err)
	}
	d.Source = path
	return d, nil
}

// Parse decodes descriptor content of the given format (".desktop",
// ".yaml", ".yml" or ".toml") and validates it.
func Parse(ext string, data []byte) (Descriptor, error) {
	var (
		d   Descriptor
		err error
	)

	switch strings.ToLower(ext) {
	case ".desktop":
		d, err = parseDesktop(data)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &d)
	case ".toml":
		err = toml.Unmarshal(data, &d)
	default:
		return Descriptor{}, fmt.Errorf("unsupported descriptor format %q", ext)
	}
	if err != nil {
		return Descriptor{}, err
	}

	return normalize(d)
}

// normalize fills derived fields and rejects incomplete descriptors.
func normalize(d Descriptor) (Descriptor, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Exec = strings.TrimSpace(d.Exec)
	d.Class = strings.TrimSpace(d.Class)

	if d.Class == "" && d.Exec != "" {
		d.Class = filepath.Base(strings.Fields(d.Exec)[0])
	}
	if d.Name == "" {
		return Descriptor{}, fmt.Errorf("%w: name is required", ErrMalformed)
	}
	if d.Class == "" {
		return Descriptor{}, fmt.Errorf("%w: class or exec is required", ErrMalformed)
	}
	return d, nil
}

const desktopGroup = "[Desktop Entry]"

// parseDesktop reads the [Desktop Entry] group of a key file.
func parseDesktop(data []byte) (Descriptor, error) {
	var (
		d       Descriptor
		inGroup bool
		seen    bool
		kind    string
		hidden  bool
	)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			inGroup = line == desktopGroup
			seen = seen || inGroup
			continue
		}
		if !inGroup {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "Type":
			kind = value
		case "Name":
			d.Name = value
		case "Exec":
			d.Exec = value
		case "Icon":
			d.Icon = value
		case "StartupWMClass":
			d.Class = value
		case "X-Osso-Service":
			d.Service = value
		case "X-Switcher-ExtraIcon":
			d.ExtraIcon = value
		case "StartupNotify":
			d.StartupNotify = parseBool(value)
		case "X-Switcher-CanHibernate":
			d.CanHibernate = parseBool(value)
		case "Hidden", "NoDisplay":
			hidden = hidden || parseBool(value)
		}
	}
	if err := scanner.Err(); err != nil {
		return Descriptor{}, err
	}

	if !seen {
		return Descriptor{}, fmt.Errorf("%w: missing %s group", ErrMalformed, desktopGroup)
	}
	if kind != "" && kind != "Application" {
		return Descriptor{}, fmt.Errorf("%w: type %q", ErrNotApplication, kind)
	}
	if hidden {
		return Descriptor{}, fmt.Errorf("%w: hidden", ErrNotApplication)
	}
	return d, nil
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.ToLower(s))
	return err == nil && b
}
