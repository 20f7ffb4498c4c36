package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const emailDesktop = `# comment
[Desktop Entry]
Type=Application
Name=Email
Exec=/usr/bin/osso-email --startup
Icon=qgn_list_email
StartupWMClass=osso_email
X-Osso-Service=com.nokia.osso_email
StartupNotify=true
X-Switcher-CanHibernate=true

[Desktop Action Compose]
Name=Compose
`

func TestParseDesktop(t *testing.T) {
	d, err := Parse(".desktop", []byte(emailDesktop))
	require.NoError(t, err)

	assert.Equal(t, "osso_email", d.Class)
	assert.Equal(t, "Email", d.Name)
	assert.Equal(t, "com.nokia.osso_email", d.Service)
	assert.Equal(t, "qgn_list_email", d.Icon)
	assert.True(t, d.StartupNotify)
	assert.True(t, d.CanHibernate)
}

func TestParseDesktopDerivesClassFromExec(t *testing.T) {
	d, err := Parse(".desktop", []byte("[Desktop Entry]\nName=Notes\nExec=/usr/bin/notes -x\n"))
	require.NoError(t, err)
	assert.Equal(t, "notes", d.Class)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name    string
		ext     string
		content string
		target  error
	}{
		{name: "no group", ext: ".desktop", content: "Name=x\n", target: ErrMalformed},
		{name: "no name", ext: ".desktop", content: "[Desktop Entry]\nExec=x\n", target: ErrMalformed},
		{name: "link", ext: ".desktop", content: "[Desktop Entry]\nType=Link\nName=x\nExec=x\n", target: ErrNotApplication},
		{name: "hidden", ext: ".desktop", content: "[Desktop Entry]\nName=x\nExec=x\nNoDisplay=true\n", target: ErrNotApplication},
		{name: "yaml without class", ext: ".yaml", content: "name: Foo\n", target: ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.ext, []byte(tt.content))
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestParseYAMLAndTOML(t *testing.T) {
	y, err := Parse(".yml", []byte("class: browser\nname: Web\nservice: com.nokia.browser\ncan_hibernate: true\nextra_icon: web_extra\n"))
	require.NoError(t, err)
	assert.Equal(t, Descriptor{
		Class:        "browser",
		Name:         "Web",
		Service:      "com.nokia.browser",
		CanHibernate: true,
		ExtraIcon:    "web_extra",
	}, y)

	tm, err := Parse(".toml", []byte("class = \"clock\"\nname = \"Clock\"\nstartup_notify = true\n"))
	require.NoError(t, err)
	assert.Equal(t, "clock", tm.Class)
	assert.True(t, tm.StartupNotify)

	_, err = Parse(".ini", nil)
	assert.Error(t, err)

	_, err = Parse(".yaml", []byte("class: [unterminated"))
	assert.Error(t, err)
}

func TestReplaceReportsDiff(t *testing.T) {
	c := New(
		Descriptor{Class: "a", Name: "A"},
		Descriptor{Class: "b", Name: "B"},
	)

	diff := c.Replace([]Descriptor{
		{Class: "b", Name: "B2"},
		{Class: "c", Name: "C"},
	})

	assert.Equal(t, []string{"a"}, diff.Removed)
	require.Len(t, diff.Changed, 1)
	assert.Equal(t, "B2", diff.Changed[0].Name)
	require.Len(t, diff.Added, 1)
	assert.Equal(t, "c", diff.Added[0].Class)
	assert.Equal(t, 2, c.Len())

	assert.True(t, c.Replace(c.All()).Empty())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScannerSkipsMalformedAndDuplicates(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()

	writeFile(t, filepath.Join(first, "email.desktop"), emailDesktop)
	writeFile(t, filepath.Join(first, "nested", "web.yaml"), "class: browser\nname: Web\n")
	writeFile(t, filepath.Join(first, "broken.desktop"), "[Desktop Entry]\nExec=x\n")
	writeFile(t, filepath.Join(first, "readme.txt"), "not a descriptor")
	writeFile(t, filepath.Join(second, "email.toml"), "class = \"osso_email\"\nname = \"Shadowed\"\n")
	writeFile(t, filepath.Join(second, "clock.toml"), "class = \"clock\"\nname = \"Clock\"\n")

	s := NewScanner([]string{first, filepath.Join(first, "missing"), second}, "**/*.{desktop,yaml,yml,toml}", nil)
	descs, err := s.Scan()
	require.NoError(t, err)

	byClass := map[string]Descriptor{}
	for _, d := range descs {
		byClass[d.Class] = d
	}
	assert.Len(t, byClass, 3)
	assert.Equal(t, "Email", byClass["osso_email"].Name)
	assert.Equal(t, "Web", byClass["browser"].Name)
	assert.Equal(t, "Clock", byClass["clock"].Name)
	assert.Equal(t, filepath.Join(first, "email.desktop"), byClass["osso_email"].Source)
}

func TestScannerRejectsBadPattern(t *testing.T) {
	s := NewScanner([]string{t.TempDir()}, "[", nil)
	_, err := s.Scan()
	assert.Error(t, err)
}

func TestWatcherCallsReloadHook(t *testing.T) {
	dir := t.TempDir()
	changed := make(chan struct{}, 4)

	w, err := NewWatcher([]string{dir}, func() { changed <- struct{}{} }, nil)
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	writeFile(t, filepath.Join(dir, "notes.desktop"), "[Desktop Entry]\nName=Notes\nExec=notes\n")

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("reload hook was not called")
	}
}
