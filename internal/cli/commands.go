package cli

import (
	"fmt"
	"runtime"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgentOS/switcherd/internal/engine"
)

// version is set at build time with -ldflags.
var version = "0.1.0"

var killCmd = &cobra.Command{
	Use:   "kill <lru|all|app:SERVICE>",
	Short: "Terminate hibernation-capable applications",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := NewClient(apiAddr).Kill(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d window(s) signalled\n", res.Killed)
		if res.Error != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", res.Error)
		}
		return nil
	},
}

var entriesCmd = &cobra.Command{
	Use:     "entries",
	Aliases: []string{"ls"},
	Short:   "List tracked applications and their windows",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := NewClient(apiAddr).Entries()
		if err != nil {
			return err
		}
		printEntries(cmd, entries)
		return nil
	},
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show global tracker state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := NewClient(apiAddr).State()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "apps\t%d\n", s.Apps)
		fmt.Fprintf(w, "live windows\t%d\n", s.LiveWindows)
		fmt.Fprintf(w, "hibernating\t%d\n", s.Hibernating)
		fmt.Fprintf(w, "desktop shown\t%t\n", s.DesktopShown)
		fmt.Fprintf(w, "fullscreen\t%t\n", s.Fullscreen)
		fmt.Fprintf(w, "low memory\t%t\n", s.LowMemory)
		fmt.Fprintf(w, "background kill\t%t\n", s.BackgroundKill)
		fmt.Fprintf(w, "blinking\t%t\n", s.Blinking)
		return w.Flush()
	},
}

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "switcherd %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "  OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(cmd.OutOrStdout(), "  Go: %s\n", runtime.Version())
	},
}

func printEntries(cmd *cobra.Command, entries []engine.EntrySnapshot) {
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no applications")
		return
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATE")
	for _, app := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", app.ID, app.Title, flags(app))
		for _, leaf := range app.Children {
			fmt.Fprintf(w, "  %s\t  %s\t%s\n", leaf.ID, leaf.Subtitle, flags(leaf))
		}
	}
	w.Flush()
}

func flags(e engine.EntrySnapshot) string {
	var out []string
	if e.Hibernating {
		out = append(out, "hibernating")
	}
	if e.Launching {
		out = append(out, "launching")
	}
	if e.Blinking {
		out = append(out, "blinking")
	}
	if len(out) == 0 {
		return "-"
	}
	return strings.Join(out, ",")
}
