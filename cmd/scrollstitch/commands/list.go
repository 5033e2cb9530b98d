package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/bryanchriswhite/ScrollStitch/internal/window"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List capturable windows",
	Long: `List the top-level windows visible to the X11 server, with the ids, titles
and classes that capture --window, --title and --class select on.`,
	Example: `  # List windows in table format (default)
  scrollstitch list

  # List windows in JSON format
  scrollstitch list --format json

  # Show the currently focused window
  scrollstitch list --current`,
	RunE: runList,
}

var (
	listFormat  string
	listCurrent bool
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table or json)")
	listCmd.Flags().BoolVarP(&listCurrent, "current", "c", false, "show current focused window")
}

func runList(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(cmd); err != nil {
		return err
	}

	backend, err := window.NewX11Backend()
	if err != nil {
		return fmt.Errorf("failed to connect to X11: %w", err)
	}
	defer backend.Close()

	if listCurrent {
		current, err := backend.GetFocusedWindow()
		if err != nil {
			return fmt.Errorf("failed to get focused window: %w", err)
		}
		return printWindows([]*window.Info{current})
	}

	windows, err := backend.ListWindows()
	if err != nil {
		return fmt.Errorf("failed to list windows: %w", err)
	}
	return printWindows(windows)
}

func printWindows(windows []*window.Info) error {
	switch listFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(windows)
	case "table":
		return printWindowsTable(windows)
	default:
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", listFormat)
	}
}

func printWindowsTable(windows []*window.Info) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tCLASS\tPID\tSIZE\tFOCUSED\tTITLE")
	fmt.Fprintln(w, "--\t-----\t---\t----\t-------\t-----")

	for _, win := range windows {
		focused := "No"
		if win.Focused {
			focused = "Yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%dx%d\t%s\t%s\n",
			win.Handle, win.Class, win.PID, win.Bounds.Dx(), win.Bounds.Dy(), focused, win.Title)
	}

	return nil
}
