package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show detected platform facts",
	Long:  "Display the detected distribution, package manager, kernel and architecture.",
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("orkesta info: %w", err)
	}

	info := a.platform.Info()
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := cmd.OutOrStdout()
	for _, k := range keys {
		fmt.Fprintf(w, "%-16s %s\n", k+":", info[k])
	}
	fmt.Fprintf(w, "%-16s %s\n", "scripts_dir:", a.cfg.ScriptsDir)
	fmt.Fprintf(w, "%-16s %s\n", "elevation:", a.cfg.Elevation)
	return nil
}
