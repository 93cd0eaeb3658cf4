package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/josephlewis42/aorta/core/history"
	"github.com/spf13/cobra"
	yamlv2 "gopkg.in/yaml.v2"
	"sigs.k8s.io/yaml"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Explore the command history.",
}

// readHistory loads every entry from the configured history file.
func readHistory(cmd *cobra.Command) ([]history.Entry, error) {
	cfg, err := loadConfig(newLogger(cmd))
	if err != nil {
		return nil, err
	}

	fd, err := cfg.ReadHistory()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, nil
	case err != nil:
		return nil, err
	}
	defer fd.Close()

	var entries []history.Entry
	err = history.ReadJSONLines(fd, func(e history.Entry) {
		entries = append(entries, e)
	})
	return entries, err
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a summary of the history.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		entries, err := readHistory(cmd)
		if err != nil {
			return err
		}

		out, err := yamlv2.Marshal(history.Summarize(entries))
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	},
}

var listCount int

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the most recent history entries.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		entries, err := readHistory(cmd)
		if err != nil {
			return err
		}

		first := 0
		if listCount > 0 && len(entries) > listCount {
			first = len(entries) - listCount
		}
		for i, e := range entries[first:] {
			fmt.Fprintf(cmd.OutOrStdout(), "%5d  %s  %s\n", first+i+1, e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Command)
		}
		return nil
	},
}

var (
	searchMode  string
	searchLimit int
)

var historySearchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Print history entries matching a query as YAML.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		var mode history.SearchMode
		switch searchMode {
		case "contains":
			mode = history.Contains
		case "prefix":
			mode = history.Prefix
		case "regex":
			mode = history.Regex
		default:
			return fmt.Errorf("unknown search mode %q, use contains, prefix or regex", searchMode)
		}

		entries, err := readHistory(cmd)
		if err != nil {
			return err
		}

		matches, err := history.Filter(entries, mode, args[0], searchLimit)
		if err != nil {
			return err
		}

		out, err := yaml.Marshal(matches)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyStatsCmd)
	historyCmd.AddCommand(historySearchCmd)

	historyListCmd.Flags().IntVarP(&listCount, "number", "n", 20, "number of entries to print, 0 for all")
	historySearchCmd.Flags().StringVar(&searchMode, "mode", "contains", "match mode: contains, prefix or regex")
	historySearchCmd.Flags().IntVar(&searchLimit, "last", 0, "only show the last N matches")
}
