package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/josephlewis42/aorta/core/history"
	"github.com/josephlewis42/aorta/core/shell"
	"github.com/pborman/getopt/v2"
)

const defaultHistoryCount = 10

// History lists, searches and edits the command history.
func History(ctx context.Context, d *Dispatcher, args []string, stdio shell.IO) error {
	opts := getopt.New()
	clear := opts.Bool('c', "clear the history by deleting all entries")
	count := opts.Int('n', defaultHistoryCount, "number of entries to list")
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	if err := opts.Getopt(append([]string{"history"}, args...), nil); err != nil || *helpOpt {
		w := stdio.Stderr
		if err != nil {
			fmt.Fprintln(w, err)
		}
		fmt.Fprintln(w, "usage: history [-c] [-n N]")
		fmt.Fprintln(w, "       history search [--prefix|--contains|--regex] [--last N] QUERY")
		fmt.Fprintln(w, "       history stats|clear")
		fmt.Fprintln(w, "       history delete INDEX")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Options:")
		opts.PrintOptions(w)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidArguments, err)
		}
		return nil
	}

	if d.History == nil {
		return fmt.Errorf("%w: history is disabled", ErrExecution)
	}

	if *clear {
		return historyClear(d)
	}

	rest := opts.Args()
	if len(rest) == 0 {
		entries := d.History.Recent(*count)
		first := d.History.Len() - len(entries) + 1
		for i, e := range entries {
			fmt.Fprintf(stdio.Stdout, "%5d  %s\n", first+i, d.formatEntry(e))
		}
		return nil
	}

	switch rest[0] {
	case "search":
		return historySearch(d, rest[1:], stdio)
	case "stats":
		d.printStats(stdio.Stdout, d.History.Stats())
		return nil
	case "clear":
		return historyClear(d)
	case "delete":
		if len(rest) != 2 {
			return fmt.Errorf("%w: usage: history delete INDEX", ErrInvalidArguments)
		}
		index, err := strconv.Atoi(rest[1])
		if err != nil {
			return fmt.Errorf("%w: bad index %q", ErrInvalidArguments, rest[1])
		}
		if err := d.History.Delete(index); err != nil {
			return fmt.Errorf("%w: %w", ErrExecution, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown subcommand %q", ErrInvalidArguments, rest[0])
	}
}

func historyClear(d *Dispatcher) error {
	if err := d.History.Clear(); err != nil {
		return fmt.Errorf("%w: %w", ErrExecution, err)
	}
	return nil
}

func historySearch(d *Dispatcher, args []string, stdio shell.IO) error {
	opts := getopt.New()
	prefix := opts.BoolLong("prefix", 0, "match the start of commands")
	opts.BoolLong("contains", 0, "match anywhere in commands (default)")
	regex := opts.BoolLong("regex", 0, "match commands against a regular expression")
	last := opts.IntLong("last", 0, 0, "only show the last N matches")

	if err := opts.Getopt(append([]string{"search"}, args...), nil); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArguments, err)
	}
	if opts.NArgs() != 1 {
		return fmt.Errorf("%w: usage: history search [--prefix|--contains|--regex] [--last N] QUERY", ErrInvalidArguments)
	}

	mode := history.Contains
	switch {
	case *prefix:
		mode = history.Prefix
	case *regex:
		mode = history.Regex
	}

	entries, err := d.History.Search(mode, opts.Arg(0), *last)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArguments, err)
	}
	for _, e := range entries {
		fmt.Fprintln(stdio.Stdout, d.formatEntry(e))
	}
	return nil
}

// formatEntry renders an entry as "15:04:05 [✓] (0) command [12ms]".
func (d *Dispatcher) formatEntry(e history.Entry) string {
	mark := d.Printer.Sprintf(StyleSuccess, "✓")
	if !e.Success() {
		mark = d.Printer.Sprintf(StyleFailure, "✗")
	}
	return fmt.Sprintf("%s [%s] (%d) %s [%dms]",
		e.Timestamp.Local().Format("15:04:05"), mark, e.ExitCode, e.Command, e.DurationMs)
}

func (d *Dispatcher) printStats(w io.Writer, stats history.Stats) {
	fmt.Fprintln(w, d.Printer.Sprintf(StyleHeading, "History Statistics:"))
	fmt.Fprintf(w, "  Total commands:   %d\n", stats.Total)
	fmt.Fprintf(w, "  Unique commands:  %d\n", stats.Unique)
	fmt.Fprintf(w, "  Failed commands:  %d\n", stats.Failed)
	fmt.Fprintf(w, "  Average duration: %dms\n", stats.AverageDurationMs)

	if len(stats.MostUsed) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, d.Printer.Sprintf(StyleHeading, "Most used commands:"))
	for _, c := range stats.MostUsed {
		fmt.Fprintf(w, "  %s (%dx)\n", c.Command, c.Count)
	}
}

func init() {
	addBuiltin("history", "history [-c] [-n N] [search|stats|clear|delete]", "Display or manipulate the history list.", History)
}
