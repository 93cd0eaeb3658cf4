package history

import (
	"sort"
)

const topCommands = 5

// CommandCount is the number of times a command was run.
type CommandCount struct {
	Command string `json:"command" yaml:"command"`
	Count   int    `json:"count" yaml:"count"`
}

// Stats summarizes a history.
type Stats struct {
	Total             int            `json:"total" yaml:"total"`
	Unique            int            `json:"unique" yaml:"unique"`
	Failed            int            `json:"failed" yaml:"failed"`
	AverageDurationMs int64          `json:"average_duration_ms" yaml:"average_duration_ms"`
	MostUsed          []CommandCount `json:"most_used" yaml:"most_used"`
}

// Stats computes summary statistics over every entry.
func (h *History) Stats() Stats {
	return Summarize(h.All())
}

// Summarize computes statistics for entries. MostUsed holds the five most
// frequent commands, ties broken alphabetically.
func Summarize(entries []Entry) Stats {
	var out Stats
	counts := make(map[string]int)
	var totalMs int64

	for _, e := range entries {
		out.Total++
		if !e.Success() {
			out.Failed++
		}
		totalMs += e.DurationMs
		counts[e.Command]++
	}

	out.Unique = len(counts)
	if out.Total > 0 {
		out.AverageDurationMs = totalMs / int64(out.Total)
	}

	for cmd, count := range counts {
		out.MostUsed = append(out.MostUsed, CommandCount{Command: cmd, Count: count})
	}
	sort.Slice(out.MostUsed, func(i, j int) bool {
		a, b := out.MostUsed[i], out.MostUsed[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Command < b.Command
	})
	if len(out.MostUsed) > topCommands {
		out.MostUsed = out.MostUsed[:topCommands]
	}

	return out
}
