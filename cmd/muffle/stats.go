package main

import (
	"cmp"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/fwojciec/muffle"
)

// Run executes the stats command.
func (c *StatsCmd) Run(deps *Dependencies) error {
	total, session, err := deps.Stats.Snapshot(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", muffle.ErrorMessage(err))
		return err
	}

	if !c.Session {
		printStats(deps.Stdout, "All time", total)
		fmt.Fprintln(deps.Stdout)
	}
	printStats(deps.Stdout, "This session", session)
	return nil
}

func printStats(w io.Writer, title string, s muffle.Stats) {
	since := time.UnixMilli(s.TimeStarted).UTC().Format(time.DateTime)
	fmt.Fprintf(w, "%s (since %s): %d removed\n", title, since, s.TotalBlocked)
	if s.TotalBlocked == 0 {
		return
	}
	fmt.Fprintln(w, "  by site:")
	for _, k := range byCount(s.SiteStats) {
		fmt.Fprintf(w, "    %-10s %d\n", k, s.SiteStats[k])
	}
	fmt.Fprintln(w, "  by word:")
	for _, k := range byCount(s.WordStats) {
		fmt.Fprintf(w, "    %-10s %d\n", k, s.WordStats[k])
	}
}

// byCount returns the keys of m ordered by descending count, then name.
func byCount(m map[string]int) []string {
	keys := slices.Collect(maps.Keys(m))
	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(m[b], m[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return keys
}
