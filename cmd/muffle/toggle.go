package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/muffle"
)

// Run executes the enable command.
func (c *EnableCmd) Run(deps *Dependencies) error {
	if err := setEnabled(deps, true); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", muffle.ErrorMessage(err))
		return err
	}
	fmt.Fprintln(deps.Stdout, "Filtering enabled")
	return nil
}

// Run executes the disable command. Session counters start over the next
// time filtering is enabled.
func (c *DisableCmd) Run(deps *Dependencies) error {
	if err := setEnabled(deps, false); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", muffle.ErrorMessage(err))
		return err
	}
	if deps.Stats != nil {
		if err := deps.Stats.ResetSession(deps.Ctx); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", muffle.ErrorMessage(err))
			return err
		}
	}
	fmt.Fprintln(deps.Stdout, "Filtering disabled")
	return nil
}

func setEnabled(deps *Dependencies, enabled bool) error {
	raw, err := json.Marshal(enabled)
	if err != nil {
		return err
	}
	return deps.Storage.Set(deps.Ctx, map[string]json.RawMessage{muffle.KeyEnabled: raw})
}
