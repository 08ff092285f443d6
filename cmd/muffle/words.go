package main

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/fwojciec/muffle"
	"github.com/fwojciec/muffle/scan"
)

// Run executes the words list command.
func (c *WordsListCmd) Run(deps *Dependencies) error {
	words, err := loadWords(deps)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", muffle.ErrorMessage(err))
		return err
	}

	if len(words) == 0 {
		fmt.Fprintln(deps.Stdout, "No blocked words. Use 'muffle words add' to add some.")
		return nil
	}
	for _, w := range words {
		fmt.Fprintln(deps.Stdout, w)
	}
	return nil
}

// Run executes the words add command.
func (c *WordsAddCmd) Run(deps *Dependencies) error {
	words, err := loadWords(deps)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", muffle.ErrorMessage(err))
		return err
	}

	var added []string
	for _, w := range scan.NormalizeWords(c.Words) {
		if !slices.Contains(words, w) {
			words = append(words, w)
			added = append(added, w)
		}
	}
	if len(added) == 0 {
		fmt.Fprintln(deps.Stdout, "Nothing to add.")
		return nil
	}
	if err := saveWords(deps, words); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", muffle.ErrorMessage(err))
		return err
	}

	for _, w := range added {
		fmt.Fprintf(deps.Stdout, "Added %q\n", w)
	}
	return nil
}

// Run executes the words remove command.
func (c *WordsRemoveCmd) Run(deps *Dependencies) error {
	words, err := loadWords(deps)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", muffle.ErrorMessage(err))
		return err
	}

	remove := scan.NormalizeWords(c.Words)
	kept := slices.DeleteFunc(slices.Clone(words), func(w string) bool {
		return slices.Contains(remove, w)
	})
	if len(kept) == len(words) {
		fmt.Fprintf(deps.Stderr, "error: none of the words are blocked. Use 'muffle words list' to see them.\n")
		return muffle.Errorf(muffle.ENOTFOUND, "words not blocked")
	}
	if err := saveWords(deps, kept); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", muffle.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Removed %d word(s)\n", len(words)-len(kept))
	return nil
}

// loadWords returns the stored word list. The first time it is called the
// default list is stored, so later edits start from what the engine has been
// filtering.
func loadWords(deps *Dependencies) ([]string, error) {
	values, err := deps.Storage.Get(deps.Ctx, muffle.KeyBlockedWords)
	if err != nil {
		return nil, err
	}
	raw, ok := values[muffle.KeyBlockedWords]
	if !ok {
		words := slices.Clone(muffle.DefaultWords)
		if err := saveWords(deps, words); err != nil {
			return nil, err
		}
		deps.Logger.Info("default words stored", "words", len(words))
		return words, nil
	}
	var words []string
	if err := json.Unmarshal(raw, &words); err != nil {
		return nil, muffle.Errorf(muffle.EINVALID, "stored word list is corrupt: %v", err)
	}
	return scan.NormalizeWords(words), nil
}

func saveWords(deps *Dependencies, words []string) error {
	if words == nil {
		words = []string{}
	}
	raw, err := json.Marshal(words)
	if err != nil {
		return err
	}
	return deps.Storage.Set(deps.Ctx, map[string]json.RawMessage{muffle.KeyBlockedWords: raw})
}
