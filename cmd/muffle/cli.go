package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/muffle"
	"github.com/fwojciec/muffle/broadcast"
	"github.com/fwojciec/muffle/rod"
	"github.com/fwojciec/muffle/stats"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx       context.Context
	Stdin     io.Reader
	Stdout    io.Writer
	Stderr    io.Writer
	Logger    *slog.Logger
	Config    Config
	Storage   muffle.Storage
	Stats     *stats.Recorder
	Hub       *broadcast.Hub
	Browser   *rod.BrowserManager
	Fetcher   muffle.Fetcher
	Converter muffle.Converter
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config   string `help:"Config file path" env:"MUFFLE_CONFIG" type:"path"`
	LogLevel string `help:"Log level (debug, info, warn, error)" name:"log-level"`

	Watch   WatchCmd   `cmd:"" help:"Open pages in Chrome and keep removing blocked content"`
	Filter  FilterCmd  `cmd:"" help:"Filter a page once and print the result"`
	Words   WordsCmd   `cmd:"" help:"Manage the blocked word list"`
	Enable  EnableCmd  `cmd:"" help:"Enable filtering"`
	Disable DisableCmd `cmd:"" help:"Disable filtering and clear session stats"`
	Stats   StatsCmd   `cmd:"" help:"Show removal statistics"`
}

// WatchCmd is the "watch" subcommand.
type WatchCmd struct {
	URLs     []string `arg:"" name:"url" help:"Pages to open"`
	Headless bool     `help:"Run Chrome without a window"`
}

// FilterCmd is the "filter" subcommand.
type FilterCmd struct {
	Source  string   `arg:"" help:"URL, file path, or - for stdin"`
	Host    string   `help:"Hostname to filter as (defaults to the URL host)"`
	Format  string   `short:"f" default:"html" enum:"html,markdown" help:"Output format (html, markdown)"`
	Browser bool     `short:"b" help:"Render the page in Chrome before filtering"`
	Words   []string `short:"w" name:"word" help:"Block this word instead of the stored list (repeatable)"`
}

// WordsCmd is the "words" subcommand group.
type WordsCmd struct {
	List   WordsListCmd   `cmd:"" default:"1" help:"List blocked words"`
	Add    WordsAddCmd    `cmd:"" help:"Add blocked words"`
	Remove WordsRemoveCmd `cmd:"" help:"Remove blocked words"`
}

// WordsListCmd is the "words list" subcommand.
type WordsListCmd struct{}

// WordsAddCmd is the "words add" subcommand.
type WordsAddCmd struct {
	Words []string `arg:"" name:"word" help:"Words to block"`
}

// WordsRemoveCmd is the "words remove" subcommand.
type WordsRemoveCmd struct {
	Words []string `arg:"" name:"word" help:"Words to unblock"`
}

// EnableCmd is the "enable" subcommand.
type EnableCmd struct{}

// DisableCmd is the "disable" subcommand.
type DisableCmd struct{}

// StatsCmd is the "stats" subcommand.
type StatsCmd struct {
	Session bool `short:"s" help:"Show only the current session"`
}
