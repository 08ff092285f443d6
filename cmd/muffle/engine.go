package main

import (
	"context"
	"log/slog"

	"github.com/fwojciec/muffle"
	"github.com/fwojciec/muffle/bloom"
	"github.com/fwojciec/muffle/scan"
	"github.com/fwojciec/muffle/site"
	muffleslog "github.com/fwojciec/muffle/slog"
)

// engine is one running instance of the reprocessing engine bound to a
// single document.
type engine struct {
	state      *scan.State
	scheduler  *scan.Scheduler
	processor  *scan.Processor
	controller *scan.Controller
}

// engineOptions select behaviour that differs between watch and filter.
type engineOptions struct {
	fade        bool
	broadcaster muffle.Broadcaster
}

// newEngine assembles the engine for doc from the configuration in deps.
func newEngine(ctx context.Context, deps *Dependencies, doc muffle.Document, opts engineOptions) *engine {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("host", doc.Hostname())

	fade := cfg.Fade
	if !opts.fade {
		fade = 0
	}
	registry := muffleslog.NewLoggingRegistry(site.NewDefaultRegistry(site.WithFadeDuration(fade)), logger)

	state := scan.NewState(deps.Storage, logger)
	sched := scan.NewScheduler(ctx)

	processorOpts := []scan.Option{
		scan.WithThrottle(cfg.Throttle),
		scan.WithLedger(newLedger(cfg)),
		scan.WithLedgerCap(cfg.LedgerCap),
		scan.WithLogger(logger),
		scan.WithScanGeneric(cfg.ScanGeneric),
	}
	var recorder muffle.StatsRecorder
	if deps.Stats != nil {
		recorder = muffleslog.NewLoggingRecorder(deps.Stats, logger)
		processorOpts = append(processorOpts, scan.WithStats(recorder))
	}
	processor := scan.NewProcessor(doc, registry, state.Settings, sched, processorOpts...)

	return &engine{
		state:      state,
		scheduler:  sched,
		processor:  processor,
		controller: scan.NewController(state, processor, recorder, opts.broadcaster, logger),
	}
}

func newLedger(cfg Config) muffle.Ledger {
	if cfg.Ledger == LedgerBloom {
		return bloom.NewLedger(bloom.DefaultCapacity, bloom.DefaultFPRate)
	}
	return scan.NewLedger()
}
