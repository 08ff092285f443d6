package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fwojciec/muffle"
	"github.com/fwojciec/muffle/rod"
	"github.com/fwojciec/muffle/scan"
	gorod "github.com/go-rod/rod"
	"golang.org/x/sync/errgroup"
)

// Run executes the watch command. Every page gets its own tab and its own
// engine; engines share storage, stats and the notification hub. Watch
// returns when the context is cancelled or every tab was closed.
func (c *WatchCmd) Run(deps *Dependencies) error {
	if len(c.URLs) == 0 {
		return muffle.Errorf(muffle.EINVALID, "no pages to watch")
	}

	g, gctx := errgroup.WithContext(deps.Ctx)
	for _, url := range c.URLs {
		g.Go(func() error {
			page, err := deps.Browser.OpenPage(gctx, url)
			if err != nil {
				fmt.Fprintf(deps.Stderr, "error: %s\n", err)
				return nil
			}
			defer page.Close()
			return watchTab(gctx, deps, page)
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// watchTab runs one engine per document load until the tab is closed or ctx
// is cancelled. A navigation ends the current engine and a new one is
// attached to the next document.
func watchTab(ctx context.Context, deps *Dependencies, page *gorod.Page) error {
	for {
		if err := page.Context(ctx).WaitLoad(); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			deps.Logger.Info("tab closed", "err", err)
			return nil
		}

		doc, err := rod.Attach(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			deps.Logger.Info("tab closed", "err", err)
			return nil
		}

		runDocument(ctx, deps, doc)
		_ = doc.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// runDocument starts an engine on doc and blocks until it tears down.
func runDocument(ctx context.Context, deps *Dependencies, doc *rod.Document) {
	e := newEngine(ctx, deps, doc, engineOptions{fade: true, broadcaster: deps.Hub})

	stopListening := e.controller.Listen(ctx)
	defer stopListening()
	if !e.controller.Sync(ctx, scan.DefaultSyncWait) {
		e.state.Load(ctx)
	}

	if deps.Config.Refresh > 0 {
		e.scheduler.Every(deps.Config.Refresh, func(ctx context.Context) {
			if err := e.controller.Refresh(ctx); err != nil {
				deps.Logger.Warn("refresh failed", "err", err)
			}
		})
	}

	observer := &scan.Observer{
		Processor: e.processor,
		Document:  doc,
		Mutations: doc,
		Scheduler: e.scheduler,
		Liveness:  doc,
		Logger:    deps.Logger.With("host", doc.Hostname()),
		Frame:     deps.Config.Frame,
		OnTeardown: func() {
			if deps.Stats == nil {
				return
			}
			if err := deps.Stats.Flush(context.WithoutCancel(ctx)); err != nil {
				deps.Logger.Warn("stats flush failed", "err", err)
			}
		},
	}
	if err := observer.Start(ctx); err != nil {
		deps.Logger.Warn("engine not started", "err", err)
		return
	}
	deps.Logger.Info("watching", "host", doc.Hostname(), "site", e.processor.Adapter().Site())

	select {
	case <-ctx.Done():
		observer.Teardown()
	case <-observer.Done():
	}
}
