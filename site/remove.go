package site

import (
	"context"
	"time"

	"github.com/fwojciec/muffle"
)

// DefaultFadeDuration is how long a faded element stays in the document
// before it is detached.
const DefaultFadeDuration = 300 * time.Millisecond

// DimOpacity is the opacity applied to dimmed comments.
const DimOpacity = "0.2"

// Strategy is a way of making a matched unit disappear.
type Strategy int

// Removal strategies.
const (
	// Delete detaches the target immediately.
	Delete Strategy = iota
	// Fade transitions the target to transparent and detaches it afterwards.
	Fade
	// Dim keeps the target in place at low opacity with pointer events
	// disabled, so reply threads stay intact.
	Dim
	// Hide collapses the target with display:none.
	Hide
)

// String returns the marker value recorded for the strategy.
func (s Strategy) String() string {
	switch s {
	case Delete:
		return "deleted"
	case Fade:
		return "faded"
	case Dim:
		return "dimmed"
	case Hide:
		return "hidden"
	default:
		return "unknown"
	}
}

// remover applies a Strategy on behalf of an adapter.
type remover struct {
	site muffle.Site
	fade time.Duration
}

// apply marks target, removes it with strategy and calls notify once. For
// Fade with a non-nil scheduler, detachment and notify happen after the
// fade duration.
func (r remover) apply(strategy Strategy, target muffle.Element, word string, sched muffle.Scheduler, notify muffle.RemovalFunc) error {
	text := target.Text()
	report := func() {
		if notify != nil {
			notify(muffle.Removal{Element: target, Site: r.site, Text: text, Word: word})
		}
	}

	if err := target.SetAttr(muffle.MarkerAttr, strategy.String()); err != nil {
		return err
	}

	switch strategy {
	case Dim:
		if err := target.SetStyle("opacity", DimOpacity); err != nil {
			return err
		}
		if err := target.SetStyle("pointer-events", "none"); err != nil {
			return err
		}
	case Hide:
		if err := target.SetStyle("display", "none"); err != nil {
			return err
		}
	case Fade:
		if sched != nil && r.fade > 0 {
			if err := target.SetStyle("transition", "opacity "+r.fade.String()+" ease-out"); err != nil {
				return err
			}
			if err := target.SetStyle("opacity", "0"); err != nil {
				return err
			}
			sched.Finally(r.fade, func(context.Context) {
				// The element may already be gone; the removal still counts.
				_ = target.Remove()
				report()
			})
			return nil
		}
		if err := target.Remove(); err != nil {
			return err
		}
	default:
		if err := target.Remove(); err != nil {
			return err
		}
	}

	report()
	return nil
}

// Option configures an adapter.
type Option func(*options)

type options struct {
	fade time.Duration
}

// WithFadeDuration sets how long faded elements stay before detachment. A
// zero duration detaches immediately.
func WithFadeDuration(d time.Duration) Option {
	return func(o *options) {
		o.fade = d
	}
}

func buildOptions(opts []Option) options {
	o := options{fade: DefaultFadeDuration}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
