package site_test

import (
	"testing"

	"github.com/fwojciec/muffle"
	"github.com/fwojciec/muffle/mock"
	"github.com/fwojciec/muffle/site"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Resolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hostname string
		want     muffle.Site
	}{
		{"reddit.com", muffle.SiteReddit},
		{"www.reddit.com", muffle.SiteReddit},
		{"old.reddit.com", muffle.SiteReddit},
		{"WWW.Reddit.com:443", muffle.SiteReddit},
		{"www.youtube.com", muffle.SiteYouTube},
		{"m.youtube.com", muffle.SiteYouTube},
		{"www.linkedin.com", muffle.SiteLinkedIn},
		{"notreddit.com", muffle.SiteGeneric},
		{"reddit.com.evil.example", muffle.SiteGeneric},
		{"example.com", muffle.SiteGeneric},
		{"", muffle.SiteGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.hostname, func(t *testing.T) {
			t.Parallel()

			registry := site.NewDefaultRegistry()

			got := registry.Resolve(tt.hostname)

			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Site())
		})
	}
}

func TestRegistry_Memoization(t *testing.T) {
	t.Parallel()

	t.Run("returns the first resolution until reset", func(t *testing.T) {
		t.Parallel()

		registry := site.NewDefaultRegistry()

		first := registry.Resolve("www.reddit.com")
		second := registry.Resolve("www.youtube.com")

		assert.Same(t, first, second)

		registry.Reset()

		assert.Equal(t, muffle.SiteYouTube, registry.Resolve("www.youtube.com").Site())
	})
}

func TestRegistry_FirstMatchWins(t *testing.T) {
	t.Parallel()

	fallback := site.NewGeneric()
	first := &mock.Adapter{
		SiteFn:  func() muffle.Site { return "first" },
		MatchFn: func(string) bool { return true },
	}
	second := &mock.Adapter{
		SiteFn:  func() muffle.Site { return "second" },
		MatchFn: func(string) bool { return true },
	}

	registry := site.NewRegistry(fallback)
	registry.Register(first)
	registry.Register(second)

	assert.Equal(t, muffle.Site("first"), registry.Resolve("anything").Site())
	assert.Equal(t, []muffle.Site{"first", "second"}, registry.List())
}

func TestRegistry_PanickingAdapterFallsBack(t *testing.T) {
	t.Parallel()

	fallback := site.NewGeneric()
	broken := &mock.Adapter{
		MatchFn: func(string) bool { panic("lookup failed") },
	}

	registry := site.NewRegistry(fallback)
	registry.Register(broken)

	got := registry.Resolve("www.reddit.com")

	assert.Same(t, fallback, got)
}
