package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeroService_Variants(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "usr-1", "astrid@example.com", "Astrid")
	hero := f.hero()
	ctx := context.Background()

	t.Run("anonymous", func(t *testing.T) {
		h, err := hero.HeroFor(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, HeroVariantFeatured, h.Variant)
		require.NotNil(t, h.Book)
		assert.True(t, h.Book.Featured)
		assert.Equal(t, "/search", h.CTALink)
	})

	t.Run("new reader", func(t *testing.T) {
		h, err := hero.HeroFor(ctx, "usr-1")
		require.NoError(t, err)
		assert.Equal(t, HeroVariantNew, h.Variant)
		assert.Equal(t, "Welcome, Astrid!", h.Headline)
	})

	f.seedProgress(t, "usr-1", "dracula", day0.Add(-time.Hour))
	f.seedProgress(t, "usr-1", "moby-dick", day0.Add(-2*time.Hour))
	hero.Invalidate(ctx, "usr-1")

	t.Run("continue reading", func(t *testing.T) {
		h, err := hero.HeroFor(ctx, "usr-1")
		require.NoError(t, err)
		assert.Equal(t, HeroVariantContinue, h.Variant)
		assert.Equal(t, "Good morning, Astrid", h.Headline)
		assert.Contains(t, h.Subheadline, "2 sagas")
		assert.Equal(t, "/read/dracula", h.CTALink)
		require.NotNil(t, h.Book)
		assert.Equal(t, "dracula", h.Book.ID)
	})

	t.Run("dormant after a lapse", func(t *testing.T) {
		f.clock.Advance(10 * 24 * time.Hour)
		h, err := hero.HeroFor(ctx, "usr-1")
		require.NoError(t, err)
		// TTL is an hour, so the block has expired by now.
		assert.Equal(t, HeroVariantDormant, h.Variant)
		assert.Equal(t, "Glad you're back, Astrid!", h.Headline)
	})
}

func TestHeroService_CachesPerUser(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "usr-1", "astrid@example.com", "Astrid")
	hero := f.hero()
	ctx := context.Background()

	first, err := hero.HeroFor(ctx, "usr-1")
	require.NoError(t, err)

	f.seedProgress(t, "usr-1", "dracula", day0)
	cached, err := hero.HeroFor(ctx, "usr-1")
	require.NoError(t, err)
	assert.Same(t, first, cached)

	hero.Invalidate(ctx, "usr-1")
	fresh, err := hero.HeroFor(ctx, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, HeroVariantContinue, fresh.Variant)
}
