package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mimirswell/mimirswell-server/internal/cache"
	"github.com/mimirswell/mimirswell-server/internal/clock"
	"github.com/mimirswell/mimirswell-server/internal/domain"
	"github.com/mimirswell/mimirswell-server/internal/store"
)

// Hero variants.
const (
	HeroVariantNew      = "new"
	HeroVariantContinue = "continue"
	HeroVariantDormant  = "dormant"
	HeroVariantFeatured = "featured"
)

// dormantAfterDays is how long a reader must be away before the hero
// switches to the welcome-back variant.
const dormantAfterDays = 7

// HeroCatalog is the slice of the content catalog the hero block needs.
type HeroCatalog interface {
	GetBookByID(id string) (*domain.Book, bool)
	Featured() []*domain.Book
}

// HeroService builds the personalised landing block.
type HeroService struct {
	store  store.Store
	books  HeroCatalog
	cache  cache.Cache[*domain.HeroContent]
	clock  clock.Clock
	loc    *time.Location
	logger *slog.Logger
}

// NewHeroService creates a hero service backed by c.
func NewHeroService(
	st store.Store,
	books HeroCatalog,
	c cache.Cache[*domain.HeroContent],
	clk clock.Clock,
	loc *time.Location,
	logger *slog.Logger,
) *HeroService {
	if loc == nil {
		loc = time.UTC
	}
	return &HeroService{
		store:  st,
		books:  books,
		cache:  c,
		clock:  clk,
		loc:    loc,
		logger: logger,
	}
}

func heroKey(userID string) string {
	return "hero:" + userID
}

// HeroFor returns the landing block for userID. An empty userID gets the
// anonymous featured block.
func (s *HeroService) HeroFor(ctx context.Context, userID string) (*domain.HeroContent, error) {
	key := heroKey(userID)
	if hero, ok := s.cache.Get(ctx, key); ok {
		return hero, nil
	}

	var (
		hero *domain.HeroContent
		err  error
	)
	if userID == "" {
		hero = s.featured("Discover timeless classics", "")
	} else {
		hero, err = s.build(ctx, userID)
		if err != nil {
			return nil, err
		}
	}

	s.cache.Set(ctx, key, hero)
	return hero, nil
}

// Invalidate drops the cached block after the reader's activity changes.
func (s *HeroService) Invalidate(ctx context.Context, userID string) {
	s.cache.Delete(ctx, heroKey(userID))
}

func (s *HeroService) build(ctx context.Context, userID string) (*domain.HeroContent, error) {
	name := "Reader"
	if user, err := s.store.GetUser(ctx, userID); err == nil {
		name = user.DisplayName()
	} else {
		s.logger.Debug("hero: user lookup failed", "user_id", userID, "error", err)
	}

	records, err := s.store.ListUserProgress(ctx, userID)
	if err != nil {
		return nil, storeError(err, "list reading progress")
	}

	var (
		latest  *domain.ProgressRecord
		book    *domain.Book
		waiting int
	)
	sortByLastRead(records)
	for _, rec := range records {
		if rec.Completed {
			continue
		}
		b, ok := s.books.GetBookByID(rec.BookID)
		if !ok {
			continue
		}
		waiting++
		if latest == nil {
			latest, book = rec, b
		}
	}

	if len(records) == 0 {
		hero := s.featured(fmt.Sprintf("Welcome, %s!", name),
			"Begin your saga today. Discover ancient texts and timeless classics.")
		hero.Variant = HeroVariantNew
		return hero, nil
	}
	if latest == nil {
		return s.featured(fmt.Sprintf("%s, %s", s.greeting(), name),
			"Every finished saga opens the door to the next. Find your next read."), nil
	}

	now := s.clock.Now()
	if latest.InactiveDays(now) >= dormantAfterDays {
		return &domain.HeroContent{
			Headline:    fmt.Sprintf("Glad you're back, %s!", name),
			Subheadline: "It's been a while. Pick up where you left off or explore something new.",
			CTAText:     "Continue Reading",
			CTALink:     "/read/" + book.ID,
			Book:        book,
			Variant:     HeroVariantDormant,
		}, nil
	}

	plural := ""
	if waiting > 1 {
		plural = "s"
	}
	return &domain.HeroContent{
		Headline:    fmt.Sprintf("%s, %s", s.greeting(), name),
		Subheadline: fmt.Sprintf("You have %d saga%s waiting for you. Continue your quest!", waiting, plural),
		CTAText:     "Continue Reading",
		CTALink:     "/read/" + book.ID,
		Book:        book,
		Variant:     HeroVariantContinue,
	}, nil
}

func (s *HeroService) featured(headline, sub string) *domain.HeroContent {
	hero := &domain.HeroContent{
		Headline:    headline,
		Subheadline: sub,
		CTAText:     "Explore the Library",
		CTALink:     "/search",
		Variant:     HeroVariantFeatured,
	}
	if featured := s.books.Featured(); len(featured) > 0 {
		hero.Book = featured[0]
		if sub == "" {
			hero.Subheadline = "Start with " + featured[0].Title + " by " + featured[0].Author + "."
		}
	}
	return hero
}

func (s *HeroService) greeting() string {
	switch hour := s.clock.Now().In(s.loc).Hour(); {
	case hour < 12:
		return "Good morning"
	case hour < 17:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}
