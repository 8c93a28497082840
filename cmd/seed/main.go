// Package main seeds a store with demo readers and backdated reading history.
//
// Each reader gets a streak of recent sessions, one finished book and one
// book left idle long enough to be picked up by the next inactivity scan.
// Storage is selected with the same flags and environment as the server.
//
// Usage:
//
//	STORAGE_DRIVER=badger DATA_PATH=~/.mimirswell/db go run ./cmd/seed
//	SEED_READERS=5 go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/samber/do/v2"

	"github.com/mimirswell/mimirswell-server/internal/clock"
	"github.com/mimirswell/mimirswell-server/internal/config"
	"github.com/mimirswell/mimirswell-server/internal/content"
	"github.com/mimirswell/mimirswell-server/internal/di"
	"github.com/mimirswell/mimirswell-server/internal/di/providers"
	"github.com/mimirswell/mimirswell-server/internal/domain"
	"github.com/mimirswell/mimirswell-server/internal/logger"
	"github.com/mimirswell/mimirswell-server/internal/service"
	"github.com/mimirswell/mimirswell-server/internal/store"
)

const (
	demoPassword = "mimirswell-demo"
	historyDays  = 30
)

// idleDays are how long each reader's abandoned book has been untouched,
// one per reminder tier.
var idleDays = []int{8, 15, 22, 29}

func main() {
	readers := 3
	if v := os.Getenv("SEED_READERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			log.Fatalf("SEED_READERS must be a positive integer, got %q", v)
		}
		readers = n
	}

	injector := di.NewContainer()
	defer func() { _ = injector.Shutdown() }()

	now := time.Now()
	mock := clock.NewMock(now.AddDate(0, 0, -historyDays))
	do.OverrideValue[clock.Clock](injector, mock)

	cfg := do.MustInvoke[*config.Config](injector)
	lg := do.MustInvoke[*logger.Logger](injector)
	st := do.MustInvoke[*providers.StoreHandle](injector)
	catalog := do.MustInvoke[*content.Catalog](injector)
	authSvc := do.MustInvoke[*service.AuthService](injector)

	// No completion notices or hero invalidation while backfilling.
	progress := service.NewProgressService(st.Store, nil, nil, nil, mock, cfg.Location(), lg.Logger)

	books := catalog.GetAllBooks()
	if len(books) < 3 {
		log.Fatalf("catalog has %d books, need at least 3", len(books))
	}

	ctx := context.Background()
	rng := rand.New(rand.NewPCG(uint64(now.UnixNano()), 0))

	for n := range readers {
		email := fmt.Sprintf("reader%d@mimirswell.test", n+1)
		mock.Set(now.AddDate(0, 0, -historyDays))

		user, err := ensureReader(ctx, authSvc, st.Store, email, fmt.Sprintf("Demo Reader %d", n+1))
		if err != nil {
			log.Fatalf("create %s: %v", email, err)
		}

		picks := rng.Perm(len(books))[:3]
		finished, current, idle := books[picks[0]], books[picks[1]], books[picks[2]]
		idleFor := idleDays[n%len(idleDays)]

		var sessions []plannedSession
		// A few early sessions on the idle book, then nothing.
		sessions = append(sessions, plan(rng, now, idle, daysAgo(idleFor+2, idleFor), false)...)
		sessions = append(sessions, plan(rng, now, finished, daysAgo(historyDays-5, historyDays-8), true)...)
		// The current book carries the streak up to yesterday.
		sessions = append(sessions, plan(rng, now, current, daysAgo(10, 1), false)...)

		slices.SortFunc(sessions, func(a, b plannedSession) int { return a.at.Compare(b.at) })

		recorded := 0
		for _, ps := range sessions {
			mock.Set(ps.at)
			if record(ctx, progress, rng, user.ID, ps) {
				recorded++
			}
		}

		fmt.Printf("Seeded %s (%s): %d sessions, idle %q for %d days\n", email, user.ID, recorded, idle.Title, idleFor)
	}

	fmt.Printf("\nDone. Sign in with any seeded email and password %q.\n", demoPassword)
}

func ensureReader(ctx context.Context, authSvc *service.AuthService, st store.Store, email, name string) (*domain.User, error) {
	user, err := st.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return authSvc.Register(ctx, service.RegisterRequest{Email: email, Password: demoPassword, Name: name})
}

// plannedSession is one backdated page report.
type plannedSession struct {
	at       time.Time
	bookID   string
	from, to int
	total    int
}

// daysAgo lists day offsets from first down to last, inclusive.
func daysAgo(first, last int) []int {
	days := make([]int, 0, first-last+1)
	for d := first; d >= last; d-- {
		days = append(days, d)
	}
	return days
}

// plan spreads reading of book over days. With finish set the last session
// reaches the final page, otherwise the reader stops short of it.
func plan(rng *rand.Rand, now time.Time, book *domain.Book, days []int, finish bool) []plannedSession {
	total := pageCount(book)
	step := max(1, (total-1)/len(days))

	out := make([]plannedSession, 0, len(days))
	page := 0
	for i, d := range days {
		next := min(page+1+rng.IntN(step), total-1)
		if finish && i == len(days)-1 {
			next = total
		}
		if next <= page {
			break
		}
		at := now.AddDate(0, 0, -d).Add(time.Duration(rng.IntN(12)) * time.Hour)
		out = append(out, plannedSession{at: at, bookID: book.ID, from: page, to: next, total: total})
		page = next
	}
	return out
}

func record(ctx context.Context, progress *service.ProgressService, rng *rand.Rand, userID string, ps plannedSession) bool {
	start := ps.from + 1
	minutes := 10 + rng.IntN(50)
	_, err := progress.Record(ctx, userID, service.ProgressUpdate{
		BookID:                 ps.bookID,
		CurrentPage:            ps.to,
		TotalPages:             ps.total,
		SessionStartPage:       &start,
		SessionDurationMinutes: &minutes,
	})
	if err != nil {
		log.Printf("record %s pages %d-%d: %v", ps.bookID, start, ps.to, err)
		return false
	}
	return true
}

func pageCount(book *domain.Book) int {
	if book.PageCount > 1 {
		return book.PageCount
	}
	return 300
}
