package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/mimirswell/mimirswell-server/internal/auth"
	"github.com/mimirswell/mimirswell-server/internal/cache"
	"github.com/mimirswell/mimirswell-server/internal/clock"
	"github.com/mimirswell/mimirswell-server/internal/content"
	"github.com/mimirswell/mimirswell-server/internal/domain"
	"github.com/mimirswell/mimirswell-server/internal/events"
	"github.com/mimirswell/mimirswell-server/internal/notify"
	"github.com/mimirswell/mimirswell-server/internal/ratelimit"
	"github.com/mimirswell/mimirswell-server/internal/service"
	"github.com/mimirswell/mimirswell-server/internal/store"
)

const testAppURL = "https://mimirswell.test"

// day0 is a Monday morning in UTC.
var day0 = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

// testEnvelope matches the success and failure envelopes.
type testEnvelope[T any] struct {
	Success bool            `json:"success"`
	Data    T               `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Details json.RawMessage `json:"details"`
}

// testServer wraps the API server with direct access to its collaborators.
type testServer struct {
	*Server
	api      humatest.TestAPI
	store    store.Store
	clock    *clock.Mock
	notifier *notify.Recorder
	events   *events.Recorder
	tokens   *auth.TokenService
}

type serverOption func(*Options, *serverDeps)

type serverDeps struct {
	limiter *ratelimit.KeyedRateLimiter
}

func withCronSecret(secret string) serverOption {
	return func(o *Options, _ *serverDeps) { o.CronSecret = secret }
}

func withLoginLimiter(l *ratelimit.KeyedRateLimiter) serverOption {
	return func(_ *Options, d *serverDeps) { d.limiter = l }
}

// setupTestServer builds a server over a temporary badger store, the
// embedded catalog and a mock clock.
func setupTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	var (
		options Options
		deps    serverDeps
	)
	for _, opt := range opts {
		opt(&options, &deps)
	}

	logger := slog.New(slog.DiscardHandler)
	clk := clock.NewMock(day0)

	st, err := store.New(t.TempDir(), logger)
	require.NoError(t, err)

	catalog, err := content.New(content.Options{Logger: logger})
	require.NoError(t, err)

	tokens, err := auth.NewTokenService([]byte("0123456789abcdef0123456789abcdef"), time.Hour, clk)
	require.NoError(t, err)

	notifier := &notify.Recorder{}
	recorder := &events.Recorder{}

	completion := service.NewCompletionService(st, catalog, notifier, testAppURL, logger)
	hero := service.NewHeroService(st, catalog, cache.NewTTL[*domain.HeroContent](time.Hour, clk), clk, time.UTC, logger)
	progress := service.NewProgressService(st, completion, hero, recorder, clk, time.UTC, logger)

	services := &Services{
		Auth:       service.NewAuthService(st, tokens, deps.limiter, clk, logger),
		Progress:   progress,
		Stats:      service.NewStatsService(st, clk, time.UTC, logger),
		Export:     service.NewExportService(st, time.UTC, logger),
		Inactivity: service.NewInactivityScanner(st, catalog, notifier, recorder, clk, time.UTC, testAppURL, logger),
		Library:    service.NewLibraryService(st, catalog, clk, logger),
		Completion: completion,
		Hero:       hero,
		Catalog:    catalog,
	}

	s := NewServer(st, services, options, logger)

	t.Cleanup(func() {
		progress.Wait()
		_ = st.Close()
	})

	return &testServer{
		Server:   s,
		api:      humatest.Wrap(t, s.API()),
		store:    st,
		clock:    clk,
		notifier: notifier,
		events:   recorder,
		tokens:   tokens,
	}
}

// createUser stores a user and returns a bearer header for it.
func (ts *testServer) createUser(t *testing.T, userID, email, name string) string {
	t.Helper()

	u := &domain.User{ID: userID, Email: email, Name: name, CreatedAt: day0, UpdatedAt: day0}
	require.NoError(t, ts.store.CreateUser(context.Background(), u))

	token, _, err := ts.tokens.Issue(u)
	require.NoError(t, err)
	return "Authorization: Bearer " + token
}

// decodeEnvelope unmarshals a response body into an envelope.
func decodeEnvelope[T any](t *testing.T, resp *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), "body: %s", resp.Body.String())
	return env
}
