package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimirswell/mimirswell-server/internal/domain"
)

type countingScanner struct {
	calls atomic.Int32
	err   error
}

func (c *countingScanner) Scan(ctx context.Context) (*domain.ScanResult, error) {
	c.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.err != nil {
		return nil, c.err
	}
	return &domain.ScanResult{Processed: 3, RemindersSent: 1, Errors: []string{}}, nil
}

func TestNew_InvalidSchedule(t *testing.T) {
	_, err := New(&countingScanner{}, Options{Schedule: "every tuesday"}, nil)
	assert.Error(t, err)
}

func TestRunNow(t *testing.T) {
	scanner := &countingScanner{}
	s, err := New(scanner, Options{}, nil)
	require.NoError(t, err)
	defer s.Stop()

	result, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, int32(1), scanner.calls.Load())
}

func TestRunNow_PropagatesError(t *testing.T) {
	s, err := New(&countingScanner{err: errors.New("store offline")}, Options{}, nil)
	require.NoError(t, err)
	defer s.Stop()

	_, err = s.RunNow(context.Background())
	assert.EqualError(t, err, "store offline")
}

func TestStartSchedulesNextRun(t *testing.T) {
	loc := time.FixedZone("CET", 3600)

	s, err := New(&countingScanner{}, Options{Schedule: "30 8 * * *", Location: loc}, nil)
	require.NoError(t, err)

	s.Start()
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return !s.NextRun().IsZero() }, time.Second, 10*time.Millisecond)

	next := s.NextRun().In(loc)
	assert.Equal(t, 8, next.Hour())
	assert.Equal(t, 30, next.Minute())
	assert.True(t, next.After(time.Now()))
}

func TestStopCancelsScheduledContext(t *testing.T) {
	scanner := &countingScanner{}
	s, err := New(scanner, Options{}, nil)
	require.NoError(t, err)

	s.Start()
	s.Stop()
	s.Stop()

	s.runScheduled()
	assert.Equal(t, int32(1), scanner.calls.Load(), "scan still invoked but sees a canceled context")
}
