package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimirswell/mimirswell-server/internal/domain"
	domainerrors "github.com/mimirswell/mimirswell-server/internal/errors"
)

func TestNormalizeSession_PagesRead(t *testing.T) {
	prior := &domain.ProgressRecord{CurrentPage: 10, TotalPages: 100}

	tests := []struct {
		name        string
		update      ProgressUpdate
		prior       *domain.ProgressRecord
		wantCurrent int
		wantRead    int
	}{
		{
			name:        "first report without start page counts one page",
			update:      ProgressUpdate{BookID: "b", CurrentPage: 5, TotalPages: 100},
			wantCurrent: 5,
			wantRead:    1,
		},
		{
			name:        "explicit start page",
			update:      ProgressUpdate{BookID: "b", CurrentPage: 5, TotalPages: 100, SessionStartPage: intPtr(1)},
			wantCurrent: 5,
			wantRead:    4,
		},
		{
			name:        "measured from prior position",
			update:      ProgressUpdate{BookID: "b", CurrentPage: 15, TotalPages: 100},
			prior:       prior,
			wantCurrent: 15,
			wantRead:    5,
		},
		{
			name:        "paging backwards reads nothing",
			update:      ProgressUpdate{BookID: "b", CurrentPage: 8, TotalPages: 100},
			prior:       prior,
			wantCurrent: 8,
			wantRead:    0,
		},
		{
			name:        "zero start page is ignored",
			update:      ProgressUpdate{BookID: "b", CurrentPage: 12, TotalPages: 100, SessionStartPage: intPtr(0)},
			prior:       prior,
			wantCurrent: 12,
			wantRead:    2,
		},
		{
			name:        "current page past the end is clamped",
			update:      ProgressUpdate{BookID: "b", CurrentPage: 130, TotalPages: 100},
			prior:       prior,
			wantCurrent: 100,
			wantRead:    90,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change, err := NormalizeSession(tt.update, tt.prior, day0)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCurrent, change.CurrentPage)
			assert.Equal(t, tt.wantRead, change.PagesRead)
			assert.Equal(t, tt.update.TotalPages, change.TotalPages)
			assert.Nil(t, change.Session)
		})
	}
}

func TestNormalizeSession_Session(t *testing.T) {
	prior := &domain.ProgressRecord{CurrentPage: 10, TotalPages: 100}

	change, err := NormalizeSession(ProgressUpdate{
		BookID:                 "b",
		CurrentPage:            20,
		TotalPages:             100,
		SessionDurationMinutes: intPtr(30),
	}, prior, day0)
	require.NoError(t, err)
	require.NotNil(t, change.Session)

	s := change.Session
	assert.Equal(t, 10, s.StartPage)
	assert.Equal(t, 20, s.EndPage)
	assert.Equal(t, 10, s.PagesRead)
	assert.Equal(t, 30, s.DurationMinutes)
	assert.Equal(t, day0.Add(-30*time.Minute), s.StartedAt)
	assert.Equal(t, day0, s.EndedAt)

	t.Run("first session starts at page one", func(t *testing.T) {
		change, err := NormalizeSession(ProgressUpdate{
			BookID: "b", CurrentPage: 6, TotalPages: 50, SessionDurationMinutes: intPtr(5),
		}, nil, day0)
		require.NoError(t, err)
		require.NotNil(t, change.Session)
		assert.Equal(t, 1, change.Session.StartPage)
	})

	t.Run("zero duration records no session", func(t *testing.T) {
		change, err := NormalizeSession(ProgressUpdate{
			BookID: "b", CurrentPage: 6, TotalPages: 50, SessionDurationMinutes: intPtr(0),
		}, prior, day0)
		require.NoError(t, err)
		assert.Nil(t, change.Session)
	})
}

func TestNormalizeSession_Validation(t *testing.T) {
	tests := map[string]ProgressUpdate{
		"missing book":      {CurrentPage: 1, TotalPages: 10},
		"zero current page": {BookID: "b", CurrentPage: 0, TotalPages: 10},
		"negative total":    {BookID: "b", CurrentPage: 1, TotalPages: -1},
		"negative duration": {BookID: "b", CurrentPage: 1, TotalPages: 10, SessionDurationMinutes: intPtr(-5)},
	}
	for name, u := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NormalizeSession(u, nil, day0)
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
}
