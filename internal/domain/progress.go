package domain

import "time"

// ReadingSession is one contiguous reading interval. Sessions are append-only.
type ReadingSession struct {
	StartedAt       time.Time `json:"startedAt" bson:"startedAt"`
	EndedAt         time.Time `json:"endedAt" bson:"endedAt"`
	StartPage       int       `json:"startPage" bson:"startPage"`
	EndPage         int       `json:"endPage" bson:"endPage"`
	PagesRead       int       `json:"pagesRead" bson:"pagesRead"`
	DurationMinutes int       `json:"durationMinutes" bson:"durationMinutes"`
}

// ProgressRecord tracks one user's position in one book.
type ProgressRecord struct {
	ID          string `json:"id" bson:"_id"`
	UserID      string `json:"userId" bson:"userId"`
	BookID      string `json:"bookId" bson:"bookId"`
	CurrentPage int    `json:"currentPage" bson:"currentPage"`
	TotalPages  int    `json:"totalPages" bson:"totalPages"`

	// Completed is sticky: once true it never reverts.
	Completed   bool       `json:"completed" bson:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty" bson:"completedAt,omitempty"`

	FirstReadAt        time.Time  `json:"firstReadAt" bson:"firstReadAt"`
	LastReadAt         time.Time  `json:"lastReadAt" bson:"lastReadAt"`
	LastSessionEndedAt *time.Time `json:"lastSessionEndedAt,omitempty" bson:"lastSessionEndedAt,omitempty"`

	// DaysInactive is a cached value refreshed by the inactivity scan.
	// The authoritative value is always now - LastReadAt.
	DaysInactive int `json:"daysInactive" bson:"daysInactive"`

	ReadingSessions       []ReadingSession `json:"readingSessions" bson:"readingSessions"`
	TotalTimeSpentMinutes int              `json:"totalTimeSpentMinutes" bson:"totalTimeSpentMinutes"`

	// ReminderEpoch increments each time a lapsed reader resumes, so
	// reminder tiers can fire again for a new lapse.
	ReminderEpoch int `json:"reminderEpoch" bson:"reminderEpoch"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// ProgressID generates composite key: "userID:bookID".
func ProgressID(userID, bookID string) string {
	return userID + ":" + bookID
}

// PercentComplete returns progress through the book in [0, 100].
func (p *ProgressRecord) PercentComplete() float64 {
	if p.TotalPages <= 0 {
		return 0
	}
	pct := float64(p.CurrentPage) / float64(p.TotalPages) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// InactiveDays returns whole days elapsed since LastReadAt.
// The difference is absolute so clock skew never yields a negative count.
func (p *ProgressRecord) InactiveDays(now time.Time) int {
	elapsed := now.Sub(p.LastReadAt)
	if elapsed < 0 {
		elapsed = -elapsed
	}
	return int(elapsed / (24 * time.Hour))
}

// ProgressChange describes one normalized progress write.
type ProgressChange struct {
	CurrentPage int
	TotalPages  int
	Session     *ReadingSession // nil when no duration was reported
	PagesRead   int
}

// NewProgressRecord creates the record for a user's first write on a book.
func NewProgressRecord(userID, bookID string, now time.Time) *ProgressRecord {
	return &ProgressRecord{
		ID:              ProgressID(userID, bookID),
		UserID:          userID,
		BookID:          bookID,
		FirstReadAt:     now,
		ReadingSessions: []ReadingSession{},
		CreatedAt:       now,
	}
}

// Apply folds a change into the record and reports whether this write
// completed the book for the first time.
func (p *ProgressRecord) Apply(change ProgressChange, now time.Time) (completedNow bool) {
	if !p.LastReadAt.IsZero() && p.InactiveDays(now) >= int(Tier7Days) {
		p.ReminderEpoch++
	}

	p.CurrentPage = change.CurrentPage
	p.TotalPages = change.TotalPages

	if p.CurrentPage >= p.TotalPages && !p.Completed {
		p.Completed = true
		completedAt := now
		p.CompletedAt = &completedAt
		completedNow = true
	}

	if change.Session != nil {
		p.ReadingSessions = append(p.ReadingSessions, *change.Session)
		p.TotalTimeSpentMinutes += change.Session.DurationMinutes
	}

	if p.FirstReadAt.IsZero() {
		p.FirstReadAt = now
	}
	p.LastReadAt = now
	ended := now
	p.LastSessionEndedAt = &ended
	p.DaysInactive = 0
	p.UpdatedAt = now

	return completedNow
}
