package domain

import (
	"fmt"
	"time"
)

// ReminderTier is an inactivity threshold in days.
type ReminderTier int

// Inactivity tiers, ascending.
const (
	Tier7Days  ReminderTier = 7
	Tier14Days ReminderTier = 14
	Tier21Days ReminderTier = 21
	Tier28Days ReminderTier = 28
)

// ReminderTiers lists every tier, highest first.
var ReminderTiers = []ReminderTier{Tier28Days, Tier21Days, Tier14Days, Tier7Days}

// TierFor returns the highest tier met by daysInactive, or false below the
// lowest threshold.
func TierFor(daysInactive int) (ReminderTier, bool) {
	for _, tier := range ReminderTiers {
		if daysInactive >= int(tier) {
			return tier, true
		}
	}
	return 0, false
}

// Type returns the reminder type string, e.g. "inactive_14_days".
func (t ReminderTier) Type() string {
	return fmt.Sprintf("inactive_%d_days", int(t))
}

// AutomationResponse records the outcome of a notification dispatch.
type AutomationResponse struct {
	Success bool   `json:"success" bson:"success"`
	Message string `json:"message" bson:"message"`
}

// ReminderLog is the deduplication ledger for inactivity reminders.
// At most one row exists per (UserID, BookID, ReminderType, Epoch).
type ReminderLog struct {
	ID                 string             `json:"id" bson:"_id"`
	UserID             string             `json:"userId" bson:"userId"`
	UserEmail          string             `json:"userEmail" bson:"userEmail"`
	UserName           string             `json:"userName" bson:"userName"`
	BookID             string             `json:"bookId" bson:"bookId"`
	BookName           string             `json:"bookName" bson:"bookName"`
	ReminderType       string             `json:"reminderType" bson:"reminderType"`
	Epoch              int                `json:"epoch" bson:"epoch"`
	DaysInactive       int                `json:"daysInactive" bson:"daysInactive"`
	SentAt             time.Time          `json:"sentAt" bson:"sentAt"`
	AutomationResponse AutomationResponse `json:"automationResponse" bson:"automationResponse"`
}

// ReminderKey identifies one ledger slot.
type ReminderKey struct {
	UserID       string
	BookID       string
	ReminderType string
	Epoch        int
}

// Key returns the ledger slot of the log row.
func (r *ReminderLog) Key() ReminderKey {
	return ReminderKey{UserID: r.UserID, BookID: r.BookID, ReminderType: r.ReminderType, Epoch: r.Epoch}
}

// String renders the key as a single storage key segment.
func (k ReminderKey) String() string {
	return fmt.Sprintf("%s:%s:%s:%d", k.UserID, k.BookID, k.ReminderType, k.Epoch)
}

// ScanResult summarizes one inactivity scan.
// Errors entries read "<progressId>: <message>".
type ScanResult struct {
	Processed     int              `json:"processed"`
	RemindersSent int              `json:"remindersSent"`
	Skipped       int              `json:"skipped"`
	Errors        []string         `json:"errors"`
	Details       []ReminderDetail `json:"details"`
}

// ReminderDetail describes one reminder delivered during a scan.
type ReminderDetail struct {
	UserName     string `json:"userName"`
	BookName     string `json:"bookName"`
	DaysInactive int    `json:"daysInactive"`
	ReminderType string `json:"reminderType"`
}
