package domain

import "time"

// LibraryStatus is the shelf a book sits on in a reader's library.
type LibraryStatus string

// Library statuses.
const (
	LibraryStatusSaved     LibraryStatus = "saved"
	LibraryStatusReading   LibraryStatus = "reading"
	LibraryStatusCompleted LibraryStatus = "completed"
)

// Valid returns true if the status is a recognized value.
func (s LibraryStatus) Valid() bool {
	switch s {
	case LibraryStatusSaved, LibraryStatusReading, LibraryStatusCompleted:
		return true
	default:
		return false
	}
}

// LibraryItem is a book saved to a user's personal library.
type LibraryItem struct {
	ID        string        `json:"id" bson:"_id"`
	UserID    string        `json:"userId" bson:"userId"`
	BookID    string        `json:"bookId" bson:"bookId"`
	Status    LibraryStatus `json:"status" bson:"status"`
	Liked     bool          `json:"liked" bson:"liked"`
	AddedAt   time.Time     `json:"addedAt" bson:"addedAt"`
	UpdatedAt time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// LibraryItemID generates composite key: "userID:bookID".
func LibraryItemID(userID, bookID string) string {
	return userID + ":" + bookID
}
