package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLibraryStatus_Valid(t *testing.T) {
	assert.True(t, LibraryStatusSaved.Valid())
	assert.True(t, LibraryStatusReading.Valid())
	assert.True(t, LibraryStatusCompleted.Valid())
	assert.False(t, LibraryStatus("").Valid())
	assert.False(t, LibraryStatus("abandoned").Valid())
}

func TestLibraryItemID(t *testing.T) {
	assert.Equal(t, "usr-1:book-9", LibraryItemID("usr-1", "book-9"))
}
