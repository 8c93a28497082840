package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimirswell/mimirswell-server/internal/domain"
)

func TestLibrary_Lifecycle(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.createUser(t, "usr_1", "astrid@example.com", "Astrid")

	resp := ts.api.Post("/api/v1/library", auth, map[string]any{"bookId": "meditations"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	item := decodeEnvelope[domain.LibraryItem](t, resp).Data
	assert.Equal(t, domain.LibraryStatus("saved"), item.Status)
	assert.False(t, item.Liked)

	ts.clock.Advance(time.Minute)
	resp = ts.api.Post("/api/v1/library/like", auth, map[string]any{"bookId": "the-art-of-war", "liked": true})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	liked := decodeEnvelope[domain.LibraryItem](t, resp).Data
	assert.True(t, liked.Liked)
	assert.Equal(t, domain.LibraryStatus("saved"), liked.Status)

	resp = ts.api.Get("/api/v1/library", auth)
	require.Equal(t, http.StatusOK, resp.Code)
	items := decodeEnvelope[[]domain.LibraryItem](t, resp).Data
	require.Len(t, items, 2)
	assert.Equal(t, "the-art-of-war", items[0].BookID, "newest first")

	resp = ts.api.Delete("/api/v1/library?bookId=meditations", auth)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/library", auth)
	assert.Len(t, decodeEnvelope[[]domain.LibraryItem](t, resp).Data, 1)

	t.Run("remove missing item", func(t *testing.T) {
		resp := ts.api.Delete("/api/v1/library?bookId=meditations", auth)
		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Equal(t, "NOT_FOUND", decodeEnvelope[any](t, resp).Code)
	})

	t.Run("unknown status filter", func(t *testing.T) {
		resp := ts.api.Get("/api/v1/library?status=shelved", auth)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestLibrary_UnknownBook(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.createUser(t, "usr_1", "astrid@example.com", "Astrid")

	resp := ts.api.Post("/api/v1/library", auth, map[string]any{"bookId": "necronomicon"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
