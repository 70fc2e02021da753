package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/wikifeed/article"
	"github.com/pevans/wikifeed/feedmode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: create a test history store
func createTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := NewStore(dbPath)
	require.NoError(t, err, "should create history store")
	t.Cleanup(func() { store.Close() })
	return store
}

// Test helper: create a sample article
func createSampleArticle(id, title string, withThumbnail bool) *article.Article {
	var thumb *article.Thumbnail
	if withThumbnail {
		thumb = &article.Thumbnail{Source: "https://upload.example/" + id + ".jpg", Width: 320, Height: 240}
	}
	return article.New(id, title, "A short extract.", "https://en.m.wikipedia.org/wiki/"+title, thumb, nil, nil)
}

// TestNewStore_ExistingDatabase verifies entries survive reopening
func TestNewStore_ExistingDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	store1, err := NewStore(dbPath)
	require.NoError(t, err)
	_, err = store1.Record(createSampleArticle("1", "Tea", false), feedmode.Random)
	require.NoError(t, err)
	store1.Close()

	store2, err := NewStore(dbPath)
	require.NoError(t, err)
	defer store2.Close()

	entries, err := store2.List(Filter{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// TestRecord_AndGet verifies a recorded entry round-trips
func TestRecord_AndGet(t *testing.T) {
	store := createTestStore(t)

	entry, err := store.Record(createSampleArticle("70889", "Mona Lisa", true), feedmode.Art)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, entry.EntryID)

	got, err := store.Get(entry.EntryID)
	require.NoError(t, err)

	assert.Equal(t, "70889", got.ArticleID)
	assert.Equal(t, "Mona Lisa", got.Title)
	assert.Equal(t, feedmode.Art, got.Mode)
	assert.Equal(t, 1, got.ReadingTime)
	require.NotNil(t, got.Thumbnail)
	assert.Equal(t, "https://upload.example/70889.jpg", *got.Thumbnail)
	assert.True(t, entry.ServedAt.Equal(got.ServedAt), "served_at should round-trip")
}

// TestRecord_WithoutThumbnail verifies the thumbnail column is optional
func TestRecord_WithoutThumbnail(t *testing.T) {
	store := createTestStore(t)

	entry, err := store.Record(createSampleArticle("1", "Tea", false), feedmode.Random)
	require.NoError(t, err)

	got, err := store.Get(entry.EntryID)
	require.NoError(t, err)
	assert.Nil(t, got.Thumbnail)
}

// TestRecord_RequiresArticleID verifies validation
func TestRecord_RequiresArticleID(t *testing.T) {
	store := createTestStore(t)

	_, err := store.Record(createSampleArticle("", "Nameless", false), feedmode.Random)
	assert.Error(t, err)

	_, err = store.Record(nil, feedmode.Random)
	assert.Error(t, err)
}

// TestGet_NotFound verifies the not found error
func TestGet_NotFound(t *testing.T) {
	store := createTestStore(t)

	_, err := store.Get(uuid.New())
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

// TestList_NewestFirst verifies ordering, filtering and pagination
func TestList_NewestFirst(t *testing.T) {
	store := createTestStore(t)

	for _, a := range []struct {
		id   string
		mode feedmode.Mode
	}{
		{"1", feedmode.Art},
		{"2", feedmode.Science},
		{"3", feedmode.Art},
	} {
		_, err := store.Record(createSampleArticle(a.id, "Article "+a.id, false), a.mode)
		require.NoError(t, err)
	}

	entries, err := store.List(Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "3", entries[0].ArticleID)
	assert.Equal(t, "1", entries[2].ArticleID)

	art := feedmode.Art
	entries, err = store.List(Filter{Mode: &art})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "3", entries[0].ArticleID)
	assert.Equal(t, "1", entries[1].ArticleID)

	entries, err = store.List(Filter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2", entries[0].ArticleID)

	entries, err = store.List(Filter{Offset: 2})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1", entries[0].ArticleID)
}

// TestList_Since verifies the time filter
func TestList_Since(t *testing.T) {
	store := createTestStore(t)

	_, err := store.Record(createSampleArticle("1", "Tea", false), feedmode.Random)
	require.NoError(t, err)

	future := time.Now().Add(time.Hour)
	entries, err := store.List(Filter{Since: &future})
	require.NoError(t, err)
	assert.Empty(t, entries)

	past := time.Now().Add(-time.Hour)
	entries, err = store.List(Filter{Since: &past})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// TestDelete verifies deletion and the not found error
func TestDelete(t *testing.T) {
	store := createTestStore(t)

	entry, err := store.Record(createSampleArticle("1", "Tea", false), feedmode.Random)
	require.NoError(t, err)

	require.NoError(t, store.Delete(entry.EntryID))
	assert.ErrorIs(t, store.Delete(entry.EntryID), ErrEntryNotFound)

	_, err = store.Get(entry.EntryID)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

// TestClear verifies all entries are removed and counted
func TestClear(t *testing.T) {
	store := createTestStore(t)

	for _, id := range []string{"1", "2"} {
		_, err := store.Record(createSampleArticle(id, "Article "+id, false), feedmode.Random)
		require.NoError(t, err)
	}

	deleted, err := store.Clear()
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	entries, err := store.List(Filter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}
