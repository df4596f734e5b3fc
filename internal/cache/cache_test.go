package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/idoklad2fakturoid/internal/fakturoid"
)

var testSubjects = []fakturoid.Subject{
	{ID: 11, Name: "Alpha s.r.o.", RegistrationNo: "01234567", VatNo: "CZ01234567"},
	{ID: 12, Name: "Beta a.s.", RegistrationNo: "27082440"},
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "test.cache"), nil)
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

func TestLoad_MissingFile(t *testing.T) {
	c := newTestCache(t)

	require.NoError(t, c.Load())
	assert.Empty(t, c.Keys())
	assert.False(t, c.Has(SubjectsKey))
}

func TestLoad_CorruptFile(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, os.WriteFile(c.Path(), []byte("fakturoid_subjects: [{id: 1, name: \"unterminated\n"), 0o600))

	err := c.Load()
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, c.Path(), loadErr.Path)
	assert.Empty(t, c.Keys())
}

func TestLoad_NotAMapping(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, os.WriteFile(c.Path(), []byte("- just\n- a list\n"), 0o600))

	var loadErr *LoadError
	assert.True(t, errors.As(c.Load(), &loadErr))
	assert.Empty(t, c.Keys())
}

func TestLoad_EmptyFile(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, os.WriteFile(c.Path(), nil, 0o600))

	require.NoError(t, c.Load())
	assert.Empty(t, c.Keys())
}

func TestLoad_ReplacesInMemoryEntries(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Set("stale", 1))

	require.NoError(t, c.Load())
	assert.False(t, c.Has("stale"))
}

// ---------------------------------------------------------------------------
// Save / round trip
// ---------------------------------------------------------------------------

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "round.cache")

	first := New(path, nil)
	require.NoError(t, first.Set(SubjectsKey, testSubjects))
	require.NoError(t, first.Save())

	second := New(path, nil)
	require.NoError(t, second.Load())
	assert.Equal(t, []string{SubjectsKey}, second.Keys())

	var got []fakturoid.Subject
	found, err := second.Get(SubjectsKey, &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, testSubjects, got)
}

func TestSave_KeepsRegistrationNumbersAsStrings(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Set(SubjectsKey, testSubjects))
	require.NoError(t, c.Save())

	require.NoError(t, c.Load())
	var got []fakturoid.Subject
	_, err := c.Get(SubjectsKey, &got)
	require.NoError(t, err)

	// A leading zero must survive the YAML round trip.
	assert.Equal(t, "01234567", got[0].RegistrationNo)
}

func TestSave_OverwritesWholeFile(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Set("a", "first"))
	require.NoError(t, c.Save())

	require.NoError(t, c.Remove())
	require.NoError(t, c.Set("b", "second"))
	require.NoError(t, c.Save())

	reloaded := New(c.Path(), nil)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, []string{"b"}, reloaded.Keys())

	entries, err := os.ReadDir(filepath.Dir(c.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// ---------------------------------------------------------------------------
// Get / Set
// ---------------------------------------------------------------------------

func TestGet_Missing(t *testing.T) {
	c := newTestCache(t)

	var out []fakturoid.Subject
	found, err := c.Get(SubjectsKey, &out)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, out)
}

func TestGet_TypeMismatch(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Set(SubjectsKey, "not a list"))

	var out []fakturoid.Subject
	found, err := c.Get(SubjectsKey, &out)
	assert.True(t, found)
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Remember
// ---------------------------------------------------------------------------

func TestRemember_FetchesOnceAndPersists(t *testing.T) {
	c := newTestCache(t)
	calls := 0
	fetch := func() ([]fakturoid.Subject, error) {
		calls++
		return testSubjects, nil
	}

	got, err := Remember(c, SubjectsKey, fetch)
	require.NoError(t, err)
	assert.Equal(t, testSubjects, got)
	assert.Equal(t, 1, calls)
	assert.FileExists(t, c.Path())

	got, err = Remember(c, SubjectsKey, fetch)
	require.NoError(t, err)
	assert.Equal(t, testSubjects, got)
	assert.Equal(t, 1, calls, "a populated cache must not fetch again")

	// A new process reading the same file does not fetch either.
	next := New(c.Path(), nil)
	require.NoError(t, next.Load())
	_, err = Remember(next, SubjectsKey, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRemember_FetchErrorIsNotCached(t *testing.T) {
	c := newTestCache(t)
	boom := errors.New("GET /subjects.json failed")

	_, err := Remember(c, SubjectsKey, func() ([]fakturoid.Subject, error) {
		return nil, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, c.Has(SubjectsKey))
	assert.NoFileExists(t, c.Path())
}

func TestRemember_RefetchesUnreadableEntry(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Set(SubjectsKey, map[string]string{"broken": "entry"}))

	calls := 0
	got, err := Remember(c, SubjectsKey, func() ([]fakturoid.Subject, error) {
		calls++
		return testSubjects, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, testSubjects, got)
}

func TestRemove(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Set(SubjectsKey, testSubjects))
	require.NoError(t, c.Save())

	require.NoError(t, c.Remove())
	assert.NoFileExists(t, c.Path())
	assert.Empty(t, c.Keys())

	assert.NoError(t, c.Remove(), "removing a missing cache is not an error")
}
