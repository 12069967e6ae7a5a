package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Count int      `json:"count"`
	Tags  []string `json:"tags"`
	Group string   `json:"group,omitempty"`
}

func (d testDoc) GetID() string { return d.ID }

func emailKey(d testDoc) string { return d.Email }

func runCollectionSuite(t *testing.T, newColl func(t *testing.T) Collection[testDoc]) {
	ctx := context.Background()

	t.Run("insert get list", func(t *testing.T) {
		c := newColl(t)
		require.NoError(t, c.Insert(ctx, testDoc{ID: "a", Email: "a@x"}))
		require.NoError(t, c.Insert(ctx, testDoc{ID: "b", Email: "b@x"}))

		got, err := c.Get(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, "b@x", got.Email)

		all, err := c.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		_, err = c.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)

		assert.ErrorIs(t, c.Insert(ctx, testDoc{ID: "a", Email: "other@x"}), ErrDuplicate)
	})

	t.Run("find and filter", func(t *testing.T) {
		c := newColl(t)
		for _, id := range []string{"1", "2", "3"} {
			require.NoError(t, c.Insert(ctx, testDoc{ID: id, Email: id + "@x", Count: len(id) + 1}))
		}

		found, err := c.Find(ctx, func(d testDoc) bool { return d.Email == "2@x" })
		require.NoError(t, err)
		assert.Equal(t, "2", found.ID)

		_, err = c.Find(ctx, func(d testDoc) bool { return false })
		assert.ErrorIs(t, err, ErrNotFound)

		some, err := c.Filter(ctx, func(d testDoc) bool { return d.ID != "1" })
		require.NoError(t, err)
		assert.Len(t, some, 2)
	})

	t.Run("update", func(t *testing.T) {
		c := newColl(t)
		require.NoError(t, c.Insert(ctx, testDoc{ID: "a", Email: "a@x"}))

		updated, err := c.Update(ctx, "a", func(d *testDoc) error {
			d.Count = 7
			d.Tags = append(d.Tags, "x")
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 7, updated.Count)

		got, err := c.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, []string{"x"}, got.Tags)

		boom := errors.New("boom")
		_, err = c.Update(ctx, "a", func(d *testDoc) error {
			d.Count = 100
			return boom
		})
		assert.ErrorIs(t, err, boom)
		got, err = c.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, 7, got.Count, "failed mutate must not be written")

		_, err = c.Update(ctx, "missing", func(d *testDoc) error { return nil })
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = c.Update(ctx, "a", func(d *testDoc) error {
			d.ID = "b"
			return nil
		})
		assert.Error(t, err)
	})

	t.Run("update where and delete", func(t *testing.T) {
		c := newColl(t)
		for _, id := range []string{"1", "2", "3"} {
			require.NoError(t, c.Insert(ctx, testDoc{ID: id, Email: id + "@x"}))
		}

		n, err := c.UpdateWhere(ctx, Where[testDoc]{Match: func(d testDoc) bool { return d.ID != "2" }}, func(d *testDoc) error {
			d.Count++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		got, err := c.Get(ctx, "3")
		require.NoError(t, err)
		assert.Equal(t, 1, got.Count)

		require.NoError(t, c.Delete(ctx, "2"))
		assert.ErrorIs(t, c.Delete(ctx, "2"), ErrNotFound)

		all, err := c.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("field narrowing", func(t *testing.T) {
		c := newColl(t)
		require.NoError(t, c.Insert(ctx, testDoc{ID: "1", Email: "1@x", Group: "team", Count: 1}))
		require.NoError(t, c.Insert(ctx, testDoc{ID: "2", Email: "2@x", Group: "team", Count: 5}))
		require.NoError(t, c.Insert(ctx, testDoc{ID: "3", Email: "3@x", Group: "solo", Count: 1}))

		n, err := c.UpdateWhere(ctx, FieldEquals("group", "team", func(d testDoc) bool { return d.Count < 3 }), func(d *testDoc) error {
			d.Tags = []string{"hit"}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		got, err := c.Get(ctx, "3")
		require.NoError(t, err)
		assert.Empty(t, got.Tags, "other field values are never touched")

		n, err = c.UpdateWhere(ctx, FieldEquals[testDoc]("group", "nobody", nil), func(d *testDoc) error {
			d.Count = 99
			return nil
		})
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("delete where", func(t *testing.T) {
		c := newColl(t)
		require.NoError(t, c.Insert(ctx, testDoc{ID: "1", Email: "1@x", Group: "team", Count: 1}))
		require.NoError(t, c.Insert(ctx, testDoc{ID: "2", Email: "2@x", Group: "team", Count: 5}))
		require.NoError(t, c.Insert(ctx, testDoc{ID: "3", Email: "3@x", Group: "solo", Count: 1}))

		n, err := c.DeleteWhere(ctx, FieldEquals("group", "team", func(d testDoc) bool { return d.Count == 1 }))
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		all, err := c.List(ctx)
		require.NoError(t, err)
		ids := []string{}
		for _, d := range all {
			ids = append(ids, d.ID)
		}
		assert.ElementsMatch(t, []string{"2", "3"}, ids)

		n, err = c.DeleteWhere(ctx, FieldEquals[testDoc]("group", "nobody", nil))
		require.NoError(t, err)
		assert.Zero(t, n)

		n, err = c.DeleteWhere(ctx, Where[testDoc]{})
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("concurrent updates are not lost", func(t *testing.T) {
		c := newColl(t)
		require.NoError(t, c.Insert(ctx, testDoc{ID: "counter"}))

		const workers = 20
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := c.Update(ctx, "counter", func(d *testDoc) error {
					d.Count++
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := c.Get(ctx, "counter")
		require.NoError(t, err)
		assert.Equal(t, workers, got.Count)
	})
}

func TestFileCollection(t *testing.T) {
	runCollectionSuite(t, func(t *testing.T) Collection[testDoc] {
		return NewFileCollection[testDoc](filepath.Join(t.TempDir(), "docs.json"), emailKey)
	})
}

func TestFileCollectionUniqueKey(t *testing.T) {
	ctx := context.Background()
	c := NewFileCollection[testDoc](filepath.Join(t.TempDir(), "docs.json"), emailKey)

	require.NoError(t, c.Insert(ctx, testDoc{ID: "a", Email: "same@x"}))
	assert.ErrorIs(t, c.Insert(ctx, testDoc{ID: "b", Email: "same@x"}), ErrDuplicate)

	require.NoError(t, c.Insert(ctx, testDoc{ID: "c", Email: "c@x"}))
	_, err := c.Update(ctx, "c", func(d *testDoc) error {
		d.Email = "same@x"
		return nil
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestFileCollectionOnDiskFormat(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "docs.json")
	c := NewFileCollection[testDoc](path, nil)

	all, err := c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "missing file reads as empty collection")

	require.NoError(t, c.Insert(ctx, testDoc{ID: "a"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a","email":"","count":0,"tags":null}]`, string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestBackendCollectionNames(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	b, err := NewFileBackend(dir)
	require.NoError(t, err)
	assert.Equal(t, "file", b.Kind())

	c := NewCollection[testDoc](b, StudyJamsCollection, nil)
	require.NoError(t, c.Insert(context.Background(), testDoc{ID: "a"}))

	_, err = os.Stat(filepath.Join(dir, "study-jams.json"))
	assert.NoError(t, err)
}

func TestPGCollection(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	b, err := NewPostgresBackend(dsn)
	require.NoError(t, err)
	t.Cleanup(b.Close)

	runCollectionSuite(t, func(t *testing.T) Collection[testDoc] {
		_, err := b.Pool().Exec(context.Background(), "TRUNCATE reviews")
		require.NoError(t, err)
		return NewCollection[testDoc](b, ReviewsCollection, nil)
	})
}
