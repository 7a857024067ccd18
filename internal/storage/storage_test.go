package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qepting91/reddit-grid/internal/config"
	"github.com/qepting91/reddit-grid/internal/domain"
)

func star(id string) domain.Post {
	return domain.Post{
		ID:        id,
		Width:     640,
		Height:    480,
		Subreddit: "pics",
		Author:    "alice",
		Title:     "title " + id,
		Permalink: "/r/pics/comments/" + id + "/",
		Media: domain.Image{
			PrimaryURL: "https://i.redd.it/" + id + ".jpg",
			Sizes:      []domain.SizedImage{{Width: 640, Height: 480, URL: "https://i.redd.it/" + id + ".jpg"}},
		},
	}
}

func ids(posts []domain.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

// backend opens a store rooted at dir; reopening the same dir must see the
// same data.
type backend struct {
	name string
	open func(t *testing.T, dir string) domain.GroupStore
}

var backends = []backend{
	{
		name: "sqlite",
		open: func(t *testing.T, dir string) domain.GroupStore {
			s, err := NewSQLiteStore(filepath.Join(dir, "nested", "stars.db"))
			require.NoError(t, err)
			return s
		},
	},
	{
		name: "jsonl",
		open: func(t *testing.T, dir string) domain.GroupStore {
			s, err := NewJSONLStore(filepath.Join(dir, "groups"), slog.New(slog.DiscardHandler))
			require.NoError(t, err)
			return s
		},
	},
}

func TestGroupStore_AppendAndRead(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t, t.TempDir())
			defer s.Close()

			require.NoError(t, s.AppendPost(ctx, "SunnyBlueOtter", star("a")))
			require.NoError(t, s.AppendPost(ctx, "SunnyBlueOtter", star("b")))
			require.NoError(t, s.AppendPost(ctx, "SunnyBlueOtter", star("a")))
			require.NoError(t, s.AppendPost(ctx, "other", star("c")))

			posts, err := s.GroupPosts(ctx, "SunnyBlueOtter")
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b", "a"}, ids(posts))
			assert.Equal(t, star("b"), posts[1])

			posts, err = s.GroupPosts(ctx, "other")
			require.NoError(t, err)
			assert.Equal(t, []string{"c"}, ids(posts))
		})
	}
}

func TestGroupStore_UnknownGroupIsEmpty(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t, t.TempDir())
			defer s.Close()

			posts, err := s.GroupPosts(context.Background(), "nobody")
			require.NoError(t, err)
			assert.NotNil(t, posts)
			assert.Empty(t, posts)
		})
	}
}

func TestGroupStore_GroupNamesAreCaseSensitive(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t, t.TempDir())
			defer s.Close()

			require.NoError(t, s.AppendPost(ctx, "Cats", star("a")))
			require.NoError(t, s.AppendPost(ctx, "cats/../x y", star("b")))

			posts, err := s.GroupPosts(ctx, "cats")
			require.NoError(t, err)
			assert.Empty(t, posts)

			posts, err = s.GroupPosts(ctx, "cats/../x y")
			require.NoError(t, err)
			assert.Equal(t, []string{"b"}, ids(posts))

			groups, err := s.ListGroups(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"Cats", "cats/../x y"}, groups)
		})
	}
}

func TestGroupStore_SurvivesReopen(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()

			s := b.open(t, dir)
			require.NoError(t, s.AppendPost(ctx, "keep", star("a")))
			require.NoError(t, s.AppendPost(ctx, "keep", star("b")))
			require.NoError(t, s.Close())

			s = b.open(t, dir)
			defer s.Close()
			posts, err := s.GroupPosts(ctx, "keep")
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, ids(posts))
		})
	}
}

func TestGroupStore_ConcurrentAppendsToOneGroup(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t, t.TempDir())
			defer s.Close()

			const writers, each = 8, 10
			var wg sync.WaitGroup
			for w := 0; w < writers; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < each; i++ {
						assert.NoError(t, s.AppendPost(ctx, "busy", star(fmt.Sprintf("w%d_%d", w, i))))
					}
				}(w)
			}
			wg.Wait()

			posts, err := s.GroupPosts(ctx, "busy")
			require.NoError(t, err)
			require.Len(t, posts, writers*each)

			// Each writer's own appends stay in the order it made them.
			next := make(map[string]int)
			for _, p := range posts {
				var w, i int
				_, err := fmt.Sscanf(p.ID, "w%d_%d", &w, &i)
				require.NoError(t, err)
				key := fmt.Sprint(w)
				assert.Equal(t, next[key], i, p.ID)
				next[key] = i + 1
			}
		})
	}
}

func appendRaw(t *testing.T, path, text string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(text)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestJSONLStore_CorruptLineFailsRead(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewJSONLStore(dir, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	require.NoError(t, s.AppendPost(ctx, "g", star("a")))
	appendRaw(t, filepath.Join(dir, "g.jsonl"), "{garbage\n")
	require.NoError(t, s.AppendPost(ctx, "g", star("b")))

	posts, err := s.GroupPosts(ctx, "g")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Nil(t, posts)
}

func TestJSONLStore_UnterminatedTail(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewJSONLStore(dir, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	require.NoError(t, s.AppendPost(ctx, "g", star("a")))
	appendRaw(t, filepath.Join(dir, "g.jsonl"), `{"post_id":"b","post":{"id":`)

	posts, err := s.GroupPosts(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(posts))

	// The next append cuts the unfinished line off rather than gluing onto it.
	require.NoError(t, s.AppendPost(ctx, "g", star("c")))
	posts, err = s.GroupPosts(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids(posts))
}

func TestNewStorage(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	s, err := NewStorage(context.Background(), config.StorageConfig{Type: config.StorageSQLite, DatabasePath: filepath.Join(dir, "s.db")}, logger)
	require.NoError(t, err)
	assert.IsType(t, &SQLStore{}, s)
	require.NoError(t, s.Close())

	s, err = NewStorage(context.Background(), config.StorageConfig{Type: config.StorageJSONL, JSONLDir: filepath.Join(dir, "g")}, logger)
	require.NoError(t, err)
	assert.IsType(t, &JSONLStore{}, s)

	_, err = NewStorage(context.Background(), config.StorageConfig{Type: "etcd"}, logger)
	assert.Error(t, err)
}
