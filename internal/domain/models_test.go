package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostJSON_KeepsMediaVariant(t *testing.T) {
	posts := []Post{
		{ID: "a", Width: 1, Height: 2, Media: Image{PrimaryURL: "u", Sizes: []SizedImage{{Width: 1, Height: 2, URL: "u"}}}},
		{ID: "b", Width: 1, Height: 2, Media: StreamingVideo{ManifestURL: "m"}},
		{ID: "c", Width: 1, Height: 2, Media: DirectVideo{URLs: []string{"x", "y"}}},
		{ID: "d", Width: 1, Height: 2, Media: EmbeddedVideo{Markup: "<iframe></iframe>"}},
	}

	for _, p := range posts {
		data, err := json.Marshal(p)
		require.NoError(t, err)

		var got Post
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, p, got)
	}
}

func TestPostJSON_IgnoresUnknownFields(t *testing.T) {
	data := `{"id":"a","width":3,"height":4,"kind":"streaming_video","media":{"manifest_url":"m","codec":"h264"},"score":12}`

	var p Post
	require.NoError(t, json.Unmarshal([]byte(data), &p))
	assert.Equal(t, StreamingVideo{ManifestURL: "m"}, p.Media)
	assert.Equal(t, uint(3), p.Width)
}

func TestPostJSON_RejectsUnknownKind(t *testing.T) {
	var p Post
	err := json.Unmarshal([]byte(`{"id":"a","kind":"hologram","media":{}}`), &p)
	assert.Error(t, err)
}

func TestPostJSON_RequiresMedia(t *testing.T) {
	_, err := json.Marshal(Post{ID: "a"})
	assert.Error(t, err)
}

func TestPost_CloneSharesNoSlices(t *testing.T) {
	orig := Post{ID: "a", Media: DirectVideo{URLs: []string{"x"}}}
	cp := orig.Clone()
	cp.Media.(DirectVideo).URLs[0] = "changed"
	assert.Equal(t, "x", orig.Media.(DirectVideo).URLs[0])

	img := Post{ID: "b", Media: Image{Sizes: []SizedImage{{URL: "s"}}}}
	imgCopy := img.Clone()
	imgCopy.Media.(Image).Sizes[0].URL = "changed"
	assert.Equal(t, "s", img.Media.(Image).Sizes[0].URL)
}

func TestParseSort(t *testing.T) {
	s, err := ParseSort("")
	require.NoError(t, err)
	assert.Equal(t, SortHot, s)

	s, err = ParseSort("controversial")
	require.NoError(t, err)
	assert.Equal(t, SortControversial, s)

	_, err = ParseSort("best")
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestParseTimeWindow(t *testing.T) {
	tw, err := ParseTimeWindow("")
	require.NoError(t, err)
	assert.Equal(t, TimeDay, tw)

	tw, err = ParseTimeWindow("all")
	require.NoError(t, err)
	assert.Equal(t, TimeAll, tw)

	_, err = ParseTimeWindow("decade")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestGroupTarget(t *testing.T) {
	assert.True(t, NewGroup().CreateNew())
	assert.Empty(t, NewGroup().Name())

	g := ExistingGroup("new")
	assert.False(t, g.CreateNew())
	assert.Equal(t, "new", g.Name())
}
