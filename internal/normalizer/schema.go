package normalizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Everything below mirrors the parts of reddit's listing response that
// classification reads. Optional blocks are pointers so absence and null are
// both nil.

type listing struct {
	Data struct {
		Children []struct {
			Data record `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type record struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Subreddit string `json:"subreddit"`
	Author    string `json:"author"`
	Permalink string `json:"permalink"`

	// Set when the post was removed, e.g. "copyright_takedown".
	RemovedByCategory *string `json:"removed_by_category"`

	SecureMedia   *secureMedia   `json:"secure_media"`
	MediaMetadata *mediaMetadata `json:"media_metadata"`
	Preview       *preview       `json:"preview"`
}

type secureMedia struct {
	RedditVideo *redditVideo `json:"reddit_video"`
	Type        string       `json:"type"`
	OEmbed      *oembed      `json:"oembed"`
}

type redditVideo struct {
	Width  dimension `json:"width"`
	Height dimension `json:"height"`
	HLSURL string    `json:"hls_url"`
}

type oembed struct {
	HTML         string    `json:"html"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Width        dimension `json:"width"`
	Height       dimension `json:"height"`
}

type mediaItem struct {
	S mediaSource   `json:"s"`
	P []mediaSource `json:"p"`
}

type mediaSource struct {
	X   dimension `json:"x"`
	Y   dimension `json:"y"`
	U   *string   `json:"u"`
	MP4 *string   `json:"mp4"`
}

type mediaEntry struct {
	Key  string
	Item mediaItem
}

// mediaMetadata keeps gallery items in the order they appear in the document,
// which a Go map would lose.
type mediaMetadata []mediaEntry

func (m *mediaMetadata) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*m = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("media_metadata: expected object, got %v", tok)
	}

	entries := mediaMetadata{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("media_metadata: expected key, got %v", tok)
		}
		var item mediaItem
		if err := dec.Decode(&item); err != nil {
			return fmt.Errorf("media_metadata[%s]: %w", key, err)
		}
		entries = append(entries, mediaEntry{Key: key, Item: item})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*m = entries
	return nil
}

type preview struct {
	Images []previewImage `json:"images"`
}

type previewImage struct {
	Source      imageSource   `json:"source"`
	Resolutions []imageSource `json:"resolutions"`

	// Keyed by variant name; "mp4" is the one that matters.
	Variants map[string]*previewImage `json:"variants"`
}

type imageSource struct {
	URL    string    `json:"url"`
	Width  dimension `json:"width"`
	Height dimension `json:"height"`
}

// dimension accepts integers, floats, numeric strings and null. Anything
// negative or unparsable becomes zero, which later drops the post.
type dimension uint

func (d *dimension) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	if s == "null" || s == "" {
		*d = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		*d = 0
		return nil
	}
	*d = dimension(math.Round(f))
	return nil
}
