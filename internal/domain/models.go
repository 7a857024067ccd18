package domain

import (
	"context"
	"encoding/json"
	"fmt"
)

// ListingRequest is one bounded fetch of a subreddit listing.
type ListingRequest struct {
	Subject string // subreddit name, or several joined with "+"
	Sort    Sort
	Time    TimeWindow
	Limit   int
}

// Post is a single piece of media ready for display.
type Post struct {
	// ID is the upstream post id. A gallery or multi-image post yields one
	// Post per item: the first keeps the bare id, later gallery items get
	// "<id>_<media key>" and later preview images get "<id>_<index>".
	ID        string
	Width     uint
	Height    uint
	Media     MediaDetails
	Subreddit string
	Author    string
	Title     string
	Permalink string
}

// MediaKind tags the concrete type behind MediaDetails.
type MediaKind string

const (
	KindImage          MediaKind = "image"
	KindStreamingVideo MediaKind = "streaming_video"
	KindDirectVideo    MediaKind = "direct_video"
	KindEmbeddedVideo  MediaKind = "embedded_video"
)

// MediaDetails is implemented by Image, StreamingVideo, DirectVideo and
// EmbeddedVideo only.
type MediaDetails interface {
	Kind() MediaKind
	clone() MediaDetails
}

// Image is a still image with its resolution variants, smallest first and the
// source resolution last.
type Image struct {
	PrimaryURL string       `json:"primary_url"`
	Sizes      []SizedImage `json:"size_variants"`
}

// StreamingVideo references an HLS manifest.
type StreamingVideo struct {
	ManifestURL string `json:"manifest_url"`
}

// DirectVideo lists playable video files, tried in order.
type DirectVideo struct {
	URLs []string `json:"candidate_urls"`
}

// EmbeddedVideo is an opaque third-party embed fragment.
type EmbeddedVideo struct {
	Markup string `json:"markup"`
}

// SizedImage is one resolution variant of an image.
type SizedImage struct {
	Width  uint   `json:"width"`
	Height uint   `json:"height"`
	URL    string `json:"url"`
}

func (Image) Kind() MediaKind          { return KindImage }
func (StreamingVideo) Kind() MediaKind { return KindStreamingVideo }
func (DirectVideo) Kind() MediaKind    { return KindDirectVideo }
func (EmbeddedVideo) Kind() MediaKind  { return KindEmbeddedVideo }

func (m Image) clone() MediaDetails {
	m.Sizes = append([]SizedImage(nil), m.Sizes...)
	return m
}

func (m StreamingVideo) clone() MediaDetails { return m }

func (m DirectVideo) clone() MediaDetails {
	m.URLs = append([]string(nil), m.URLs...)
	return m
}

func (m EmbeddedVideo) clone() MediaDetails { return m }

// Clone returns a deep copy of p that shares no slices with it.
func (p Post) Clone() Post {
	if p.Media != nil {
		p.Media = p.Media.clone()
	}
	return p
}

// postJSON is the stored and served shape of a Post. Unknown fields are
// ignored on decode so older rows keep loading as the shape grows.
type postJSON struct {
	ID        string          `json:"id"`
	Width     uint            `json:"width"`
	Height    uint            `json:"height"`
	Subreddit string          `json:"subreddit"`
	Author    string          `json:"author"`
	Title     string          `json:"title"`
	Permalink string          `json:"permalink"`
	Kind      MediaKind       `json:"kind"`
	Media     json.RawMessage `json:"media"`
}

func (p Post) MarshalJSON() ([]byte, error) {
	if p.Media == nil {
		return nil, fmt.Errorf("post %s has no media", p.ID)
	}
	media, err := json.Marshal(p.Media)
	if err != nil {
		return nil, fmt.Errorf("marshal media: %w", err)
	}
	return json.Marshal(postJSON{
		ID:        p.ID,
		Width:     p.Width,
		Height:    p.Height,
		Subreddit: p.Subreddit,
		Author:    p.Author,
		Title:     p.Title,
		Permalink: p.Permalink,
		Kind:      p.Media.Kind(),
		Media:     media,
	})
}

func (p *Post) UnmarshalJSON(data []byte) error {
	var raw postJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var media MediaDetails
	var err error
	switch raw.Kind {
	case KindImage:
		var m Image
		err = json.Unmarshal(raw.Media, &m)
		media = m
	case KindStreamingVideo:
		var m StreamingVideo
		err = json.Unmarshal(raw.Media, &m)
		media = m
	case KindDirectVideo:
		var m DirectVideo
		err = json.Unmarshal(raw.Media, &m)
		media = m
	case KindEmbeddedVideo:
		var m EmbeddedVideo
		err = json.Unmarshal(raw.Media, &m)
		media = m
	default:
		return fmt.Errorf("unknown media kind %q", raw.Kind)
	}
	if err != nil {
		return fmt.Errorf("unmarshal %s media: %w", raw.Kind, err)
	}

	*p = Post{
		ID:        raw.ID,
		Width:     raw.Width,
		Height:    raw.Height,
		Media:     media,
		Subreddit: raw.Subreddit,
		Author:    raw.Author,
		Title:     raw.Title,
		Permalink: raw.Permalink,
	}
	return nil
}

// Collector fetches one raw listing page from the upstream API.
type Collector interface {
	FetchListing(ctx context.Context, req ListingRequest) ([]byte, error)
}

// GroupStore durably keeps starred posts in named groups.
type GroupStore interface {
	// AppendPost records post at the end of group. Duplicates are allowed.
	AppendPost(ctx context.Context, group string, post Post) error

	// GroupPosts returns every post appended to group, oldest first. An
	// unknown group yields an empty slice.
	GroupPosts(ctx context.Context, group string) ([]Post, error)

	// ListGroups returns the names of all groups holding at least one post.
	ListGroups(ctx context.Context) ([]string, error)

	Close() error
}
