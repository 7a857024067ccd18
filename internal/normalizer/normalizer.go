// Package normalizer turns a raw reddit listing into display-ready posts.
//
// Normalize is pure: it performs no I/O and keeps no state, so the same bytes
// always produce the same posts in the same order.
package normalizer

import (
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/qepting91/reddit-grid/internal/domain"
)

const (
	posterSuffix = "-poster.jpg"
	mp4Marker    = "format=mp4"
)

// Hosts whose oembed thumbnails can be turned into direct video links.
var shortVideoHosts = map[string]bool{
	"redgifs.com":    true,
	"v3.redgifs.com": true,
}

// Candidate templates for short-video hosts, in playback preference order.
var shortVideoTemplates = []string{
	"https://media.redgifs.com/%s-mobile.m4s",
	"https://media.redgifs.com/%s-mobile.mp4",
}

// Bucket is the classification a listing record fell into.
type Bucket int

const (
	BucketRemoved Bucket = iota
	BucketVideo
	BucketEmbed
	BucketGallery
	BucketPreview
	BucketOther
)

func (b Bucket) String() string {
	switch b {
	case BucketRemoved:
		return "removed"
	case BucketVideo:
		return "video"
	case BucketEmbed:
		return "embed"
	case BucketGallery:
		return "gallery"
	case BucketPreview:
		return "preview"
	default:
		return "other"
	}
}

// Counts tallies records per bucket for one or more listings. Dimensionless
// counts candidate posts dropped for lacking a positive width and height.
type Counts struct {
	Removed       int
	Videos        int
	Embeds        int
	Galleries     int
	Previews      int
	Other         int
	Dimensionless int
}

// Add returns the field-wise sum of c and o.
func (c Counts) Add(o Counts) Counts {
	return Counts{
		Removed:       c.Removed + o.Removed,
		Videos:        c.Videos + o.Videos,
		Embeds:        c.Embeds + o.Embeds,
		Galleries:     c.Galleries + o.Galleries,
		Previews:      c.Previews + o.Previews,
		Other:         c.Other + o.Other,
		Dimensionless: c.Dimensionless + o.Dimensionless,
	}
}

// Total is the number of records classified.
func (c Counts) Total() int {
	return c.Removed + c.Videos + c.Embeds + c.Galleries + c.Previews + c.Other
}

func (c *Counts) count(b Bucket) {
	switch b {
	case BucketRemoved:
		c.Removed++
	case BucketVideo:
		c.Videos++
	case BucketEmbed:
		c.Embeds++
	case BucketGallery:
		c.Galleries++
	case BucketPreview:
		c.Previews++
	default:
		c.Other++
	}
}

// Result is the normalized form of one listing.
type Result struct {
	Posts  []domain.Post
	Counts Counts
}

// Normalize decodes a listing body and classifies every record in order.
// A body that is not a listing wraps domain.ErrUpstream; a malformed
// short-video thumbnail anywhere in the listing wraps
// domain.ErrClassification and no posts are returned.
func Normalize(data []byte) (Result, error) {
	var l listing
	if err := json.Unmarshal(data, &l); err != nil {
		return Result{}, fmt.Errorf("%w: decode listing: %w", domain.ErrUpstream, err)
	}

	res := Result{Posts: make([]domain.Post, 0, len(l.Data.Children))}
	for _, child := range l.Data.Children {
		out, err := classify(child.Data)
		if err != nil {
			return Result{}, fmt.Errorf("%w: post %s: %w", domain.ErrClassification, child.Data.ID, err)
		}
		res.Counts.count(out.bucket)
		for _, p := range out.posts {
			if p.Width == 0 || p.Height == 0 {
				res.Counts.Dimensionless++
				continue
			}
			res.Posts = append(res.Posts, p)
		}
	}
	return res, nil
}

// outcome is the classification of one record. Removed and Other carry no
// posts; the rest carry zero or more.
type outcome struct {
	bucket Bucket
	posts  []domain.Post
}

// classify applies the rules in priority order; the first block present
// decides the bucket.
func classify(r record) (outcome, error) {
	if r.RemovedByCategory != nil {
		return outcome{bucket: BucketRemoved}, nil
	}

	// A secure_media block decides the record on its own; galleries and
	// previews are only consulted when it is absent.
	if sm := r.SecureMedia; sm != nil {
		switch {
		case sm.RedditVideo != nil:
			rv := sm.RedditVideo
			return outcome{
				bucket: BucketVideo,
				posts: []domain.Post{newPost(r, r.ID, uint(rv.Width), uint(rv.Height),
					domain.StreamingVideo{ManifestURL: unescape(rv.HLSURL)})},
			}, nil
		case sm.OEmbed != nil:
			media, err := embedMedia(sm.Type, sm.OEmbed)
			if err != nil {
				return outcome{}, err
			}
			return outcome{
				bucket: BucketEmbed,
				posts:  []domain.Post{newPost(r, r.ID, uint(sm.OEmbed.Width), uint(sm.OEmbed.Height), media)},
			}, nil
		default:
			return outcome{bucket: BucketOther}, nil
		}
	}

	if r.MediaMetadata != nil {
		return outcome{bucket: BucketGallery, posts: galleryPosts(r)}, nil
	}

	if r.Preview != nil {
		return outcome{bucket: BucketPreview, posts: previewPosts(r)}, nil
	}

	return outcome{bucket: BucketOther}, nil
}

func embedMedia(provider string, e *oembed) (domain.MediaDetails, error) {
	if !shortVideoHosts[provider] {
		return domain.EmbeddedVideo{Markup: html.UnescapeString(e.HTML)}, nil
	}

	id, err := shortVideoID(e.ThumbnailURL)
	if err != nil {
		return nil, err
	}
	urls := make([]string, len(shortVideoTemplates))
	for i, tmpl := range shortVideoTemplates {
		urls[i] = fmt.Sprintf(tmpl, id)
	}
	return domain.DirectVideo{URLs: urls}, nil
}

// shortVideoID extracts "abc" from ".../abc-poster.jpg".
func shortVideoID(thumbnail string) (string, error) {
	slash := strings.LastIndexByte(thumbnail, '/')
	if slash < 0 {
		return "", fmt.Errorf("short video thumbnail %q has no path", thumbnail)
	}
	name := thumbnail[slash+1:]
	id, ok := strings.CutSuffix(name, posterSuffix)
	if !ok || id == "" {
		return "", fmt.Errorf("short video thumbnail %q does not name a poster", thumbnail)
	}
	return id, nil
}

func galleryPosts(r record) []domain.Post {
	var posts []domain.Post
	for _, entry := range *r.MediaMetadata {
		s := entry.Item.S
		id := itemID(r.ID, entry.Key, len(posts))
		switch {
		case s.MP4 != nil:
			posts = append(posts, newPost(r, id, uint(s.X), uint(s.Y),
				domain.DirectVideo{URLs: []string{unescape(*s.MP4)}}))
		case s.U != nil:
			src := unescape(*s.U)
			sizes := make([]domain.SizedImage, 0, len(entry.Item.P)+1)
			for _, p := range entry.Item.P {
				if p.U == nil {
					continue
				}
				sizes = append(sizes, domain.SizedImage{Width: uint(p.X), Height: uint(p.Y), URL: unescape(*p.U)})
			}
			sizes = append(sizes, domain.SizedImage{Width: uint(s.X), Height: uint(s.Y), URL: src})
			posts = append(posts, newPost(r, id, uint(s.X), uint(s.Y),
				domain.Image{PrimaryURL: src, Sizes: sizes}))
		}
	}
	return posts
}

func previewPosts(r record) []domain.Post {
	var posts []domain.Post
	for i := range r.Preview.Images {
		img := &r.Preview.Images[i]
		if mp4, ok := img.Variants["mp4"]; ok && mp4 != nil {
			img = mp4
		}

		id := itemID(r.ID, "", len(posts))

		src := unescape(img.Source.URL)
		w, h := uint(img.Source.Width), uint(img.Source.Height)
		if strings.Contains(src, mp4Marker) {
			posts = append(posts, newPost(r, id, w, h, domain.DirectVideo{URLs: []string{src}}))
			continue
		}

		sizes := make([]domain.SizedImage, 0, len(img.Resolutions)+1)
		for _, res := range img.Resolutions {
			sizes = append(sizes, domain.SizedImage{Width: uint(res.Width), Height: uint(res.Height), URL: unescape(res.URL)})
		}
		sizes = append(sizes, domain.SizedImage{Width: w, Height: h, URL: src})
		posts = append(posts, newPost(r, id, w, h, domain.Image{PrimaryURL: src, Sizes: sizes}))
	}
	return posts
}

// itemID gives each item of a multi-item record its own id so they do not
// overwrite each other in the star cache. The first item keeps the record id.
func itemID(recordID, key string, index int) string {
	if index == 0 {
		return recordID
	}
	if key == "" {
		key = strconv.Itoa(index)
	}
	return recordID + "_" + key
}

func newPost(r record, id string, width, height uint, media domain.MediaDetails) domain.Post {
	return domain.Post{
		ID:        id,
		Width:     width,
		Height:    height,
		Media:     media,
		Subreddit: r.Subreddit,
		Author:    r.Author,
		Title:     r.Title,
		Permalink: r.Permalink,
	}
}

// unescape undoes reddit's HTML-escaping of URLs in JSON, which only ever
// touches ampersands.
func unescape(s string) string {
	return strings.ReplaceAll(s, "&amp;", "&")
}
