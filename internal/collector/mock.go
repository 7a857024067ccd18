package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/qepting91/reddit-grid/internal/domain"
)

// MockClient implements domain.Collector without touching the network. It
// serves a fixture listing when one is configured and synthesizes preview
// image posts otherwise.
type MockClient struct {
	fixturePath string

	// Latency delays every call, handy for watching the worker serialize.
	Latency time.Duration
}

func NewMockClient(fixturePath string) *MockClient {
	return &MockClient{fixturePath: fixturePath}
}

func (mc *MockClient) FetchListing(ctx context.Context, req domain.ListingRequest) ([]byte, error) {
	if mc.Latency > 0 {
		select {
		case <-time.After(mc.Latency):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", domain.ErrUpstream, ctx.Err())
		}
	}

	if mc.fixturePath != "" {
		data, err := os.ReadFile(mc.fixturePath)
		if err != nil {
			return nil, fmt.Errorf("%w: reading fixture: %w", domain.ErrUpstream, err)
		}
		return data, nil
	}

	return syntheticListing(req)
}

type mockImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type mockRecord struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Subreddit string `json:"subreddit"`
	Author    string `json:"author"`
	Permalink string `json:"permalink"`
	Preview   struct {
		Images []mockPreviewImage `json:"images"`
	} `json:"preview"`
}

type mockPreviewImage struct {
	Source      mockImage   `json:"source"`
	Resolutions []mockImage `json:"resolutions"`
}

func syntheticListing(req domain.ListingRequest) ([]byte, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = domain.DefaultLimit
	}

	type child struct {
		Kind string     `json:"kind"`
		Data mockRecord `json:"data"`
	}
	children := make([]child, 0, limit)
	for i := 0; i < limit; i++ {
		id := fmt.Sprintf("mock_%s_%d", req.Subject, i)
		rec := mockRecord{
			ID:        id,
			Title:     fmt.Sprintf("[%s] Simulated %s post #%d", req.Subject, req.Sort, i),
			Subreddit: req.Subject,
			Author:    "simulated_user",
			Permalink: fmt.Sprintf("/r/%s/comments/%s/", req.Subject, id),
		}
		// Alternate landscape and portrait so grid layouts get exercised.
		w, h := 1600, 900
		if i%2 == 1 {
			w, h = 900, 1600
		}
		base := fmt.Sprintf("https://picsum.photos/seed/%s", id)
		rec.Preview.Images = append(rec.Preview.Images, mockPreviewImage{
			Source: mockImage{URL: fmt.Sprintf("%s/%d/%d?a=1&amp;b=2", base, w, h), Width: w, Height: h},
			Resolutions: []mockImage{
				{URL: fmt.Sprintf("%s/%d/%d", base, w/4, h/4), Width: w / 4, Height: h / 4},
			},
		})
		children = append(children, child{Kind: "t3", Data: rec})
	}

	listing := map[string]any{
		"kind": "Listing",
		"data": map[string]any{"children": children},
	}
	return json.Marshal(listing)
}
