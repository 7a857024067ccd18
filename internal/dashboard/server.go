// Package dashboard keeps running classification totals and renders them
// as charts.
package dashboard

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/qepting91/reddit-grid/internal/normalizer"
)

// Stats accumulates the counts of every listing normalized by the process.
type Stats struct {
	mu       sync.Mutex
	totals   normalizer.Counts
	listings int
	posts    int
}

func NewStats() *Stats {
	return &Stats{}
}

// Observe adds one listing's counts and the number of posts it produced.
func (s *Stats) Observe(counts normalizer.Counts, posts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totals = s.totals.Add(counts)
	s.listings++
	s.posts += posts
}

// Snapshot is a point-in-time copy of the totals.
type Snapshot struct {
	Totals   normalizer.Counts
	Listings int
	Posts    int
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Totals: s.totals, Listings: s.listings, Posts: s.posts}
}

// Handler renders the current totals as an HTML page.
func (s *Stats) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap := s.Snapshot()
		t := snap.Totals

		// 1. Classification mix
		pie := charts.NewPie()
		pie.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{
				Title:    "Classification Mix",
				Subtitle: subtitle(snap),
			}),
			charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		)
		pie.AddSeries("Records", []opts.PieData{
			{Name: normalizer.BucketRemoved.String(), Value: t.Removed},
			{Name: normalizer.BucketVideo.String(), Value: t.Videos},
			{Name: normalizer.BucketEmbed.String(), Value: t.Embeds},
			{Name: normalizer.BucketGallery.String(), Value: t.Galleries},
			{Name: normalizer.BucketPreview.String(), Value: t.Previews},
			{Name: normalizer.BucketOther.String(), Value: t.Other},
		})

		// 2. What reached the grid
		bar := charts.NewBar()
		bar.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{Title: "Grid Output"}),
			charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		)
		bar.SetXAxis([]string{"records", "posts", "dropped without size"}).
			AddSeries("Count", []opts.BarData{
				{Value: t.Total()},
				{Value: snap.Posts},
				{Value: t.Dimensionless},
			})

		page := components.NewPage()
		page.PageTitle = "reddit-grid stats"
		page.AddCharts(pie, bar)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		page.Render(w)
	})
}

func subtitle(s Snapshot) string {
	if s.Listings == 1 {
		return "1 listing"
	}
	return fmt.Sprintf("%d listings", s.Listings)
}
