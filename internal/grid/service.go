// Package grid is the entry point callers use: fetch or render a listing,
// star a post seen earlier, read a group back.
package grid

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qepting91/reddit-grid/internal/domain"
	"github.com/qepting91/reddit-grid/internal/normalizer"
	"github.com/qepting91/reddit-grid/internal/starcache"
)

// Fetcher is the single-flight listing fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, req domain.ListingRequest) ([]domain.Post, normalizer.Counts, error)
}

// Observer receives the classification counts of every normalized listing.
type Observer interface {
	Observe(counts normalizer.Counts, posts int)
}

type Service struct {
	fetcher Fetcher
	cache   *starcache.Cache
	store   domain.GroupStore
	stats   Observer
	logger  *slog.Logger

	newGroupName func() string
}

func NewService(fetcher Fetcher, cache *starcache.Cache, store domain.GroupStore, stats Observer, logger *slog.Logger) *Service {
	return &Service{
		fetcher:      fetcher,
		cache:        cache,
		store:        store,
		stats:        stats,
		logger:       logger,
		newGroupName: GroupName,
	}
}

// Fetch reads one listing through the fetch worker. Every returned post can
// be starred afterwards.
func (s *Service) Fetch(ctx context.Context, req domain.ListingRequest) ([]domain.Post, error) {
	posts, counts, err := s.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	s.remember(posts, counts)
	return posts, nil
}

// Normalize classifies a listing the caller fetched itself. No upstream call
// is made.
func (s *Service) Normalize(ctx context.Context, payload []byte) ([]domain.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := normalizer.Normalize(payload)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("payload classified",
		"posts", len(res.Posts),
		"removed", res.Counts.Removed,
		"videos", res.Counts.Videos,
		"embeds", res.Counts.Embeds,
		"galleries", res.Counts.Galleries,
		"previews", res.Counts.Previews,
		"other", res.Counts.Other,
		"dimensionless", res.Counts.Dimensionless,
	)
	s.remember(res.Posts, res.Counts)
	return res.Posts, nil
}

// Star appends the cached post with the given id to target and returns the
// group it went to. Nothing is written when the id is not cached.
func (s *Service) Star(ctx context.Context, target domain.GroupTarget, id string) (string, error) {
	post, ok := s.cache.Lookup(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrNotCached, id)
	}

	group := target.Name()
	if target.CreateNew() {
		group = s.newGroupName()
	}
	if group == "" {
		return "", fmt.Errorf("%w: group name is required", domain.ErrInvalidRequest)
	}

	if err := s.store.AppendPost(ctx, group, post); err != nil {
		return "", fmt.Errorf("%w: star %s into %s: %w", domain.ErrStore, id, group, err)
	}

	s.logger.Info("post starred", "group", group, "id", id, "new_group", target.CreateNew())
	return group, nil
}

// Group returns the posts of a group, oldest first, and caches them so they
// can be starred into other groups.
func (s *Service) Group(ctx context.Context, name string) ([]domain.Post, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: group name is required", domain.ErrInvalidRequest)
	}

	posts, err := s.store.GroupPosts(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: read group %s: %w", domain.ErrStore, name, err)
	}
	s.cache.Record(posts...)
	return posts, nil
}

// Groups lists the names of every group with at least one post.
func (s *Service) Groups(ctx context.Context) ([]string, error) {
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list groups: %w", domain.ErrStore, err)
	}
	return groups, nil
}

func (s *Service) remember(posts []domain.Post, counts normalizer.Counts) {
	s.cache.Record(posts...)
	if s.stats != nil {
		s.stats.Observe(counts, len(posts))
	}
}
