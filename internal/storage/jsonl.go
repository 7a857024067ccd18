package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/qepting91/reddit-grid/internal/domain"
)

var _ domain.GroupStore = (*JSONLStore)(nil)

const jsonlExt = ".jsonl"

// JSONLStore writes each group as an append-only NDJSON file in dir. Appends
// to one group are serialized by a per-group mutex.
//
// Only an unterminated last line, left by a write that never completed, is
// tolerated: reads skip it and the next append cuts it off. Any other line
// that does not decode fails the read.
type JSONLStore struct {
	dir    string
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type jsonlRecord struct {
	PostID    string      `json:"post_id"`
	StarredAt time.Time   `json:"starred_at"`
	Post      domain.Post `json:"post"`
}

func NewJSONLStore(dir string, logger *slog.Logger) (*JSONLStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create group directory: %w", err)
	}
	return &JSONLStore{dir: dir, logger: logger, locks: make(map[string]*sync.Mutex)}, nil
}

func (s *JSONLStore) AppendPost(ctx context.Context, group string, post domain.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line, err := json.Marshal(jsonlRecord{PostID: post.ID, StarredAt: time.Now().UTC(), Post: post})
	if err != nil {
		return fmt.Errorf("failed to marshal post %s: %w", post.ID, err)
	}
	line = append(line, '\n')

	lock := s.lockFor(group)
	lock.Lock()
	defer lock.Unlock()

	f, err := os.OpenFile(s.path(group), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open group %s: %w", group, err)
	}

	end, err := s.trimTornTail(f, group)
	if err != nil {
		f.Close()
		return err
	}

	// A single write keeps the line whole; Sync makes it durable before we
	// report success.
	if _, err := f.WriteAt(line, end); err != nil {
		f.Close()
		return fmt.Errorf("append to group %s: %w", group, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync group %s: %w", group, err)
	}
	return f.Close()
}

// trimTornTail truncates f after its last newline and returns the new size.
func (s *JSONLStore) trimTornTail(f *os.File, group string) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat group %s: %w", group, err)
	}
	size := info.Size()
	if size == 0 {
		return 0, nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, size-1); err != nil {
		return 0, fmt.Errorf("read group %s: %w", group, err)
	}
	if last[0] == '\n' {
		return size, nil
	}

	data := make([]byte, size)
	if _, err := f.ReadAt(data, 0); err != nil {
		return 0, fmt.Errorf("read group %s: %w", group, err)
	}
	end := int64(bytes.LastIndexByte(data, '\n') + 1)
	if err := f.Truncate(end); err != nil {
		return 0, fmt.Errorf("truncate group %s: %w", group, err)
	}
	s.logger.Warn("dropped unterminated star", "group", group, "bytes", size-end)
	return end, nil
}

func (s *JSONLStore) GroupPosts(ctx context.Context, group string) ([]domain.Post, error) {
	lock := s.lockFor(group)
	lock.Lock()
	defer lock.Unlock()

	data, err := os.ReadFile(s.path(group))
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Post{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read group %s: %w", group, err)
	}

	lines := bytes.Split(data, []byte{'\n'})
	// The last element is empty when the file ends in a newline, and an
	// unfinished write otherwise.
	if tail := lines[len(lines)-1]; len(tail) > 0 {
		s.logger.Warn("skipping unterminated star", "group", group, "bytes", len(tail))
	}
	lines = lines[:len(lines)-1]

	posts := make([]domain.Post, 0, len(lines))
	for i, raw := range lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var rec jsonlRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode group %s line %d: %w", group, i+1, err)
		}
		posts = append(posts, rec.Post)
	}
	return posts, nil
}

func (s *JSONLStore) ListGroups(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list group directory: %w", err)
	}

	groups := []string{}
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), jsonlExt)
		if e.IsDir() || !ok {
			continue
		}
		group, err := url.PathUnescape(name)
		if err != nil {
			continue
		}
		groups = append(groups, group)
	}
	sort.Strings(groups)
	return groups, nil
}

func (s *JSONLStore) Close() error { return nil }

// path escapes the group name so any name maps to one flat file.
func (s *JSONLStore) path(group string) string {
	return filepath.Join(s.dir, url.PathEscape(group)+jsonlExt)
}

func (s *JSONLStore) lockFor(group string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[group]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[group] = lock
	}
	return lock
}
