// Package fetcher serializes every upstream listing fetch through a single
// goroutine, so reddit never sees two concurrent requests from this process.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/qepting91/reddit-grid/internal/domain"
	"github.com/qepting91/reddit-grid/internal/normalizer"
)

// Result is the reply to one submitted request. Exactly one of Posts or Err
// is meaningful.
type Result struct {
	Posts  []domain.Post
	Counts normalizer.Counts
	Err    error
}

type state int

const (
	stateIdle state = iota
	stateRunning
	stateStopped
)

type request struct {
	listing domain.ListingRequest
	reply   chan Result
}

// Worker owns the collector. Requests queue without bound and are served one
// at a time in submission order.
type Worker struct {
	collector domain.Collector
	logger    *slog.Logger

	mu    sync.Mutex
	queue []request
	state state

	wake  chan struct{}
	ready chan struct{}
	done  chan struct{}
}

func New(collector domain.Collector, logger *slog.Logger) *Worker {
	return &Worker{
		collector: collector,
		logger:    logger,
		wake:      make(chan struct{}, 1),
		ready:     make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Submit enqueues req and returns a channel that receives exactly one Result.
// The channel is buffered, so a caller that stops listening never blocks the
// worker.
func (w *Worker) Submit(ctx context.Context, req domain.ListingRequest) (<-chan Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != stateRunning {
		return nil, fmt.Errorf("%w: not running", domain.ErrWorkerUnavailable)
	}

	reply := make(chan Result, 1)
	w.queue = append(w.queue, request{listing: req, reply: reply})

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return reply, nil
}

// Fetch submits req and waits for its result or for ctx to end. Giving up on
// the wait does not cancel the upstream call.
func (w *Worker) Fetch(ctx context.Context, req domain.ListingRequest) ([]domain.Post, normalizer.Counts, error) {
	reply, err := w.Submit(ctx, req)
	if err != nil {
		return nil, normalizer.Counts{}, err
	}

	select {
	case res := <-reply:
		return res.Posts, res.Counts, res.Err
	case <-ctx.Done():
		return nil, normalizer.Counts{}, ctx.Err()
	}
}

// Run serves the queue until ctx is done. It may be called only once; the
// worker is never restarted. Requests still queued on exit are failed with
// domain.ErrWorkerUnavailable.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.state != stateIdle {
		w.mu.Unlock()
		return errors.New("fetch worker already started")
	}
	w.state = stateRunning
	w.mu.Unlock()

	close(w.ready)
	w.logger.Info("fetch worker started")
	defer w.stop()

	for {
		if ctx.Err() != nil {
			return nil
		}

		req, ok := w.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return nil
			case <-w.wake:
			}
			continue
		}

		req.reply <- w.serve(ctx, req.listing)
	}
}

// Ready is closed once Run accepts submissions.
func (w *Worker) Ready() <-chan struct{} { return w.ready }

// Done is closed once Run has returned and the queue has been drained.
func (w *Worker) Done() <-chan struct{} { return w.done }

func (w *Worker) pop() (request, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.queue) == 0 {
		return request{}, false
	}
	req := w.queue[0]
	w.queue[0] = request{}
	w.queue = w.queue[1:]
	return req, true
}

func (w *Worker) serve(ctx context.Context, req domain.ListingRequest) Result {
	log := w.logger.With("subject", req.Subject, "sort", req.Sort, "t", req.Time, "limit", req.Limit)

	body, err := w.collector.FetchListing(ctx, req)
	if err != nil {
		log.Warn("listing fetch failed", "error", err)
		return Result{Err: err}
	}

	res, err := normalizer.Normalize(body)
	if err != nil {
		log.Warn("listing normalization failed", "error", err)
		return Result{Err: err}
	}

	log.Debug("listing classified",
		"posts", len(res.Posts),
		"removed", res.Counts.Removed,
		"videos", res.Counts.Videos,
		"embeds", res.Counts.Embeds,
		"galleries", res.Counts.Galleries,
		"previews", res.Counts.Previews,
		"other", res.Counts.Other,
		"dimensionless", res.Counts.Dimensionless,
	)
	return Result{Posts: res.Posts, Counts: res.Counts}
}

func (w *Worker) stop() {
	w.mu.Lock()
	w.state = stateStopped
	pending := w.queue
	w.queue = nil
	w.mu.Unlock()

	for _, req := range pending {
		req.reply <- Result{Err: fmt.Errorf("%w: shutting down", domain.ErrWorkerUnavailable)}
	}
	if len(pending) > 0 {
		w.logger.Warn("fetch worker failed queued requests on exit", "count", len(pending))
	}
	w.logger.Info("fetch worker stopped")
	close(w.done)
}
