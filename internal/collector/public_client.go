package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/qepting91/reddit-grid/internal/domain"
	"golang.org/x/time/rate"
)

// Listings above this size are treated as a broken upstream response.
const maxListingBytes = 16 << 20

// PublicClient reads listings from reddit's unauthenticated JSON endpoints.
type PublicClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	userAgent  string
}

// NewPublicClient returns a client for baseURL. A zero minInterval disables
// client-side pacing.
func NewPublicClient(baseURL, userAgent string, timeout, minInterval time.Duration) *PublicClient {
	return &PublicClient{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    newLimiter(minInterval),
		baseURL:    baseURL,
		userAgent:  userAgent,
	}
}

func (pc *PublicClient) FetchListing(ctx context.Context, req domain.ListingRequest) ([]byte, error) {
	if err := wait(ctx, pc.limiter); err != nil {
		return nil, err
	}

	u := pc.baseURL + "/r/" + url.PathEscape(req.Subject) + "/" + string(req.Sort) + ".json?" + listingQuery(req).Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", domain.ErrUpstream, err)
	}
	httpReq.Header.Set("User-Agent", pc.userAgent)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := pc.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: reddit public access status: %d", domain.ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxListingBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", domain.ErrUpstream, err)
	}
	if len(body) > maxListingBytes {
		return nil, fmt.Errorf("%w: listing larger than %d bytes", domain.ErrUpstream, maxListingBytes)
	}
	return body, nil
}

// listingQuery is shared by every client so both endpoints see identical
// parameters.
func listingQuery(req domain.ListingRequest) url.Values {
	limit := req.Limit
	if limit <= 0 {
		limit = domain.DefaultLimit
	}
	if limit > domain.MaxLimit {
		limit = domain.MaxLimit
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if req.Time != "" {
		q.Set("t", string(req.Time))
	}
	q.Set("show", "all")
	return q
}

func newLimiter(minInterval time.Duration) *rate.Limiter {
	if minInterval <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(minInterval), 1)
}

func wait(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: waiting for rate limiter: %w", domain.ErrUpstream, err)
	}
	return nil
}
