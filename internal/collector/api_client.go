package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/loganintech/go-reddit/v2/reddit"
	"github.com/qepting91/reddit-grid/internal/domain"
	"golang.org/x/time/rate"
)

// APIClient reads listings through reddit's OAuth API as a script app.
type APIClient struct {
	client  *reddit.Client
	limiter *rate.Limiter
}

func NewAPIClient(id, secret, user, pass, userAgent string, timeout, minInterval time.Duration) (*APIClient, error) {
	creds := reddit.Credentials{ID: id, Secret: secret, Username: user, Password: pass}

	client, err := reddit.NewClient(creds,
		reddit.WithUserAgent(userAgent),
		reddit.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("creating reddit client: %w", err)
	}

	return &APIClient{client: client, limiter: newLimiter(minInterval)}, nil
}

// FetchListing returns the listing body untouched; go-reddit's typed posts
// drop the media blocks the normalizer needs.
func (ac *APIClient) FetchListing(ctx context.Context, req domain.ListingRequest) ([]byte, error) {
	if err := wait(ctx, ac.limiter); err != nil {
		return nil, err
	}

	path := "r/" + url.PathEscape(req.Subject) + "/" + string(req.Sort) + "?" + listingQuery(req).Encode()
	httpReq, err := ac.client.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", domain.ErrUpstream, err)
	}

	var raw json.RawMessage
	if _, err := ac.client.Do(ctx, httpReq, &raw); err != nil {
		return nil, fmt.Errorf("%w: authenticated api error: %w", domain.ErrUpstream, err)
	}
	return raw, nil
}
