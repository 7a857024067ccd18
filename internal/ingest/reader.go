// Package ingest validates caller input before it reaches the grid service.
package ingest

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/qepting91/reddit-grid/internal/domain"
)

// MaxPayloadBytes bounds a listing posted for client-side rendering.
const MaxPayloadBytes = 8 << 20

const maxGroupNameLen = 128

// Regex for valid subreddit names
var subNameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{2,21}$`)

// ParseListingRequest builds a request from raw path and query values. Empty
// sort, time and limit take their defaults.
func ParseListingRequest(subject, sort, timeWindow, limit string, defaultLimit int) (domain.ListingRequest, error) {
	if err := ValidateSubject(subject); err != nil {
		return domain.ListingRequest{}, err
	}

	s, err := domain.ParseSort(sort)
	if err != nil {
		return domain.ListingRequest{}, err
	}
	tw, err := domain.ParseTimeWindow(timeWindow)
	if err != nil {
		return domain.ListingRequest{}, err
	}

	n := defaultLimit
	if limit != "" {
		n, err = strconv.Atoi(limit)
		if err != nil || n < 1 || n > domain.MaxLimit {
			return domain.ListingRequest{}, fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrInvalidRequest, domain.MaxLimit)
		}
	}

	return domain.ListingRequest{Subject: subject, Sort: s, Time: tw, Limit: n}, nil
}

// ValidateSubject accepts a subreddit name or several joined with "+".
func ValidateSubject(subject string) error {
	if subject == "" {
		return fmt.Errorf("%w: subject is required", domain.ErrInvalidRequest)
	}
	for _, part := range strings.Split(subject, "+") {
		if !subNameRegex.MatchString(part) {
			return fmt.Errorf("%w: invalid subreddit name %q", domain.ErrInvalidRequest, part)
		}
	}
	return nil
}

// ValidateGroupName rejects names that are empty, padded, oversized or not
// valid UTF-8. Case is preserved and significant.
func ValidateGroupName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: group name is required", domain.ErrInvalidRequest)
	case strings.TrimSpace(name) != name:
		return fmt.Errorf("%w: group name has surrounding whitespace", domain.ErrInvalidRequest)
	case len(name) > maxGroupNameLen:
		return fmt.Errorf("%w: group name longer than %d bytes", domain.ErrInvalidRequest, maxGroupNameLen)
	case !utf8.ValidString(name):
		return fmt.Errorf("%w: group name is not valid UTF-8", domain.ErrInvalidRequest)
	}
	return nil
}

// ReadPayload reads a caller-supplied listing, dropping a leading byte order
// mark. Bodies that are empty or larger than max are rejected.
func ReadPayload(r io.Reader, max int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(stripBOM(r), max+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading payload: %w", domain.ErrInvalidRequest, err)
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("%w: payload larger than %d bytes", domain.ErrInvalidRequest, max)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty payload", domain.ErrInvalidRequest)
	}
	return data, nil
}

func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	rdr, _, err := br.ReadRune()
	if err != nil {
		return br
	}
	if rdr != '\uFEFF' {
		br.UnreadRune()
	}
	return br
}
