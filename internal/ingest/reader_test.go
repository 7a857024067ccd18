package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qepting91/reddit-grid/internal/domain"
)

func TestParseListingRequest_Defaults(t *testing.T) {
	req, err := ParseListingRequest("pics", "", "", "", 25)
	require.NoError(t, err)
	assert.Equal(t, domain.ListingRequest{Subject: "pics", Sort: domain.SortHot, Time: domain.TimeDay, Limit: 25}, req)
}

func TestParseListingRequest_Explicit(t *testing.T) {
	req, err := ParseListingRequest("pics+EarthPorn", "top", "week", "50", 25)
	require.NoError(t, err)
	assert.Equal(t, domain.ListingRequest{Subject: "pics+EarthPorn", Sort: domain.SortTop, Time: domain.TimeWeek, Limit: 50}, req)
}

func TestParseListingRequest_Invalid(t *testing.T) {
	tests := []struct {
		name                         string
		subject, sort, window, limit string
	}{
		{"empty subject", "", "", "", ""},
		{"bad subject chars", "pics;drop", "", "", ""},
		{"empty part", "pics+", "", "", ""},
		{"too long", strings.Repeat("a", 22), "", "", ""},
		{"bad sort", "pics", "best", "", ""},
		{"bad window", "pics", "top", "decade", ""},
		{"limit not a number", "pics", "", "", "lots"},
		{"limit zero", "pics", "", "", "0"},
		{"limit above cap", "pics", "", "", "101"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseListingRequest(tt.subject, tt.sort, tt.window, tt.limit, 25)
			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		})
	}
}

func TestValidateGroupName(t *testing.T) {
	assert.NoError(t, ValidateGroupName("SunnyBlueOtter"))
	assert.NoError(t, ValidateGroupName("new"))
	assert.NoError(t, ValidateGroupName("café corner"))

	for _, bad := range []string{"", " padded", "padded ", strings.Repeat("x", 129), "\xff"} {
		assert.ErrorIs(t, ValidateGroupName(bad), domain.ErrInvalidRequest, "%q", bad)
	}
}

func TestReadPayload(t *testing.T) {
	data, err := ReadPayload(strings.NewReader("\uFEFF{\"data\":{}}"), 1024)
	require.NoError(t, err)
	assert.Equal(t, `{"data":{}}`, string(data))

	data, err = ReadPayload(strings.NewReader(`{"a":1}`), 1024)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	_, err = ReadPayload(strings.NewReader("   \n"), 1024)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = ReadPayload(strings.NewReader(strings.Repeat("x", 11)), 10)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = ReadPayload(strings.NewReader(strings.Repeat("x", 10)), 10)
	assert.NoError(t, err)
}
