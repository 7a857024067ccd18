package dashboard

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qepting91/reddit-grid/internal/normalizer"
)

func TestStats_Observe(t *testing.T) {
	s := NewStats()
	s.Observe(normalizer.Counts{Removed: 1, Previews: 3, Dimensionless: 1}, 2)
	s.Observe(normalizer.Counts{Videos: 2}, 2)

	snap := s.Snapshot()
	assert.Equal(t, normalizer.Counts{Removed: 1, Videos: 2, Previews: 3, Dimensionless: 1}, snap.Totals)
	assert.Equal(t, 2, snap.Listings)
	assert.Equal(t, 4, snap.Posts)
}

func TestStats_ConcurrentObserve(t *testing.T) {
	s := NewStats()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Observe(normalizer.Counts{Other: 1}, 0)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, s.Snapshot().Totals.Other)
}

func TestStats_Handler(t *testing.T) {
	s := NewStats()
	s.Observe(normalizer.Counts{Galleries: 1}, 3)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Classification Mix")
	assert.Contains(t, rec.Body.String(), "1 listing")
}
