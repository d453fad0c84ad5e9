package pages

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func TestFetchCandidates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "archive-test", r.Header.Get("User-Agent"))
		fmt.Fprint(w, `<html><body>
			<a href="one.pdf">One</a>
			<a href="skip.html">Skip</a>
			<a href="/deep/two.zip">Two</a>
		</body></html>`)
	}))
	defer srv.Close()

	f := NewFetcher(Config{UserAgent: "archive-test", Timeout: 5 * time.Second}, nil, zap.NewNop())
	got, err := f.FetchCandidates(context.Background(), srv.URL+"/room/")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, srv.URL+"/room/one.pdf", got[0].URL)
	assert.Equal(t, srv.URL+"/deep/two.zip", got[1].URL)
}

func TestFetchCandidatesNonOKIsError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(Config{Timeout: 5 * time.Second}, nil, zap.NewNop())
	_, err := f.FetchCandidates(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestFetchCandidatesUnreachableHost(t *testing.T) {
	t.Parallel()

	f := NewFetcher(Config{Timeout: time.Second}, nil, zap.NewNop())
	_, err := f.FetchCandidates(context.Background(), "http://127.0.0.1:1/none")
	assert.Error(t, err)
}

func TestFetchCandidatesHonorsCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A zero-burst limiter blocks forever; cancellation must win.
	f := NewFetcher(Config{Timeout: time.Second}, rate.NewLimiter(rate.Limit(0.0001), 1), zap.NewNop())
	_, err := f.FetchCandidates(ctx, "http://example.invalid")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchCandidatesCollectsAcrossSequentialCalls(t *testing.T) {
	t.Parallel()

	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		fmt.Fprintf(w, `<a href="doc%d.pdf">Doc</a>`, hits)
	}))
	defer srv.Close()

	f := NewFetcher(Config{Timeout: 5 * time.Second}, nil, zap.NewNop())
	first, err := f.FetchCandidates(context.Background(), srv.URL+"/a")
	require.NoError(t, err)
	second, err := f.FetchCandidates(context.Background(), srv.URL+"/b")
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.NotEqual(t, first[0].URL, second[0].URL)
}
