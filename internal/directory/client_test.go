package directory

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRequiresBaseURL(t *testing.T) {
	t.Parallel()

	_, err := New(Config{}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewRequiresAPIKeyWhenMandatory(t *testing.T) {
	t.Parallel()

	_, err := New(Config{BaseURL: "https://api.example", RequireAPIKey: true}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access key")

	_, err = New(Config{BaseURL: "https://api.example", RequireAPIKey: true, APIKey: "k"}, zap.NewNop())
	assert.NoError(t, err)
}

func TestFetchDirectorySinglePage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/foia_units", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		assert.Equal(t, "archive-test", r.Header.Get("User-Agent"))
		fmt.Fprint(w, `[{"agency":"Department of Justice","name":"OIP","website":"https://justice.example/foia"}]`)
	}))
	defer srv.Close()

	client, err := New(Config{BaseURL: srv.URL, APIKey: "secret", UserAgent: "archive-test"}, zap.NewNop())
	require.NoError(t, err)

	records, err := client.FetchDirectory(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Department of Justice", records[0].AgencyName)
	assert.Equal(t, []string{"https://justice.example/foia"}, records[0].URLs)
}

func TestFetchDirectoryOffsetPagination(t *testing.T) {
	t.Parallel()

	// Full pages of 2 until the third page comes up short.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset := r.URL.Query().Get("page[offset]")
		assert.Equal(t, "2", r.URL.Query().Get("page[limit]"))
		switch offset {
		case "0":
			fmt.Fprint(w, `{"data":[{"id":"a","attributes":{"title":"A"}},{"id":"b","attributes":{"title":"B"}}]}`)
		case "2":
			fmt.Fprint(w, `{"data":[{"id":"c","attributes":{"title":"C"}},{"id":"d","attributes":{"title":"D"}}]}`)
		case "4":
			fmt.Fprint(w, `{"data":[{"id":"e","attributes":{"title":"E"}}]}`)
		default:
			t.Errorf("unexpected offset %q", offset)
			fmt.Fprint(w, `{"data":[]}`)
		}
	}))
	defer srv.Close()

	client, err := New(Config{BaseURL: srv.URL, PageSize: 2}, zap.NewNop())
	require.NoError(t, err)

	records, err := client.FetchDirectory(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, "a", records[0].NaturalKey)
	assert.Equal(t, "e", records[4].NaturalKey)
}

func TestFetchDirectoryFollowsNextLinks(t *testing.T) {
	t.Parallel()

	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `{"data":[{"id":"second","attributes":{"title":"Second"}}]}`)
			return
		}
		fmt.Fprintf(w, `{"data":[{"id":"first","attributes":{"title":"First"}}],"links":{"next":"%s/foia_units?page=2"}}`, srvURL)
	}))
	defer srv.Close()
	srvURL = srv.URL

	client, err := New(Config{BaseURL: srv.URL}, zap.NewNop())
	require.NoError(t, err)

	records, err := client.FetchDirectory(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "first", records[0].NaturalKey)
	assert.Equal(t, "second", records[1].NaturalKey)
}

func TestFetchDirectoryBreaksNextLinkCycle(t *testing.T) {
	t.Parallel()

	// The server always points back at the same page. The cycle guard must
	// return what was collected instead of looping.
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"data":[{"id":"loop","attributes":{"title":"Loop"}}],"links":{"next":"%s/foia_units?page=2"}}`, srvURL)
	}))
	defer srv.Close()
	srvURL = srv.URL

	client, err := New(Config{BaseURL: srv.URL}, zap.NewNop())
	require.NoError(t, err)

	records, err := client.FetchDirectory(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestFetchDirectoryNonOKIsFatal(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, err := New(Config{BaseURL: srv.URL}, zap.NewNop())
	require.NoError(t, err)

	_, err = client.FetchDirectory(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestFetchDirectoryMalformedJSONIsFatal(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data": [`)
	}))
	defer srv.Close()

	client, err := New(Config{BaseURL: srv.URL}, zap.NewNop())
	require.NoError(t, err)

	_, err = client.FetchDirectory(context.Background())
	assert.Error(t, err)
}
