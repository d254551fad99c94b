package scryfall

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, log.New(io.Discard))
	c.Limiter = rate.NewLimiter(rate.Inf, 1)
	c.RetryDelay = time.Millisecond
	return c, srv
}

func TestFetchSet_FollowsPagination(t *testing.T) {
	var srvURL string
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cards/search":
			assert.Equal(t, "set:fin", r.URL.Query().Get("q"))
			assert.Equal(t, "prints", r.URL.Query().Get("unique"))
			fmt.Fprintf(w, `{"data":[{"id":"a","name":"A","set":"fin"}],"has_more":true,"next_page":"%s/page2"}`, srvURL)
		case "/page2":
			fmt.Fprint(w, `{"data":[{"id":"b","name":"B","set":"fin"}],"has_more":false}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	srvURL = srv.URL

	cards, err := c.FetchSet(context.Background(), "FIN")
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "a", cards[0].ID)
	assert.Equal(t, "b", cards[1].ID)
}

func TestSearch_RetriesRateLimit(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"data":[{"id":"a"}],"has_more":false}`)
	})

	cards, err := c.SearchPrints(context.Background(), "Lightning Bolt", "")
	require.NoError(t, err)
	assert.Len(t, cards, 1)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestSearch_NotFoundIsEmpty(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"object":"error","code":"not_found","status":404,"details":"Your query didn't match any cards."}`)
	})

	cards, err := c.SearchPrints(context.Background(), "No Such Card", "")
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestSearchPrints_Query(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `!"Lightning Bolt" set:m10`, r.URL.Query().Get("q"))
		fmt.Fprint(w, `{"data":[],"has_more":false}`)
	})
	_, err := c.SearchPrints(context.Background(), " Lightning Bolt ", "M10")
	require.NoError(t, err)
}

func TestSearch_ServerError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"object":"error","code":"bad_request","status":400,"details":"bad query"}`)
	})

	_, err := c.FetchSet(context.Background(), "fin")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "bad_request", apiErr.Code)
	assert.Contains(t, err.Error(), "bad query")
}

func TestSearch_ContextCancelledDuringBackoff(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	c.RetryDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.FetchSet(ctx, "fin")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNamed(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cards/named", r.URL.Path)
		q := r.URL.Query()
		switch {
		case q.Get("fuzzy") == "bolt":
			fmt.Fprint(w, `{"id":"fuzzy","name":"Lightning Bolt"}`)
		case q.Get("exact") == "Lightning Bolt" && q.Get("set") == "m10":
			fmt.Fprint(w, `{"id":"exact","name":"Lightning Bolt","set":"m10"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	raw, err := c.Named(context.Background(), "Lightning Bolt", "M10", false)
	require.NoError(t, err)
	assert.Equal(t, "exact", raw.ID)

	raw, err = c.Named(context.Background(), "bolt", "", true)
	require.NoError(t, err)
	assert.Equal(t, "fuzzy", raw.ID)

	_, err = c.Named(context.Background(), "Nope", "", false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDownload(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/large/front.png" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		fmt.Fprint(w, "PNGDATA")
	})

	data, err := c.Download(context.Background(), srv.URL+"/large/front.png")
	require.NoError(t, err)
	assert.Equal(t, "PNGDATA", string(data))

	_, err = c.Download(context.Background(), srv.URL+"/missing.png")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}
