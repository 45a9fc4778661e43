package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/bastiangx/shelfserve/internal/metrics"
	"github.com/bastiangx/shelfserve/pkg/catalog"
	"github.com/bastiangx/shelfserve/pkg/match"
	"github.com/bastiangx/shelfserve/pkg/session"
	"github.com/bastiangx/shelfserve/pkg/shelf"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	log.SetLevel(log.ErrorLevel)
}

func setupServer(t *testing.T, opts Options) *Server {
	t.Helper()
	c, err := catalog.LoadFile(context.Background(), "../../data/catalog.json")
	require.NoError(t, err)
	return NewServer(shelf.New(c, shelf.Options{}), opts)
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.RemoteAddr = "192.0.2.10:1234"
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func titles(res shelf.Result) []string {
	out := make([]string, len(res.Items))
	for i, h := range res.Items {
		out[i] = h.Title
	}
	return out
}

func TestHealth(t *testing.T) {
	srv := setupServer(t, Options{})
	w := do(t, srv, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	body := decode[map[string]any](t, w)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 16, body["products"])
}

func TestRequestIDIsKept(t *testing.T) {
	srv := setupServer(t, Options{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc123")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, "abc123", w.Header().Get(RequestIDHeader))
}

func TestListProducts(t *testing.T) {
	srv := setupServer(t, Options{})

	t.Run("all", func(t *testing.T) {
		res := decode[shelf.Result](t, do(t, srv, http.MethodGet, "/api/products", ""))
		assert.Equal(t, 16, res.Total)
		assert.Equal(t, 1, res.Page)
		assert.Equal(t, 12, res.PageSize)
		assert.Equal(t, 2, res.TotalPages)
		assert.Len(t, res.Items, 12)
	})

	t.Run("search", func(t *testing.T) {
		res := decode[shelf.Result](t, do(t, srv, http.MethodGet, "/api/products?q=hades", ""))
		assert.Equal(t, []string{"Hades", "Hades II"}, titles(res))
		assert.Equal(t, match.TierExact, res.Items[0].Tier)
	})

	t.Run("genre and tags", func(t *testing.T) {
		q := url.Values{}
		q.Set("genre", "独立")
		q.Add("tag", "手柄支持")
		q.Add("tag", "云存档")
		res := decode[shelf.Result](t, do(t, srv, http.MethodGet, "/api/products?"+q.Encode(), ""))
		assert.Equal(t, []string{"Hades", "Hades II", "Stardew Valley"}, titles(res))
	})

	t.Run("price and paging", func(t *testing.T) {
		res := decode[shelf.Result](t, do(t, srv, http.MethodGet, "/api/products?price=free&sort=price_asc&pageSize=2&page=2", ""))
		assert.Equal(t, 3, res.Total)
		assert.Equal(t, 2, res.TotalPages)
		assert.Equal(t, []string{"Apex Legends"}, titles(res))
	})

	t.Run("past the last page", func(t *testing.T) {
		res := decode[shelf.Result](t, do(t, srv, http.MethodGet, "/api/products?page=9", ""))
		assert.Equal(t, 16, res.Total)
		assert.Empty(t, res.Items)
	})

	t.Run("did you mean", func(t *testing.T) {
		res := decode[shelf.Result](t, do(t, srv, http.MethodGet, "/api/products?q=terarria", ""))
		assert.Zero(t, res.Total)
		assert.Equal(t, "Terraria", res.DidYouMean)
	})
}

func TestListProductsBadParams(t *testing.T) {
	srv := setupServer(t, Options{})

	for _, target := range []string{
		"/api/products?sort=cheapest",
		"/api/products?page=0",
		"/api/products?page=x",
		"/api/products?pageSize=-1",
		"/api/products?commit=maybe",
	} {
		t.Run(target, func(t *testing.T) {
			w := do(t, srv, http.MethodGet, target, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := decode[ErrorResponse](t, w)
			assert.Equal(t, http.StatusBadRequest, body.Status)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestCommitRecordsHistory(t *testing.T) {
	srv := setupServer(t, Options{})
	do(t, srv, http.MethodGet, "/api/products?q=elden&commit=true", "")
	do(t, srv, http.MethodGet, "/api/products?q=hades", "")

	body := decode[historyResponse](t, do(t, srv, http.MethodGet, "/api/history", ""))
	assert.Equal(t, []string{"elden"}, body.Terms)
}

func TestGetProduct(t *testing.T) {
	srv := setupServer(t, Options{})

	w := do(t, srv, http.MethodGet, "/api/products/570", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Dota 2", decode[catalog.Product](t, w).Title)

	w = do(t, srv, http.MethodGet, "/api/products/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPriceRangesAndFacets(t *testing.T) {
	srv := setupServer(t, Options{})

	ranges := decode[[]catalog.BucketCount](t, do(t, srv, http.MethodGet, "/api/price-ranges", ""))
	require.Len(t, ranges, 4)
	assert.Equal(t, "free", ranges[0].ID)
	assert.Equal(t, 3, ranges[0].Count)

	facets := decode[shelf.Facets](t, do(t, srv, http.MethodGet, "/api/facets", ""))
	require.NotEmpty(t, facets.Genres)
	assert.Equal(t, "动作", facets.Genres[0].Name)
	assert.Equal(t, 7, facets.Genres[0].Count)
	assert.Len(t, facets.Prices, 4)
}

func TestSuggest(t *testing.T) {
	srv := setupServer(t, Options{})

	body := decode[suggestResponse](t, do(t, srv, http.MethodGet, "/api/suggest?q=eld&limit=3", ""))
	require.NotEmpty(t, body.Suggestions)
	assert.Equal(t, "Elden Ring", body.Suggestions[0].Title)
	assert.LessOrEqual(t, len(body.Suggestions), 3)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/api/suggest", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/api/suggest?q=eld&limit=0", "").Code)
}

func TestHistoryEndpoints(t *testing.T) {
	srv := setupServer(t, Options{})

	for _, term := range []string{"a1", "b2", "c3", "d4", "e5", "f6", "A1"} {
		w := do(t, srv, http.MethodPost, "/api/history", `{"term":"`+term+`"}`)
		require.Equal(t, http.StatusOK, w.Code)
	}
	body := decode[historyResponse](t, do(t, srv, http.MethodGet, "/api/history", ""))
	assert.Equal(t, []string{"A1", "f6", "e5", "d4", "c3"}, body.Terms)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/api/history", `{"term":"  "}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/api/history", `not json`).Code)

	body = decode[historyResponse](t, do(t, srv, http.MethodGet, "/api/history?q=f6", ""))
	assert.Equal(t, []string{"f6"}, body.Terms)
	body = decode[historyResponse](t, do(t, srv, http.MethodGet, "/api/history?limit=2", ""))
	assert.Equal(t, []string{"A1", "f6"}, body.Terms)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/api/history?limit=0", "").Code)

	w := do(t, srv, http.MethodDelete, "/api/history/E5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"A1", "f6", "d4", "c3"}, decode[historyResponse](t, w).Terms)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodDelete, "/api/history/e5", "").Code)

	assert.Equal(t, http.StatusNoContent, do(t, srv, http.MethodDelete, "/api/history", "").Code)
	body = decode[historyResponse](t, do(t, srv, http.MethodGet, "/api/history", ""))
	assert.Empty(t, body.Terms)
}

func TestPreferences(t *testing.T) {
	srv := setupServer(t, Options{})

	prefs := decode[session.Preferences](t, do(t, srv, http.MethodGet, "/api/preferences", ""))
	assert.Equal(t, session.DefaultPreferences(), prefs)

	prefs = decode[session.Preferences](t, do(t, srv, http.MethodPut, "/api/preferences", `{"darkMode":true,"locale":"en-US"}`))
	assert.True(t, prefs.DarkMode)
	assert.Equal(t, "en-US", prefs.Locale)

	prefs = decode[session.Preferences](t, do(t, srv, http.MethodGet, "/api/preferences", ""))
	assert.True(t, prefs.DarkMode)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPut, "/api/preferences", `[]`).Code)
}

func TestRateLimit(t *testing.T) {
	srv := setupServer(t, Options{RequestsPerMinute: 60, Burst: 2})

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/health", "").Code)

	w := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, http.StatusTooManyRequests, decode[ErrorResponse](t, w).Status)
}

func TestProductsPageFarPastEnd(t *testing.T) {
	srv := setupServer(t, Options{})
	w := do(t, srv, http.MethodGet, "/api/products?page=4611686018427387905&pageSize=100", "")
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[shelf.Result](t, w)
	assert.Empty(t, res.Items)
	assert.Equal(t, 16, res.Total)
}

func TestRateLimitOffAtZero(t *testing.T) {
	srv := setupServer(t, Options{RequestsPerMinute: 0, Burst: 1})
	for range 20 {
		assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/health", "").Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.Register()
	srv := setupServer(t, Options{})
	do(t, srv, http.MethodGet, "/api/products?q=hades", "")

	w := do(t, srv, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "shelfserve_searches_total")
}

func TestRunStopsOnCancel(t *testing.T) {
	srv := setupServer(t, Options{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
