package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bastiangx/shelfserve/pkg/browse"
	"github.com/bastiangx/shelfserve/pkg/session"
	"github.com/bastiangx/shelfserve/pkg/shelf"
	"github.com/bastiangx/shelfserve/pkg/suggest"
	"github.com/gin-gonic/gin"
)

type historyRequest struct {
	Term string `json:"term"`
}

type historyResponse struct {
	Terms []string `json:"terms"`
}

type suggestResponse struct {
	Query       string               `json:"query"`
	Suggestions []suggest.Suggestion `json:"suggestions"`
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"products": s.shelf.Catalog().Len(),
		"loadedAt": s.shelf.LoadedAt(),
	})
}

func (s *Server) listProducts(c *gin.Context) {
	// empty sort falls through to the configured default
	var sortKey browse.SortKey
	if raw := c.Query("sort"); raw != "" {
		key, err := browse.ParseSortKey(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		sortKey = key
	}
	page, ok := positiveQuery(c, "page")
	if !ok {
		return
	}
	size, ok := positiveQuery(c, "pageSize")
	if !ok {
		return
	}
	commit := false
	if raw := c.Query("commit"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "commit must be a boolean")
			return
		}
		commit = v
	}

	res := s.shelf.Search(shelf.Query{
		FilterState: browse.FilterState{
			Search:       c.Query("q"),
			PriceRangeID: c.Query("price"),
			Genres:       nonEmpty(c.QueryArray("genre")),
			Tags:         nonEmpty(c.QueryArray("tag")),
		},
		Sort:     sortKey,
		Page:     page,
		PageSize: size,
		Commit:   commit,
	})
	c.JSON(http.StatusOK, res)
}

func (s *Server) getProduct(c *gin.Context) {
	p, ok := s.shelf.Product(c.Param("id"))
	if !ok {
		respondError(c, http.StatusNotFound, "product not found")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) listPriceRanges(c *gin.Context) {
	c.JSON(http.StatusOK, s.shelf.Buckets())
}

func (s *Server) listFacets(c *gin.Context) {
	c.JSON(http.StatusOK, s.shelf.Facets())
}

func (s *Server) suggest(c *gin.Context) {
	q := c.Query("q")
	if strings.TrimSpace(q) == "" {
		respondError(c, http.StatusBadRequest, "q is required")
		return
	}
	limit, ok := positiveQuery(c, "limit")
	if !ok {
		return
	}

	c.JSON(http.StatusOK, suggestResponse{Query: q, Suggestions: s.shelf.Suggest(q, limit)})
}

// getHistory lists recent searches. With q it fuzzy-recalls the best matches.
func (s *Server) getHistory(c *gin.Context) {
	limit, ok := positiveQuery(c, "limit")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, historyResponse{Terms: s.shelf.History().Recall(c.Query("q"), limit)})
}

func (s *Server) addHistory(c *gin.Context) {
	var req historyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Term) == "" {
		respondError(c, http.StatusBadRequest, "term is required")
		return
	}
	h := s.shelf.History()
	h.Add(req.Term)
	c.JSON(http.StatusOK, historyResponse{Terms: h.Terms()})
}

func (s *Server) removeHistory(c *gin.Context) {
	h := s.shelf.History()
	before := h.Len()
	h.Remove(c.Param("term"))
	if h.Len() == before {
		respondError(c, http.StatusNotFound, "term not in history")
		return
	}
	c.JSON(http.StatusOK, historyResponse{Terms: h.Terms()})
}

func (s *Server) clearHistory(c *gin.Context) {
	s.shelf.History().Clear()
	c.Status(http.StatusNoContent)
}

func (s *Server) getPreferences(c *gin.Context) {
	c.JSON(http.StatusOK, s.shelf.Preferences().Get())
}

func (s *Server) setPreferences(c *gin.Context) {
	var p session.Preferences
	if err := c.ShouldBindJSON(&p); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	prefs := s.shelf.Preferences()
	if err := prefs.Set(p); err != nil {
		// kept for this session
		s.log.Warn("Preferences not persisted", "err", err)
	}
	c.JSON(http.StatusOK, prefs.Get())
}

// positiveQuery reads an optional integer parameter that must be >= 1.
// Absent yields 0. On a bad value the request is already answered.
func positiveQuery(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		respondError(c, http.StatusBadRequest, name+" must be a positive integer")
		return 0, false
	}
	return n, true
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
