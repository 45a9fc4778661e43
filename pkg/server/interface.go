/*
Package server implements msgpack IPC for the storefront search service.

Clients write msgpack maps to stdin and read msgpack maps from stdout, one
response per request, in order. Messages are self-delimiting so no framing
is needed. The first message the server writes is {"status": "ready"}.

Every request carries an ID, echoed back, and an op:

	{"id": "r1", "op": "search", "q": "hades", "genres": ["独立"], "sort": "price_asc", "page": 1, "size": 12}
	{"id": "r2", "op": "suggest", "q": "ha", "l": 8}
	{"id": "r3", "op": "buckets"}
	{"id": "r4", "op": "facets"}
	{"id": "r5", "op": "history", "q": "eld", "l": 3}
	{"id": "r6", "op": "history_remove", "q": "elden ring"}
	{"id": "r7", "op": "history_clear"}
	{"id": "r8", "op": "health"}

history without "q" lists every recent search, with "q" it fuzzy-recalls.

A search answers with one page of hits and the paging info:

	{"id": "r1", "items": [{"id": "1145360", "t": "Hades", "p": 80, ..., "tier": "exact", "score": 100}],
	 "total": 2, "page": 1, "size": 12, "pages": 1, "t": 143}

Failures answer with the request ID, a message and an HTTP-like code:

	{"id": "r1", "e": "unknown sort key \"cheapest\"", "c": 400}

Timings ("t") are in microseconds.
*/
package server

import (
	"github.com/bastiangx/shelfserve/pkg/browse"
	"github.com/bastiangx/shelfserve/pkg/catalog"
	"github.com/bastiangx/shelfserve/pkg/shelf"
)

// Ops understood by the server.
const (
	OpSearch        = "search"
	OpSuggest       = "suggest"
	OpBuckets       = "buckets"
	OpFacets        = "facets"
	OpHistory       = "history"
	OpHistoryRemove = "history_remove"
	OpHistoryClear  = "history_clear"
	OpHealth        = "health"
)

// Request is the envelope of every client message. Fields not used by the
// op are ignored.
type Request struct {
	ID string `msgpack:"id"`
	Op string `msgpack:"op"`
	browse.FilterState
	Sort   string `msgpack:"sort,omitempty"`
	Page   int    `msgpack:"page,omitempty"`
	Size   int    `msgpack:"size,omitempty"`
	Limit  int    `msgpack:"l,omitempty"`
	Commit bool   `msgpack:"commit,omitempty"`
}

// SearchResponse is one page of search results.
type SearchResponse struct {
	ID string `msgpack:"id"`
	shelf.Result
	TimeTaken int64 `msgpack:"t"`
}

// SuggestItem is one ranked autocomplete entry.
type SuggestItem struct {
	ID    string `msgpack:"id"`
	Title string `msgpack:"w"`
	Via   string `msgpack:"v"`
	Rank  uint16 `msgpack:"r"`
}

// SuggestResponse carries the completions for a prefix.
type SuggestResponse struct {
	ID          string        `msgpack:"id"`
	Suggestions []SuggestItem `msgpack:"s"`
	Count       int           `msgpack:"c"`
	TimeTaken   int64         `msgpack:"t"`
}

// BucketsResponse carries the price ranges with their product counts.
type BucketsResponse struct {
	ID      string                `msgpack:"id"`
	Buckets []catalog.BucketCount `msgpack:"b"`
}

// FacetsResponse carries every filter choice with its product count.
type FacetsResponse struct {
	ID string `msgpack:"id"`
	shelf.Facets
}

// HistoryResponse carries the recent searches, most recent first.
type HistoryResponse struct {
	ID    string   `msgpack:"id"`
	Terms []string `msgpack:"h"`
}

// StatusResponse answers health checks and commands with no payload.
type StatusResponse struct {
	ID       string `msgpack:"id,omitempty"`
	Status   string `msgpack:"status"`
	Products int    `msgpack:"products,omitempty"`
}

// ErrorResponse holds basic error information for a failed request
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
