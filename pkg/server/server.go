package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bastiangx/shelfserve/internal/metrics"
	"github.com/bastiangx/shelfserve/internal/utils"
	"github.com/bastiangx/shelfserve/pkg/browse"
	"github.com/bastiangx/shelfserve/pkg/shelf"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Server answers msgpack requests against a Shelf.
type Server struct {
	shelf  *shelf.Shelf
	reader io.Reader
	out    *bufio.Writer
	enc    *msgpack.Encoder
}

// NewServer creates a server using stdin/stdout for IPC
func NewServer(s *shelf.Shelf) *Server {
	return NewServerWithIO(s, os.Stdin, os.Stdout)
}

// NewServerWithIO creates a server over any reader and writer.
func NewServerWithIO(s *shelf.Shelf, r io.Reader, w io.Writer) *Server {
	out := bufio.NewWriter(w)
	return &Server{
		shelf:  s,
		reader: r,
		out:    out,
		enc:    msgpack.NewEncoder(out),
	}
}

type inbound struct {
	raw msgpack.RawMessage
	err error
}

// Start serves requests until the input ends or ctx is cancelled.
// End of input is a clean shutdown and returns nil.
func (s *Server) Start(ctx context.Context) error {
	log.Debug("Starting IPC server.")
	s.send(StatusResponse{Status: "ready", Products: s.shelf.Catalog().Len()})

	msgs := make(chan inbound)
	go s.readLoop(ctx, msgs)

	for {
		select {
		case <-ctx.Done():
			log.Debug("IPC server stopping")
			if c, ok := s.reader.(io.Closer); ok && s.reader != os.Stdin {
				c.Close()
			}
			return nil
		case m, ok := <-msgs:
			if !ok {
				return nil
			}
			if m.err != nil {
				if errors.Is(m.err, io.EOF) {
					log.Debug("Client disconnected (EOF)")
					return nil
				}
				log.Errorf("Reading request: %v", m.err)
				return m.err
			}
			s.handleMessage(m.raw)
		}
	}
}

// readLoop decodes one raw msgpack value at a time, so a request with bad
// field types does not desync the stream
func (s *Server) readLoop(ctx context.Context, msgs chan<- inbound) {
	defer close(msgs)
	dec := msgpack.NewDecoder(s.reader)
	for {
		raw, err := dec.DecodeRaw()
		select {
		case msgs <- inbound{raw: raw, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

// opLabel keeps the metric label set to the known operations
func opLabel(op string) string {
	switch op {
	case OpSearch, OpSuggest, OpBuckets, OpFacets, OpHistory, OpHistoryRemove, OpHistoryClear, OpHealth:
		return op
	}
	return "unknown"
}

func (s *Server) handleMessage(raw msgpack.RawMessage) {
	var req Request
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		log.Errorf("Unmarshaling request: %v", err)
		s.sendError("", "Invalid msgpack request", 400)
		return
	}
	metrics.IncIPCRequest(opLabel(req.Op))

	switch req.Op {
	case OpSearch:
		s.handleSearch(req)
	case OpSuggest:
		s.handleSuggest(req)
	case OpBuckets:
		s.send(BucketsResponse{ID: req.ID, Buckets: s.shelf.Buckets()})
	case OpFacets:
		s.send(FacetsResponse{ID: req.ID, Facets: s.shelf.Facets()})
	case OpHistory:
		s.send(HistoryResponse{ID: req.ID, Terms: s.shelf.History().Recall(req.Search, req.Limit)})
	case OpHistoryRemove:
		if strings.TrimSpace(req.Search) == "" {
			s.sendError(req.ID, "history_remove needs q", 400)
			return
		}
		s.shelf.History().Remove(req.Search)
		s.send(HistoryResponse{ID: req.ID, Terms: s.shelf.History().Terms()})
	case OpHistoryClear:
		s.shelf.History().Clear()
		s.send(StatusResponse{ID: req.ID, Status: "ok"})
	case OpHealth:
		s.send(StatusResponse{ID: req.ID, Status: "ok", Products: s.shelf.Catalog().Len()})
	default:
		s.sendError(req.ID, fmt.Sprintf("Unknown op: %q", req.Op), 404)
	}
}

func (s *Server) handleSearch(req Request) {
	var sortKey browse.SortKey
	if req.Sort != "" {
		key, err := browse.ParseSortKey(req.Sort)
		if err != nil {
			s.sendError(req.ID, err.Error(), 400)
			return
		}
		sortKey = key
	}
	if req.Page < 0 || req.Size < 0 {
		s.sendError(req.ID, "page and size must not be negative", 400)
		return
	}

	start := time.Now()
	res := s.shelf.Search(shelf.Query{
		FilterState: req.FilterState,
		Sort:        sortKey,
		Page:        req.Page,
		PageSize:    req.Size,
		Commit:      req.Commit,
	})
	s.send(SearchResponse{ID: req.ID, Result: res, TimeTaken: time.Since(start).Microseconds()})
}

func (s *Server) handleSuggest(req Request) {
	if req.Search == "" {
		s.sendError(req.ID, "Missing 'q' parameter", 400)
		log.Debug("Prefix is empty in request")
		return
	}

	start := time.Now()
	found := s.shelf.Suggest(req.Search, req.Limit)
	ranks := utils.CreateRankList(len(found))

	items := make([]SuggestItem, len(found))
	for i, f := range found {
		items[i] = SuggestItem{ID: f.ID, Title: f.Title, Via: string(f.Via), Rank: ranks[i]}
	}
	s.send(SuggestResponse{
		ID:          req.ID,
		Suggestions: items,
		Count:       len(items),
		TimeTaken:   time.Since(start).Microseconds(),
	})
}

// send encodes the response and flushes it to the client
func (s *Server) send(response any) {
	if err := s.enc.Encode(response); err != nil {
		log.Errorf("Marshaling response: %v", err)
		return
	}
	if err := s.out.Flush(); err != nil {
		log.Errorf("Writing response: %v", err)
	}
}

func (s *Server) sendError(id, message string, code int) {
	s.send(ErrorResponse{ID: id, Error: message, Code: code})
}
