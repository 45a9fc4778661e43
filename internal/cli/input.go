// Package cli is the interactive storefront browser used for debugging the
// listing pipeline from a terminal.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bastiangx/shelfserve/pkg/browse"
	"github.com/bastiangx/shelfserve/pkg/shelf"
	"github.com/charmbracelet/log"
)

const helpText = `Type text to search, or a command:
  :price <id|none>   select a price range
  :genre <name>      toggle a genre (any of)
  :tag <name>        toggle a feature tag (all of)
  :sort <key>        popularity, price_asc, price_desc, release_date, rating
  :page <n>  :next  :prev
  :suggest <prefix>  complete a title
  :reset             clear filters and sort
  :refresh           re-run the current query
  :history [text]    recent searches, best matches for text first
  :forget <term>     drop one recent search
  :clear             clear recent searches
  :help  :quit`

// InputHandler reads lines from in, drives a Browser and writes listings
// to out. Every filter or sort change goes back to page 1.
type InputHandler struct {
	shelf   *shelf.Shelf
	browser *shelf.Browser
	in      io.Reader
	out     io.Writer
}

// NewInputHandler creates a handler over s.
func NewInputHandler(s *shelf.Shelf, in io.Reader, out io.Writer) *InputHandler {
	return &InputHandler{
		shelf:   s,
		browser: s.NewBrowser(),
		in:      in,
		out:     out,
	}
}

// Start runs the loop until :quit or the input ends.
func (h *InputHandler) Start() error {
	fmt.Fprintln(h.out, titleStyle.Render("ShelfServe browser"))
	fmt.Fprintln(h.out, dimStyle.Render("type :help for commands"))

	scanner := bufio.NewScanner(h.in)
	for {
		fmt.Fprint(h.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(h.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !h.handleInput(line) {
			return nil
		}
	}
}

// handleInput runs one line. It returns false when the user asked to quit.
func (h *InputHandler) handleInput(line string) bool {
	if !strings.HasPrefix(line, ":") {
		start := time.Now()
		res := h.browser.Search(line)
		log.Debugf("Took [ %v ] for %q", time.Since(start), line)
		h.show(res)
		return true
	}

	cmd, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "q", "quit", "exit":
		return false
	case "help", "h":
		fmt.Fprintln(h.out, helpText)
	case "price":
		if arg == "none" {
			arg = ""
		}
		if arg != "" && !h.knownBucket(arg) {
			h.warn("unknown price range %q", arg)
			return true
		}
		h.show(h.browser.SetPriceRange(arg))
	case "genre":
		if !h.needArg(cmd, arg) {
			return true
		}
		h.show(h.browser.ToggleGenre(arg))
	case "tag":
		if !h.needArg(cmd, arg) {
			return true
		}
		h.show(h.browser.ToggleTag(arg))
	case "sort":
		key, err := browse.ParseSortKey(arg)
		if err != nil {
			h.warn("%v", err)
			return true
		}
		h.show(h.browser.SetSort(key))
	case "page":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			h.warn("page must be a positive number")
			return true
		}
		h.show(h.browser.SetPage(n))
	case "next", "n":
		h.show(h.browser.Next())
	case "prev", "p":
		h.show(h.browser.Prev())
	case "suggest", "s":
		if !h.needArg(cmd, arg) {
			return true
		}
		h.suggest(arg)
	case "reset":
		h.show(h.browser.Reset())
	case "refresh", "r":
		h.show(h.browser.Refresh())
	case "history":
		terms := h.shelf.History().Recall(arg, 0)
		if len(terms) == 0 {
			fmt.Fprintln(h.out, dimStyle.Render("no recent searches"))
		}
		for i, t := range terms {
			fmt.Fprintf(h.out, "%2d. %s\n", i+1, t)
		}
	case "forget":
		if !h.needArg(cmd, arg) {
			return true
		}
		hist := h.shelf.History()
		before := hist.Len()
		hist.Remove(arg)
		if hist.Len() == before {
			h.warn("%q is not in the history", arg)
			return true
		}
		fmt.Fprintln(h.out, dimStyle.Render("forgot "+arg))
	case "clear":
		h.shelf.History().Clear()
		fmt.Fprintln(h.out, dimStyle.Render("history cleared"))
	default:
		h.warn("unknown command :%s", cmd)
	}
	return true
}

func (h *InputHandler) show(res shelf.Result) {
	renderQuery(h.out, h.browser.Query())
	RenderResult(h.out, res)
}

func (h *InputHandler) suggest(prefix string) {
	found := h.shelf.Suggest(prefix, 0)
	if len(found) == 0 {
		h.warn("no suggestions for %q", prefix)
		return
	}
	for i, s := range found {
		fmt.Fprintf(h.out, "%2d. %s %s\n", i+1, titleStyle.Render(s.Title), dimStyle.Render(string(s.Via)))
	}
}

func (h *InputHandler) knownBucket(id string) bool {
	for _, b := range h.shelf.PriceRanges() {
		if b.ID == id {
			return true
		}
	}
	return false
}

func (h *InputHandler) needArg(cmd, arg string) bool {
	if arg == "" {
		h.warn(":%s needs an argument", cmd)
		return false
	}
	return true
}

func (h *InputHandler) warn(format string, args ...any) {
	fmt.Fprintln(h.out, warnStyle.Render(fmt.Sprintf(format, args...)))
}
