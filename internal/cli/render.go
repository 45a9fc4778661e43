package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/bastiangx/shelfserve/pkg/shelf"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	priceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#286983", Dark: "#9ccfd8"})
	freeStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#56949f", Dark: "#a3be8c"})
	dimStyle = lipgloss.NewStyle().Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#9893a5", Dark: "#6e6a86"})
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#b4637a", Dark: "#eb6f92"})
)

// RenderResult prints one page of a listing.
func RenderResult(w io.Writer, res shelf.Result) {
	if res.Total == 0 {
		fmt.Fprintln(w, warnStyle.Render("No products found"))
		if res.DidYouMean != "" {
			fmt.Fprintln(w, dimStyle.Render("Did you mean: "+res.DidYouMean+"?"))
		}
		return
	}

	offset := (res.Page - 1) * res.PageSize
	for i, h := range res.Items {
		price := priceStyle.Render(fmt.Sprintf("¥%.2f", h.Price))
		if h.Price == 0 {
			price = freeStyle.Render("免费")
		}
		fmt.Fprintf(w, "%3d. %s  %s  %s\n", offset+i+1, titleStyle.Render(h.Title), price,
			dimStyle.Render(strings.Join(h.Tags, " / ")))
	}
	if res.Page > res.TotalPages {
		fmt.Fprintln(w, warnStyle.Render("Past the last page"))
	}
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("page %d/%d, %d products", res.Page, res.TotalPages, res.Total)))
}

// renderQuery prints the active filter state on one line
func renderQuery(w io.Writer, q shelf.Query) {
	var parts []string
	if q.FilterState.IsZero() {
		parts = append(parts, "all")
	}
	if q.Search != "" {
		parts = append(parts, "q="+q.Search)
	}
	if q.PriceRangeID != "" {
		parts = append(parts, "price="+q.PriceRangeID)
	}
	if len(q.Genres) > 0 {
		parts = append(parts, "genre="+strings.Join(q.Genres, "|"))
	}
	if len(q.Tags) > 0 {
		parts = append(parts, "tag="+strings.Join(q.Tags, "+"))
	}
	parts = append(parts, "sort="+string(q.Sort))
	fmt.Fprintln(w, dimStyle.Render("["+strings.Join(parts, " ")+"]"))
}
