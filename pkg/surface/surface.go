// Package surface defines output rendering for roiscope results.
// Implementations handle different output targets: CSV files, terminal,
// JSON and Markdown.
package surface

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/roiscope/roiscope/pkg/scoring"
)

// Renderer produces formatted output from a scenario Result.
type Renderer interface {
	// Render writes the formatted result to the writer.
	Render(w io.Writer, result *scoring.Result) error
}

// ForFormat returns the renderer for an output format name.
func ForFormat(format string) (Renderer, error) {
	switch format {
	case "", "text", "terminal":
		return &TerminalRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "csv":
		return &CSVRenderer{}, nil
	case "markdown", "md":
		return &MarkdownRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text, json, csv or markdown)", format)
	}
}

func noColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

// money formats a dollar amount with thousands separators and no cents.
func money(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "n/a"
	}
	return "$" + humanize.Comma(int64(math.Round(v)))
}

// kilo formats a dollar amount in thousands, e.g. "$156K".
func kilo(v float64) string {
	return "$" + humanize.Comma(int64(math.Round(v/1000))) + "K"
}

func months(m scoring.Months) string {
	if m.Infinite() {
		return "never"
	}
	return strconv.FormatFloat(float64(m), 'f', 1, 64) + " mo"
}
