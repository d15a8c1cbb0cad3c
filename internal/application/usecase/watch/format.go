package watch

import (
	"fmt"
	"strings"
)

const (
	ansiReset    = "\033[0m"
	ansiRed      = "\033[31m"
	ansiGreen    = "\033[32m"
	ansiYellow   = "\033[33m"
	ansiDim      = "\033[2m"
	ansiClearEOL = "\033[K"
)

func colorize(s, c string) string { return c + s + ansiReset }

type RenderMode int

const (
	RenderLive RenderMode = iota
	RenderSnapshot
)

type Formatter struct{}

func NewFormatter() *Formatter { return &Formatter{} }

// Render formats one console line: the latest percentage change per symbol,
// colored by sign. Live mode rewrites the current line in place.
func (f *Formatter) Render(symbols []string, series map[string][]SeriesPoint, mode RenderMode) string {
	var sb strings.Builder
	if mode == RenderLive {
		sb.WriteString("\r")
	}

	sb.WriteString(colorize("[FX] ", ansiDim))

	for i, sym := range symbols {
		if i > 0 {
			sb.WriteString(colorize("  ||  ", ansiDim))
		}

		pts := series[sym]
		val := "--"
		col := ansiYellow
		if len(pts) > 0 {
			last := pts[len(pts)-1].Pct
			val = fmt.Sprintf("%+.3f%%", last)
			switch {
			case last > 0:
				col = ansiGreen
			case last < 0:
				col = ansiRed
			}
		}

		sb.WriteString(sym)
		sb.WriteString(" ")
		sb.WriteString(colorize(val, col))
	}

	if mode == RenderLive {
		sb.WriteString(ansiClearEOL)
	}
	return sb.String()
}
