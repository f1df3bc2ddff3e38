package httpapi

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/i474232898/quickcheck/internal/covid"
)

const defaultBarWidth = 20

// counterView is one labeled counter of the widget.
type counterView struct {
	Label   string `json:"label"`
	Value   int64  `json:"value"`
	Display string `json:"display"`
}

func countersOf(r covid.Record) []counterView {
	return []counterView{
		{Label: "Confirmed", Value: r.Confirmed, Display: humanize.Comma(r.Confirmed)},
		{Label: "Deaths", Value: r.Deaths, Display: humanize.Comma(r.Deaths)},
		{Label: "Recovered", Value: r.Recovered, Display: humanize.Comma(r.Recovered)},
	}
}

// renderBar draws the stacked proportion bar: C for confirmed, D for deaths,
// R for recovered, '.' for the unfilled remainder.
// Segment edges are rounded on cumulative shares so the bar never overflows width.
func renderBar(p covid.Proportions, width int) string {
	if width <= 0 {
		width = defaultBarWidth
	}

	edges := [3]int{}
	cum := 0.0
	for i, s := range [3]float64{p.Confirmed, p.Deaths, p.Recovered} {
		cum += s
		edges[i] = int(math.Round(math.Min(cum, 1) * float64(width)))
	}

	var b strings.Builder
	b.Grow(width + 2)
	b.WriteByte('[')
	for i := 0; i < width; i++ {
		switch {
		case i < edges[0]:
			b.WriteByte('C')
		case i < edges[1]:
			b.WriteByte('D')
		case i < edges[2]:
			b.WriteByte('R')
		default:
			b.WriteByte('.')
		}
	}
	b.WriteByte(']')
	return b.String()
}

// renderWidget lays out the three counters followed by the bar.
func renderWidget(r covid.Record, width int) string {
	var b strings.Builder
	for _, c := range countersOf(r) {
		fmt.Fprintf(&b, "%-10s %s\n", c.Label, c.Display)
	}
	b.WriteString(renderBar(covid.ProportionsOf(r), width))
	b.WriteByte('\n')
	return b.String()
}
