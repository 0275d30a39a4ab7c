package weighting

import (
	"fmt"
	"io"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// PlotHistogramTerminal writes a horizontal bar histogram of weights to w.
func PlotHistogramTerminal(w io.Writer, weights []float64, bins int, title string) {
	if len(weights) == 0 || bins <= 0 {
		fmt.Fprintf(w, "\n%s: no weights\n", title)
		return
	}

	minWeight := floats.Min(weights)
	maxWeight := floats.Max(weights)

	counts := make([]int, bins)
	width := (maxWeight - minWeight) / float64(bins)
	for _, v := range weights {
		bin := bins - 1
		if width > 0 {
			bin = min(int((v-minWeight)/width), bins-1)
		}
		counts[bin]++
	}

	maxCount := 0
	for _, c := range counts {
		maxCount = max(maxCount, c)
	}

	fmt.Fprintf(w, "\n%s (Terminal Plot - %d samples):\n", title, len(weights))
	fmt.Fprintln(w, "  Lower    | Count    | Bar Chart")
	fmt.Fprintln(w, "-----------|----------|"+strings.Repeat("-", 50))

	// Plot each bin as a horizontal bar
	maxBarWidth := 50
	for i, c := range counts {
		barWidth := c * maxBarWidth / maxCount

		bar := strings.Repeat("█", barWidth)
		if barWidth == 0 {
			bar = "▏"
		}

		fmt.Fprintf(w, "%10.4f | %8d | %s\n", minWeight+float64(i)*width, c, bar)
	}

	fmt.Fprintf(w, "\nScale: Min=%.6f, Max=%.6f\n", minWeight, maxWeight)
}
