package viz

import (
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/murphybed/internal/mechanism"
	"github.com/san-kum/murphybed/internal/search"
)

// Penalties extracts the committed penalty after each iteration, with the
// starting penalty first.
func Penalties(history []search.Iteration) []float64 {
	if len(history) == 0 {
		return nil
	}
	out := make([]float64, 0, len(history)+1)
	out = append(out, history[0].Before)
	for _, it := range history {
		out = append(out, it.After)
	}
	return out
}

// PenaltyChart plots the committed penalty over the search.
func PenaltyChart(history []search.Iteration, width, height int) string {
	data := Penalties(history)
	if len(data) < 2 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(2),
		asciigraph.Caption("murphy error"))
}

// SweepChart plots the bedframe x and y against the swept angle.
func SweepChart(sweep []mechanism.Snapshot, width, height int) string {
	if len(sweep) < 2 {
		return ""
	}
	xs := make([]float64, len(sweep))
	ys := make([]float64, len(sweep))
	for i, s := range sweep {
		bed := s.Bedframe()
		xs[i], ys[i] = bed.X, bed.Y
	}
	return asciigraph.PlotMany([][]float64{xs, ys},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(1),
		asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Red),
		asciigraph.Caption("bedframe x (blue) and y (red), deployed to stowed"))
}
