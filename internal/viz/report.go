package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/murphybed/internal/design"
	"github.com/san-kum/murphybed/internal/mechanism"
)

// Report renders the murphy-error terms next to a per-angle sweep table.
func Report(name string, b design.Breakdown, sweep []mechanism.Snapshot) string {
	left := panel().Render(termsTable(b))
	right := panel().Render(sweepTable(sweep))
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
	return title().Render(strings.ToUpper(name)) + "\n" + body + "\n"
}

func termsTable(b design.Breakdown) string {
	var s strings.Builder
	s.WriteString(header().Render("MURPHY ERROR") + "\n")
	total := b.Total()
	for i, name := range design.TermNames() {
		v := b.Weighted[i]
		style := good()
		if total > 0 && v/total > 0.25 {
			style = bad()
		} else if v > 0 {
			style = warn()
		}
		s.WriteString(label().Render(fmt.Sprintf("%-22s", name)))
		s.WriteString(style.Render(fmt.Sprintf("%12.4g", v)) + "\n")
	}
	s.WriteString(label().Render(fmt.Sprintf("%-22s", "total")))
	s.WriteString(value().Render(fmt.Sprintf("%12.4g", total)))
	return s.String()
}

func sweepTable(sweep []mechanism.Snapshot) string {
	var s strings.Builder
	s.WriteString(header().Render("SWEEP") + "\n")
	if len(sweep) == 0 {
		s.WriteString(label().Render("(no poses)"))
		return s.String()
	}
	cols := []string{"angle", "x", "y"}
	for _, l := range sweep[0].Links() {
		cols = append(cols, l.Name)
	}
	cols = append(cols, "fit", "floor")
	for _, c := range cols {
		s.WriteString(label().Render(fmt.Sprintf("%9s", c)))
	}
	s.WriteString("\n")

	for _, snap := range sweep {
		bed := snap.Bedframe()
		row := []float64{snap.Angle(), bed.X, bed.Y}
		for _, l := range snap.Links() {
			row = append(row, l.Angle)
		}
		for _, v := range row {
			s.WriteString(value().Render(fmt.Sprintf("%9.2f", v)))
		}
		fit := snap.FitError()
		style := good()
		if fit >= 0.125 {
			style = bad()
		}
		s.WriteString(style.Render(fmt.Sprintf("%9.3g", fit)))
		s.WriteString(value().Render(fmt.Sprintf("%9.2f", snap.FloorOpening())) + "\n")
	}
	return strings.TrimRight(s.String(), "\n")
}
