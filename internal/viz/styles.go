package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles are derived from CurrentTheme on every call so a theme switch
// applies to the next frame.
func panel() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(CurrentTheme.Muted).
		Padding(0, 1)
}

func title() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(CurrentTheme.Primary)
}

func header() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(CurrentTheme.Text).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(CurrentTheme.Muted)
}

func label() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Muted)
}

func value() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(CurrentTheme.Accent)
}

func good() lipgloss.Style { return lipgloss.NewStyle().Foreground(CurrentTheme.Good) }
func warn() lipgloss.Style { return lipgloss.NewStyle().Foreground(CurrentTheme.Warn) }
func bad() lipgloss.Style  { return lipgloss.NewStyle().Foreground(CurrentTheme.Bad) }

func hint() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Muted).Italic(true)
}

// ProgressBar renders done/total as a colored bar.
func ProgressBar(done, total, width int) string {
	percent := 0.0
	if total > 0 {
		percent = float64(done) / float64(total)
	}
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case percent > 0.8:
		return good().Render(bar)
	case percent > 0.4:
		return warn().Render(bar)
	}
	return bad().Render(bar)
}

// Sparkline renders the last width values. Lower is better, so low values
// are drawn in the good color.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var b strings.Builder
	for _, v := range values {
		norm := (v - lo) / span
		idx := int(norm * float64(len(chars)-1))
		idx = max(0, min(idx, len(chars)-1))
		c := string(chars[idx])
		switch {
		case norm > 0.7:
			b.WriteString(bad().Render(c))
		case norm > 0.3:
			b.WriteString(warn().Render(c))
		default:
			b.WriteString(good().Render(c))
		}
	}
	return b.String()
}

func Separator(width int) string {
	mid := width / 2
	left := strings.Repeat("─", max(mid-3, 0))
	right := strings.Repeat("─", max(width-mid-3, 0))
	return label().Render(left + " ◆ " + right)
}
