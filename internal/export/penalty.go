package export

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/murphybed/internal/search"
)

// Penalty plots the committed murphy error per iteration and marks the
// accepted steps.
func Penalty(title string, history []search.Iteration) (*plot.Plot, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("export: empty history")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "murphy error"
	p.Add(plotter.NewGrid())

	committed := make(plotter.XYs, 0, len(history)+1)
	committed = append(committed, plotter.XY{X: 0, Y: history[0].Before})
	var accepted plotter.XYs
	for _, it := range history {
		committed = append(committed, plotter.XY{X: float64(it.Index), Y: it.After})
		if it.Accepted {
			accepted = append(accepted, plotter.XY{X: float64(it.Index), Y: it.After})
		}
	}

	line, err := plotter.NewLine(committed)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Color = plotutil.Color(0)
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add("committed", line)

	if len(accepted) > 0 {
		sc, err := plotter.NewScatter(accepted)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = plotutil.Color(1)
		sc.GlyphStyle.Radius = vg.Points(2.5)
		p.Add(sc)
		p.Legend.Add("accepted", sc)
	}
	return p, nil
}

func SavePenalty(path, title string, history []search.Iteration) error {
	p, err := Penalty(title, history)
	if err != nil {
		return err
	}
	return p.Save(Size, Size*5/8, path)
}
