// Package chainplot draws posterior histograms and log probability
// traces of a fit.
package chainplot

import (
	"fmt"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"bitbucket.org/chiappo/chi2fit/fitter"
)

// log is the global logging variable.
var log = logging.MustGetLogger("chainplot")

// Size is the side of the saved plots.
var Size = 4 * vg.Inch

// Histograms saves a normalized histogram of every parameter to
// prefix + name + ".png". The best value is marked with a vertical
// line. It returns the file names.
func Histograms(res *fitter.FitResult, prefix string, bins int) ([]string, error) {
	if res == nil || len(res.Samples) == 0 {
		return nil, errors.New("nothing to plot")
	}
	if bins < 1 {
		return nil, errors.Errorf("number of bins should be positive, got %d", bins)
	}

	files := make([]string, 0, len(res.Names))
	for i, name := range res.Names {
		col := res.Column(i)
		p := plot.New()
		p.Title.Text = name
		p.X.Label.Text = name
		p.Y.Label.Text = "density"

		h, err := plotter.NewHist(plotter.Values(col), bins)
		if err != nil {
			return files, errors.Wrap(err, name)
		}
		h.Normalize(1)
		p.Add(h)

		top := 0.0
		for _, b := range h.Bins {
			if b.Weight > top {
				top = b.Weight
			}
		}
		best := plotter.XYs{{X: res.Best[i], Y: 0}, {X: res.Best[i], Y: top}}
		l, err := plotter.NewLine(best)
		if err != nil {
			return files, errors.Wrap(err, name)
		}
		l.Color = plotutil.Color(1)
		p.Add(l)

		file := fmt.Sprintf("%s%s.png", prefix, name)
		if err := p.Save(Size, Size, file); err != nil {
			return files, err
		}
		log.Debugf("Saved %s", file)
		files = append(files, file)
	}
	return files, nil
}

// Trace saves the log probabilities of the kept samples in chain order.
func Trace(res *fitter.FitResult, file string) error {
	if res == nil || len(res.LogProbs) == 0 {
		return errors.New("nothing to plot")
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("max lnP=%g", floats.Max(res.LogProbs))
	p.X.Label.Text = "sample"
	p.Y.Label.Text = "lnP"

	pts := make(plotter.XYs, len(res.LogProbs))
	for i, l := range res.LogProbs {
		pts[i].X = float64(i)
		pts[i].Y = l
	}
	if err := plotutil.AddLines(p, "lnP", pts); err != nil {
		return err
	}
	if err := p.Save(2*Size, Size, file); err != nil {
		return err
	}
	log.Debugf("Saved %s", file)
	return nil
}
