package main

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"text/tabwriter"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/navmodel/internal/stats"
)

var errNoSummaries = errors.New("no summaries to plot")

type series struct {
	label string
	color color.Color
	value func(stats.Summary) float64
}

var latencySeries = []series{
	{"model p50", color.RGBA{R: 31, G: 119, B: 180, A: 255}, func(s stats.Summary) float64 { return s.ModelP50 }},
	{"model p95", color.RGBA{R: 255, G: 127, B: 14, A: 255}, func(s stats.Summary) float64 { return s.ModelP95 }},
	{"dsp p50", color.RGBA{R: 44, G: 160, B: 44, A: 255}, func(s stats.Summary) float64 { return s.DSPP50 }},
	{"dsp p95", color.RGBA{R: 214, G: 39, B: 40, A: 255}, func(s stats.Summary) float64 { return s.DSPP95 }},
}

// points returns one XY per summary, with X in minutes since the first
// window started.
func points(summaries []stats.Summary, value func(stats.Summary) float64) plotter.XYs {
	pts := make(plotter.XYs, len(summaries))
	t0 := summaries[0].Start
	for i, s := range summaries {
		pts[i] = plotter.XY{X: s.Start.Sub(t0).Minutes(), Y: value(s)}
	}
	return pts
}

func plotSummaries(summaries []stats.Summary, path string) error {
	if len(summaries) == 0 {
		return errNoSummaries
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("navmodeld execution time (%d windows from %s)",
		len(summaries), summaries[0].Start.Format("2006-01-02 15:04:05"))
	p.X.Label.Text = "Minutes"
	p.Y.Label.Text = "Time (ms)"

	for _, s := range latencySeries {
		line, err := plotter.NewLine(points(summaries, s.value))
		if err != nil {
			return err
		}
		line.Color = s.color
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.label, line)
	}
	p.Add(plotter.NewGrid())

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func writeTable(w io.Writer, summaries []stats.Summary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "start\tframes\tvalid\tmodel p50\tmodel p95\tmodel max\tdsp p50\tdsp p95")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
			s.Start.Format("15:04:05"), s.Frames, s.Valid,
			s.ModelP50, s.ModelP95, s.ModelMax, s.DSPP50, s.DSPP95)
	}
	tw.Flush()
}
