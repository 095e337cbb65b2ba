// Package chart draws the dashboard's bar charts with gonum/plot.
package chart

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
)

func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case SVG, PNG:
		return Format(s), true
	}
	return "", false
}

func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/svg+xml"
}

type Bar struct {
	Label string
	Value float64
}

// Options control one chart. Zero sizes fall back to 10x6 inches.
type Options struct {
	Title      string
	XLabel     string
	YLabel     string
	Horizontal bool
	Width      float64
	Height     float64
	// ValueFormat renders the label printed at the end of each bar.
	ValueFormat func(float64) string
}

var skyBlue = color.RGBA{R: 135, G: 206, B: 235, A: 255}

// Render draws bars in the given order and writes the image to w.
// Horizontal charts stack bars bottom-up, so the last bar is drawn on top.
func Render(w io.Writer, bars []Bar, opt Options, format Format) error {
	p, err := barPlot(bars, opt)
	if err != nil {
		return err
	}
	width, height := opt.Width, opt.Height
	if width <= 0 {
		width = 10
	}
	if height <= 0 {
		height = 6
	}
	wt, err := p.WriterTo(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch, string(format))
	if err != nil {
		return fmt.Errorf("chart %q: %w", opt.Title, err)
	}
	_, err = wt.WriteTo(w)
	return err
}

func barPlot(bars []Bar, opt Options) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = opt.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = opt.XLabel
	p.Y.Label.Text = opt.YLabel

	if len(bars) == 0 {
		p.Title.Text += " (no data)"
		p.X.Min, p.X.Max = 0, 1
		p.Y.Min, p.Y.Max = 0, 1
		return p, nil
	}

	format := opt.ValueFormat
	if format == nil {
		format = FormatNumber
	}

	values := make(plotter.Values, len(bars))
	names := make([]string, len(bars))
	texts := make([]string, len(bars))
	maxV := 0.0
	for i, b := range bars {
		values[i] = b.Value
		names[i] = b.Label
		texts[i] = format(b.Value)
		maxV = math.Max(maxV, b.Value)
	}

	bc, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return nil, err
	}
	bc.Color = skyBlue
	bc.LineStyle.Width = vg.Length(0)
	bc.Horizontal = opt.Horizontal
	p.Add(bc)

	pad := maxV * 0.02
	xys := make([]plotter.XY, len(bars))
	for i, v := range values {
		if opt.Horizontal {
			xys[i] = plotter.XY{X: v + pad, Y: float64(i)}
		} else {
			xys[i] = plotter.XY{X: float64(i), Y: v + pad}
		}
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return nil, err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].Font.Size = vg.Points(8)
		if opt.Horizontal {
			labels.TextStyle[i].YAlign = draw.YCenter
		} else {
			labels.TextStyle[i].XAlign = draw.XCenter
		}
	}
	p.Add(labels)

	top := maxV * 1.15
	if top == 0 {
		top = 1
	}
	if opt.Horizontal {
		p.NominalY(names...)
		p.X.Min, p.X.Max = 0, top
	} else {
		p.NominalX(names...)
		p.Y.Min, p.Y.Max = 0, top
		if len(bars) > 8 {
			p.X.Tick.Label.Rotation = math.Pi / 4
			p.X.Tick.Label.XAlign = draw.XRight
			p.X.Tick.Label.YAlign = draw.YCenter
		}
	}
	return p, nil
}

// FormatNumber prints integral values without decimals and others rounded to two places.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
