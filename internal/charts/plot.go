package charts

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// rotateAfter is the label count above which category tick labels are slanted.
const rotateAfter = 6

type canvasSize struct {
	width, height vg.Length
}

var defaultSizes = map[Kind]canvasSize{
	HorizontalBar: {8 * vg.Inch, 5 * vg.Inch},
	Bar:           {8 * vg.Inch, 5 * vg.Inch},
	Histogram:     {8 * vg.Inch, 5 * vg.Inch},
	Pie:           {6 * vg.Inch, 6 * vg.Inch},
	Line:          {10 * vg.Inch, 5 * vg.Inch},
	Scatter:       {10 * vg.Inch, 5 * vg.Inch},
}

// PlotRenderer renders charts with gonum/plot. The image format follows the
// output file extension and defaults to PNG.
type PlotRenderer struct {
	sizes map[Kind]canvasSize
}

// NewPlotRenderer creates a renderer with the default canvas sizes.
func NewPlotRenderer() *PlotRenderer {
	return &PlotRenderer{sizes: defaultSizes}
}

// Render draws chart into a fresh plot and writes it to path.
func (r *PlotRenderer) Render(ctx context.Context, chart Chart, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := buildPlot(chart)
	if err != nil {
		return fmt.Errorf("build %s chart: %w", chart.Kind, err)
	}

	size, ok := r.sizes[chart.Kind]
	if !ok {
		size = canvasSize{8 * vg.Inch, 5 * vg.Inch}
	}
	return writePlot(p, size, imageFormat(path), path)
}

func imageFormat(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "png"
	}
	return ext
}

// writePlot encodes p and closes the output file before returning.
func writePlot(p *plot.Plot, size canvasSize, format, path string) (err error) {
	wt, err := p.WriterTo(size.width, size.height, format)
	if err != nil {
		return fmt.Errorf("create %s canvas: %w", format, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = wt.WriteTo(f)
	return err
}

func buildPlot(chart Chart) (*plot.Plot, error) {
	if chart.Kind < HorizontalBar || chart.Kind > Scatter {
		return nil, fmt.Errorf("unsupported chart kind %d", chart.Kind)
	}

	p := plot.New()
	p.Title.Text = chart.Title
	p.X.Label.Text = chart.XLabel
	p.Y.Label.Text = chart.YLabel

	if chart.Kind == Pie {
		p.HideAxes()
	}
	if chart.Empty() {
		return p, nil
	}

	var err error
	switch chart.Kind {
	case HorizontalBar, Bar:
		err = addBars(p, chart)
	case Histogram:
		err = addHistogram(p, chart)
	case Pie:
		p.Add(&pieChart{labels: chart.Labels, values: chart.Series[0].Values})
	case Line:
		err = addLines(p, chart)
	case Scatter:
		err = addScatter(p, chart)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func addBars(p *plot.Plot, chart Chart) error {
	n := len(chart.Series)
	width := vg.Points(40 / float64(n))
	for i, s := range chart.Series {
		values := make(plotter.Values, len(s.Values))
		for j, v := range s.Values {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				values[j] = v
			}
		}
		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return err
		}
		bars.Horizontal = chart.Kind == HorizontalBar
		bars.Color = plotutil.Color(i)
		bars.LineStyle.Width = 0
		bars.Offset = vg.Length(float64(i)-float64(n-1)/2) * width
		p.Add(bars)
		if n > 1 {
			p.Legend.Add(s.Name, bars)
		}
	}

	if chart.Kind == HorizontalBar {
		p.NominalY(chart.Labels...)
	} else {
		p.NominalX(chart.Labels...)
		slantLabels(p, len(chart.Labels))
	}
	return nil
}

func addHistogram(p *plot.Plot, chart Chart) error {
	values := make(plotter.Values, 0, len(chart.Values))
	for _, v := range chart.Values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil
	}
	h, err := plotter.NewHist(values, chart.Bins)
	if err != nil {
		return err
	}
	h.FillColor = plotutil.Color(2)
	p.Add(h)
	return nil
}

func addLines(p *plot.Plot, chart Chart) error {
	for i, s := range chart.Series {
		xys := points(s.Values)
		if len(xys) == 0 {
			continue
		}
		line, marks, err := plotter.NewLinePoints(xys)
		if err != nil {
			return err
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		marks.Shape = draw.CircleGlyph{}
		marks.Color = plotutil.Color(i)
		p.Add(line, marks)
		p.Legend.Add(s.Name, line, marks)
	}
	p.Legend.Top = true
	p.NominalX(chart.Labels...)
	slantLabels(p, rotateAfter+1)
	return nil
}

func addScatter(p *plot.Plot, chart Chart) error {
	for i, s := range chart.Series {
		xys := points(s.Values)
		if len(xys) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		sc.GlyphStyle.Color = plotutil.Color(i)
		sc.GlyphStyle.Radius = vg.Points(3)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
	}
	p.Add(plotter.NewGrid())
	p.NominalX(chart.Labels...)
	slantLabels(p, len(chart.Labels))
	return nil
}

// points places values at their category index, skipping NaN.
func points(values []float64) plotter.XYs {
	xys := make(plotter.XYs, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(i), Y: v})
	}
	return xys
}

func slantLabels(p *plot.Plot, n int) {
	if n <= rotateAfter {
		return
	}
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
}

// pieChart draws one wedge per positive value, labelled with its share.
type pieChart struct {
	labels []string
	values []float64
}

// Plot implements plot.Plotter.
func (pc *pieChart) Plot(c draw.Canvas, plt *plot.Plot) {
	total := 0.0
	for _, v := range pc.values {
		if v > 0 && !math.IsInf(v, 0) {
			total += v
		}
	}
	if total == 0 {
		return
	}

	w, h := c.Max.X-c.Min.X, c.Max.Y-c.Min.Y
	radius := w
	if h < radius {
		radius = h
	}
	radius = radius / 2 * 0.85
	center := vg.Point{X: c.Min.X + w/2, Y: c.Min.Y + h/2}

	sty := plt.Legend.TextStyle
	sty.XAlign = draw.XCenter
	sty.YAlign = draw.YCenter

	start := math.Pi / 2
	for i, v := range pc.values {
		if !(v > 0) || math.IsInf(v, 0) {
			continue
		}
		sweep := 2 * math.Pi * v / total

		var wedge vg.Path
		wedge.Move(center)
		wedge.Line(polar(center, radius, start))
		wedge.Arc(center, radius, start, sweep)
		wedge.Close()

		c.SetColor(plotutil.Color(i))
		c.Fill(wedge)
		c.SetColor(color.White)
		c.SetLineWidth(vg.Points(1))
		c.Stroke(wedge)

		label := ""
		if i < len(pc.labels) {
			label = pc.labels[i]
		}
		c.FillText(sty, polar(center, radius*0.6, start+sweep/2), fmt.Sprintf("%s (%.1f%%)", label, 100*v/total))

		start += sweep
	}
}

func polar(center vg.Point, r vg.Length, angle float64) vg.Point {
	return vg.Point{
		X: center.X + r*vg.Length(math.Cos(angle)),
		Y: center.Y + r*vg.Length(math.Sin(angle)),
	}
}
