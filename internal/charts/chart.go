// Package charts turns aggregated tables into raster chart images.
//
// A Chart describes what to draw; a Renderer draws it to exactly one file.
// PlotRenderer is the gonum/plot implementation used by the command line tool.
package charts

import "context"

// Kind selects the chart type.
type Kind int

const (
	HorizontalBar Kind = iota
	Bar
	Histogram
	Pie
	Line
	Scatter
)

// String returns the name of the chart kind.
func (k Kind) String() string {
	switch k {
	case HorizontalBar:
		return "horizontal_bar"
	case Bar:
		return "bar"
	case Histogram:
		return "histogram"
	case Pie:
		return "pie"
	case Line:
		return "line"
	case Scatter:
		return "scatter"
	default:
		return "unknown"
	}
}

// Series is one named sequence of values aligned with Chart.Labels.
// NaN values are not drawn.
type Series struct {
	Name   string
	Values []float64
}

// Chart describes a single chart.
//
// Bar, horizontal bar, pie, line and scatter charts use Labels as categories
// and one or more Series aligned with them. Histograms use Values and Bins.
type Chart struct {
	Kind   Kind
	Title  string
	XLabel string
	YLabel string
	Labels []string
	Series []Series
	Values []float64
	Bins   int
}

// Empty reports whether the chart has nothing to draw.
func (c Chart) Empty() bool {
	if c.Kind == Histogram {
		return len(c.Values) == 0
	}
	for _, s := range c.Series {
		if len(s.Values) > 0 {
			return false
		}
	}
	return true
}

// Renderer draws a chart to path, producing exactly one image file. Any
// drawing state is released before Render returns.
type Renderer interface {
	Render(ctx context.Context, chart Chart, path string) error
}
