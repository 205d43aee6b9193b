package render

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/chrisdamba/trafficflow/internal/models"
)

// LineSeries is the traffic curve drawn by LinePlot: one point per distinct
// time label, in the order the labels first appear.
type LineSeries struct {
	Labels []string
	Values []float64 // mean traffic_total over the locations sharing a label
}

func BuildLineSeries(records []models.TimeSlotRecord) LineSeries {
	index := make(map[string]int)
	var (
		series LineSeries
		counts []int
	)
	for _, r := range records {
		i, ok := index[r.Time]
		if !ok {
			i = len(series.Labels)
			index[r.Time] = i
			series.Labels = append(series.Labels, r.Time)
			series.Values = append(series.Values, 0)
			counts = append(counts, 0)
		}
		series.Values[i] += float64(r.TrafficTotal)
		counts[i]++
	}
	for i := range series.Values {
		series.Values[i] /= float64(counts[i])
	}
	return series
}

// Ticks labels every nth position of labels; the rest get unlabeled minor ticks.
func Ticks(labels []string, every int) []plot.Tick {
	if every < 1 {
		every = 1
	}
	ticks := make([]plot.Tick, len(labels))
	for i, label := range labels {
		ticks[i] = plot.Tick{Value: float64(i)}
		if i%every == 0 {
			ticks[i].Label = label
		}
	}
	return ticks
}

type LinePlot struct {
	Title     string
	Width     vg.Length
	Height    vg.Length
	TickEvery int
}

func NewLinePlot() *LinePlot {
	return &LinePlot{
		Title:     "Traffic volume by time of day",
		Width:     10 * vg.Inch,
		Height:    5 * vg.Inch,
		TickEvery: 4,
	}
}

func (lp *LinePlot) Plot(records []models.TimeSlotRecord) (*plot.Plot, error) {
	series := BuildLineSeries(records)

	p := plot.New()
	p.Title.Text = lp.Title
	p.X.Label.Text = models.ColumnTime
	p.Y.Label.Text = models.ColumnTrafficTotal
	p.X.Tick.Marker = plot.ConstantTicks(Ticks(series.Labels, lp.TickEvery))
	p.Add(plotter.NewGrid())

	if len(series.Labels) == 0 {
		return p, nil
	}

	pts := make(plotter.XYs, len(series.Labels))
	for i, v := range series.Values {
		pts[i].X = float64(i)
		pts[i].Y = v
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to build traffic line: %w", err)
	}
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line)

	return p, nil
}

// Render encodes the plot as PNG to w.
func (lp *LinePlot) Render(w io.Writer, records []models.TimeSlotRecord) error {
	p, err := lp.Plot(records)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(lp.Width, lp.Height, "png")
	if err != nil {
		return fmt.Errorf("failed to create png canvas: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write line plot: %w", err)
	}
	return nil
}
