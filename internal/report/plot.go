package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/dvirhilu/NMR-Preamplifier/pkg/models"
)

// Figure is a rendered PNG named by the kind of plot it holds
type Figure struct {
	Kind string
	io.WriterTo
}

// Renderer draws figures at a fixed size
type Renderer struct {
	Width  vg.Length
	Height vg.Length
}

// NewRenderer returns a renderer producing 7x6 inch figures
func NewRenderer() *Renderer {
	return &Renderer{Width: 7 * vg.Inch, Height: 6 * vg.Inch}
}

// BodeReferences are the dashed guide lines drawn over a simulated Bode plot
type BodeReferences struct {
	BandStart      float64
	BandStop       float64
	CalculatedGain float64
}

// Impedance draws the magnitude, dB, phase and complex-plane views of an
// input-impedance sweep
func (r *Renderer) Impedance(resp *models.FrequencyResponse) ([]Figure, error) {
	if len(resp.Frequencies) == 0 {
		return nil, fmt.Errorf("cannot plot an empty response")
	}
	mhz := toMHz(resp.Frequencies)

	mag := newPlot("Amplifier Input Impedance Magnitude", "Frequency (MHz)", "Input Impedance Magnitude (Ohms)")
	bode := newPlot(fmt.Sprintf("Impedance Bode Plot (Reference of %.1f Ohms)", resp.Reference),
		"Frequency (MHz)", "Input Impedance Magnitude (dB)")
	logX(bode)
	phase := newPlot("Amplifier Input Impedance Phase", "Frequency (MHz)", "Input Impedance Phase (Degrees)")

	re := make([]float64, len(resp.Values))
	im := make([]float64, len(resp.Values))
	for i, z := range resp.Values {
		re[i], im[i] = real(z), imag(z)
	}
	plane := newPlot("Input Impedance in the Complex Plane", "Re(Z_in)", "Im(Z_in)")
	plane.X.Min, plane.X.Max = -100, 100
	plane.Y.Min, plane.Y.Max = -100, 100

	series := []struct {
		p    *plot.Plot
		x, y []float64
	}{
		{mag, mhz, resp.Magnitude},
		{bode, mhz, resp.MagnitudeDB},
		{phase, mhz, resp.PhaseDeg},
		{plane, re, im},
	}
	for _, s := range series {
		if err := addLine(s.p, "", s.x, s.y, 0); err != nil {
			return nil, err
		}
	}

	return r.figures(map[string]*plot.Plot{
		"zin-magnitude": mag,
		"zin-bode":      bode,
		"zin-phase":     phase,
		"zin-complex":   plane,
	}, "zin-magnitude", "zin-bode", "zin-phase", "zin-complex")
}

// Gain draws a two-panel Bode plot of a voltage-gain sweep
func (r *Renderer) Gain(resp *models.FrequencyResponse) ([]Figure, error) {
	data := &models.BodeData{Points: resp.Points()}
	if len(data.Points) == 0 {
		return nil, fmt.Errorf("cannot plot an empty response")
	}

	mag, phase, err := bodePanels(fmt.Sprintf("%s Gain Bode Plot", resp.Topology), data)
	if err != nil {
		return nil, err
	}
	return []Figure{{Kind: "gain-bode", WriterTo: r.stacked(mag, phase)}}, nil
}

// SimulatedBode draws an externally simulated gain response with guide
// lines at the band edges and the calculated gain
func (r *Renderer) SimulatedBode(data *models.BodeData, refs *BodeReferences) ([]Figure, error) {
	if len(data.Points) == 0 {
		return nil, fmt.Errorf("cannot plot an empty bode file")
	}

	mag, phase, err := bodePanels("Simulated Amplifier Open Circuit Gain", data)
	if err != nil {
		return nil, err
	}

	if refs != nil {
		mhz := toMHz(data.Frequencies())
		low := floats.Min(data.Gains())
		guides := []struct {
			label string
			x, y  []float64
		}{
			{FormatFrequency(refs.BandStart), []float64{refs.BandStart / 1e6, refs.BandStart / 1e6}, []float64{low, refs.CalculatedGain}},
			{FormatFrequency(refs.BandStop), []float64{refs.BandStop / 1e6, refs.BandStop / 1e6}, []float64{low, refs.CalculatedGain}},
			{"Calculated Gain", []float64{floats.Min(mhz), floats.Max(mhz)}, []float64{refs.CalculatedGain, refs.CalculatedGain}},
		}
		for i, g := range guides {
			if err := addDashed(mag, g.label, g.x, g.y, i+2); err != nil {
				return nil, err
			}
		}
	}

	return []Figure{{Kind: "spice-bode", WriterTo: r.stacked(mag, phase)}}, nil
}

// bodePanels draws gain in dB over phase on log frequency axes
func bodePanels(title string, data *models.BodeData) (mag, phase *plot.Plot, err error) {
	mhz := toMHz(data.Frequencies())

	mag = newPlot(title, "", "Gain Magnitude (dB)")
	logX(mag)
	phase = newPlot("", "Frequency (MHz)", "Gain Phase (degrees)")
	logX(phase)

	if err := addLine(mag, "", mhz, data.Gains(), 0); err != nil {
		return nil, nil, err
	}
	if err := addLine(phase, "", mhz, data.Phases(), 1); err != nil {
		return nil, nil, err
	}
	return mag, phase, nil
}

// Sensitivity draws collector current against Vbe and beta and the percent
// error heat map
func (r *Renderer) Sensitivity(s *models.Sensitivity) ([]Figure, error) {
	vbe := newPlot("Collector Current Sensitivity to Base-Emitter Voltage",
		"Base-Emitter Voltage (V)", "Collector Current (mA)")
	vbe.Legend.Left = true
	for i, c := range s.VbeCurves {
		if err := addLine(vbe, c.Label, c.X, toMilli(c.Y), i); err != nil {
			return nil, err
		}
	}

	beta := newPlot("Collector Current Sensitivity to BJT Current Amplification",
		"BJT Current Amplification Factor (beta)", "Collector Current (mA)")
	logX(beta)
	for i, c := range s.BetaCurves {
		if err := addLine(beta, c.Label, c.X, toMilli(c.Y), i); err != nil {
			return nil, err
		}
	}

	for i, pt := range s.TestPoints {
		shape := len(s.VbeCurves) + i
		if err := addPoint(vbe, pt.Label, pt.Vbe, pt.Current*1e3, shape); err != nil {
			return nil, err
		}
		if err := addPoint(beta, pt.Label, pt.Beta, pt.Current*1e3, shape); err != nil {
			return nil, err
		}
	}

	figs, err := r.figures(map[string]*plot.Plot{
		"sensitivity-vbe":  vbe,
		"sensitivity-beta": beta,
	}, "sensitivity-vbe", "sensitivity-beta")
	if err != nil {
		return nil, err
	}

	if len(s.Grid.Vbe) > 1 && len(s.Grid.Beta) > 1 {
		grid := errorGrid{s.Grid}
		heat := plotter.NewHeatMap(grid, palette.Heat(16, 1))
		lo, hi := grid.bounds()
		errPlot := newPlot(fmt.Sprintf("%% Error in Collector Current (%.1f%% to %.1f%%)", lo, hi),
			"Base-Emitter Voltage (V)", "BJT Current Amplification Factor (beta)")
		errPlot.Y.Tick.Marker = decadeTicks{}
		errPlot.Add(heat)

		w, err := errPlot.WriterTo(r.Width, r.Height, "png")
		if err != nil {
			return nil, fmt.Errorf("failed to render sensitivity-error: %w", err)
		}
		figs = append(figs, Figure{Kind: "sensitivity-error", WriterTo: w})
	}
	return figs, nil
}

func (r *Renderer) figures(plots map[string]*plot.Plot, order ...string) ([]Figure, error) {
	figs := make([]Figure, 0, len(order))
	for _, kind := range order {
		w, err := plots[kind].WriterTo(r.Width, r.Height, "png")
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", kind, err)
		}
		figs = append(figs, Figure{Kind: kind, WriterTo: w})
	}
	return figs, nil
}

// stacked draws plots in one column sharing aligned axes
func (r *Renderer) stacked(plots ...*plot.Plot) io.WriterTo {
	rows := make([][]*plot.Plot, len(plots))
	for i, p := range plots {
		rows[i] = []*plot.Plot{p}
	}

	img := vgimg.New(r.Width, r.Height)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      1,
		PadY:      vg.Millimeter,
		PadTop:    vg.Points(2),
		PadBottom: vg.Points(2),
		PadLeft:   vg.Points(2),
		PadRight:  vg.Points(2),
	}

	canvases := plot.Align(rows, tiles, dc)
	for i, p := range plots {
		p.Draw(canvases[i][0])
	}
	return vgimg.PngCanvas{Canvas: img}
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	return p
}

func logX(p *plot.Plot) {
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
}

func addLine(p *plot.Plot, label string, x, y []float64, style int) error {
	line, err := plotter.NewLine(xys(x, y))
	if err != nil {
		return fmt.Errorf("failed to build line %q: %w", label, err)
	}
	line.Color = plotutil.Color(style)
	p.Add(line)
	if label != "" {
		p.Legend.Add(label, line)
	}
	return nil
}

func addDashed(p *plot.Plot, label string, x, y []float64, style int) error {
	line, err := plotter.NewLine(xys(x, y))
	if err != nil {
		return fmt.Errorf("failed to build guide %q: %w", label, err)
	}
	line.Color = plotutil.Color(style)
	line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(line)
	p.Legend.Add(label, line)
	return nil
}

func addPoint(p *plot.Plot, label string, x, y float64, style int) error {
	s, err := plotter.NewScatter(plotter.XYs{{X: x, Y: y}})
	if err != nil {
		return fmt.Errorf("failed to build point %q: %w", label, err)
	}
	s.GlyphStyle.Color = plotutil.Color(style)
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(4)
	p.Add(s)
	p.Legend.Add(label, s)
	return nil
}

func xys(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, min(len(x), len(y)))
	for i := range pts {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}
	return pts
}

func toMHz(freqs []float64) []float64 {
	return floats.ScaleTo(make([]float64, len(freqs)), 1e-6, freqs)
}

func toMilli(amps []float64) []float64 {
	return floats.ScaleTo(make([]float64, len(amps)), 1e3, amps)
}

// errorGrid adapts a percent-error grid to plotter.GridXYZ with Vbe on
// the columns and log10(beta) on the rows. Cell edges sit halfway between
// samples, so beta is placed on a log10 axis rather than a log scale.
type errorGrid struct {
	g models.ErrorGrid
}

func (e errorGrid) Dims() (c, r int)   { return len(e.g.Vbe), len(e.g.Beta) }
func (e errorGrid) Z(c, r int) float64 { return e.g.Percent[c][r] }
func (e errorGrid) X(c int) float64    { return e.g.Vbe[c] }
func (e errorGrid) Y(r int) float64    { return math.Log10(e.g.Beta[r]) }

// decadeTicks labels a log10 axis with the underlying values
type decadeTicks struct{}

func (decadeTicks) Ticks(lo, hi float64) []plot.Tick {
	var ticks []plot.Tick
	for e := math.Ceil(lo); e <= hi; e++ {
		ticks = append(ticks, plot.Tick{Value: e, Label: strconv.FormatFloat(math.Pow(10, e), 'g', -1, 64)})
	}
	return ticks
}

func (e errorGrid) bounds() (lo, hi float64) {
	lo, hi = e.g.Percent[0][0], e.g.Percent[0][0]
	for _, row := range e.g.Percent {
		lo = min(lo, floats.Min(row))
		hi = max(hi, floats.Max(row))
	}
	return lo, hi
}
