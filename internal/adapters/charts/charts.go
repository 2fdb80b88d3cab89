// Package charts renders evaluation results as SVG.
package charts

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/okian/fraudlens/internal/domain/evaluation"
	"github.com/okian/fraudlens/internal/domain/model"
)

var (
	curveColor    = color.RGBA{R: 255, G: 140, A: 255} // dark orange
	diagonalColor = color.RGBA{B: 128, A: 255}         // navy
)

// Renderer draws charts at a fixed size. It is safe for concurrent use.
type Renderer struct {
	width, height vg.Length
}

// New creates a Renderer, 6x4.5 inches unless configured.
func New(opts ...Option) *Renderer {
	r := &Renderer{width: 6 * vg.Inch, height: 4.5 * vg.Inch}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ROC draws the curve with its AUC in the legend against the dashed
// chance diagonal.
func (r *Renderer) ROC(w io.Writer, c evaluation.Curve) error {
	if !c.Defined {
		return ErrUndefinedCurve
	}
	p := plot.New()
	p.Title.Text = "Receiver Operating Characteristic (ROC) Curve"
	p.X.Label.Text = "False Positive Rate"
	p.Y.Label.Text = "True Positive Rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(c.FPR))
	for i := range c.FPR {
		pts[i].X, pts[i].Y = c.FPR[i], c.TPR[i]
	}
	curve, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("%w: roc line: %w", ErrRender, err)
	}
	curve.LineStyle.Color = curveColor
	curve.LineStyle.Width = vg.Points(2)

	diagonal, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return fmt.Errorf("%w: diagonal: %w", ErrRender, err)
	}
	diagonal.LineStyle.Color = diagonalColor
	diagonal.LineStyle.Width = vg.Points(2)
	diagonal.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}

	p.Add(curve, diagonal)
	p.Legend.Add(fmt.Sprintf("ROC Curve (AUC = %.2f)", c.AUC), curve)
	p.Legend.Add("Random", diagonal)
	p.Legend.Top = false
	p.Legend.Left = false

	return r.writeSVG(w, p)
}

// confusionGrid adapts a confusion matrix to plotter.GridXYZ. Columns are
// predicted classes; rows are actual classes with Legitimate on top.
type confusionGrid struct {
	counts [2][2]int
}

func (g confusionGrid) Dims() (c, r int)   { return 2, 2 }
func (g confusionGrid) Z(c, r int) float64 { return float64(g.counts[1-r][c]) }
func (g confusionGrid) X(c int) float64    { return float64(c) }
func (g confusionGrid) Y(r int) float64    { return float64(r) }

// ConfusionMatrix draws a labelled heat map with the count in each cell.
func (r *Renderer) ConfusionMatrix(w io.Writer, cm *evaluation.ConfusionMatrix) error {
	grid := confusionGrid{counts: cm.Counts()}

	p := plot.New()
	p.Title.Text = "Confusion Matrix"
	p.X.Label.Text = "Predicted"
	p.Y.Label.Text = "Actual"
	p.X.Tick.Marker = plot.ConstantTicks{
		{Value: 0, Label: model.ClassNames[model.Legitimate]},
		{Value: 1, Label: model.ClassNames[model.Fraud]},
	}
	p.Y.Tick.Marker = plot.ConstantTicks{
		{Value: 0, Label: model.ClassNames[model.Fraud]},
		{Value: 1, Label: model.ClassNames[model.Legitimate]},
	}

	pal := blues(64)
	hm := plotter.NewHeatMap(grid, pal)
	if hm.Min == hm.Max {
		// A flat palette range would divide by zero.
		hm.Max = hm.Min + 1
	}
	p.Add(hm)

	mid := (hm.Min + hm.Max) / 2
	xys := make(plotter.XYs, 0, 4)
	texts := make([]string, 0, 4)
	dark := make([]bool, 0, 4)
	for row := range 2 {
		for col := range 2 {
			z := grid.Z(col, row)
			xys = append(xys, plotter.XY{X: grid.X(col), Y: grid.Y(row)})
			texts = append(texts, fmt.Sprintf("%d", int(z)))
			dark = append(dark, z > mid)
		}
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return fmt.Errorf("%w: cell labels: %w", ErrRender, err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
		labels.TextStyle[i].Font.Size = vg.Points(14)
		if dark[i] {
			labels.TextStyle[i].Color = color.White
		} else {
			labels.TextStyle[i].Color = color.Black
		}
	}
	p.Add(labels)

	return r.writeSVG(w, p)
}

func (r *Renderer) writeSVG(w io.Writer, p *plot.Plot) error {
	c := vgsvg.New(r.width, r.height)
	p.Draw(draw.New(c))
	if _, err := c.WriteTo(w); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	return nil
}

// SVG runs render into a buffer and returns the document.
func SVG(render func(io.Writer) error) ([]byte, error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// bluePalette runs from near white to dark blue.
type bluePalette []color.Color

func (b bluePalette) Colors() []color.Color { return b }

var _ palette.Palette = bluePalette(nil)

func blues(n int) bluePalette {
	from := color.RGBA{R: 247, G: 251, B: 255, A: 255}
	to := color.RGBA{R: 8, G: 48, B: 107, A: 255}
	out := make(bluePalette, n)
	for i := range out {
		t := float64(i) / float64(n-1)
		out[i] = color.RGBA{
			R: lerp(from.R, to.R, t),
			G: lerp(from.G, to.G, t),
			B: lerp(from.B, to.B, t),
			A: 255,
		}
	}
	return out
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}
