package histogram

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var barColor = color.RGBA{R: 0x7a, G: 0xa2, B: 0xf7, A: 0xff}

// PNG draws counts as an 8x4 inch bar chart with outcomes on the x axis.
func PNG(counts map[string]int, title string) ([]byte, error) {
	if len(counts) == 0 {
		return nil, ErrEmpty
	}
	keys := sortedKeys(counts)
	values := make(plotter.Values, len(keys))
	for i, k := range keys {
		values[i] = float64(counts[k])
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Outcome"
	p.Y.Label.Text = "Counts"
	p.Y.Min = 0

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return nil, fmt.Errorf("building bar chart: %w", err)
	}
	bars.Color = barColor
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(keys...)

	wt, err := p.WriterTo(8*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("rendering histogram: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encoding histogram: %w", err)
	}
	return buf.Bytes(), nil
}

// PNGBase64 is PNG encoded as standard base64, ready to embed in JSON.
func PNGBase64(counts map[string]int, title string) (string, error) {
	img, err := PNG(counts, title)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(img), nil
}
