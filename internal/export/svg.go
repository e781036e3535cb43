package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/cartbox/internal/sim"
)

const (
	background = "#0a0a0a"
	foreground = "#00ff00"
	gridColor  = "#333333"
	textColor  = "#aaaaaa"
)

// Raster is a dot grid such as viz.Canvas.
type Raster interface {
	Size() (w, h int)
	Dot(x, y int) bool
}

// CanvasToSVG draws every set dot of r as a circle.
func CanvasToSVG(r Raster, scale float64) string {
	if r == nil {
		return ""
	}
	w, h := r.Size()
	width, height := float64(w)*scale, float64(h)*scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="%s">
`, width, height, width, height, background, foreground)

	radius := scale * 0.4
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !r.Dot(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, radius)
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

type Point struct {
	X, Y float64
}

// Series is one curve of a chart.
type Series struct {
	Title  string
	Unit   string
	Color  string
	Points []Point
}

// TelemetryToSVG stacks a speed and a distance chart of a run. A dashed line
// marks the first braking sample.
func TelemetryToSVG(samples []sim.Sample, width, height int) string {
	if len(samples) < 2 {
		return ""
	}

	speed := Series{Title: "speed", Unit: "m/s", Color: "#00ffff"}
	distance := Series{Title: "distance", Unit: "m", Color: "#ff00ff"}
	brakeAt := math.NaN()
	for _, s := range samples {
		speed.Points = append(speed.Points, Point{s.Time, s.Speed})
		distance.Points = append(distance.Points, Point{s.Time, s.Distance})
		if s.Braking && math.IsNaN(brakeAt) {
			brakeAt = s.Time
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="monospace" font-size="11">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)

	panel := float64(height) / 2
	writeChart(&sb, speed, 0, float64(width), panel, brakeAt)
	writeChart(&sb, distance, panel, float64(width), panel, brakeAt)

	sb.WriteString("</svg>")
	return sb.String()
}

func writeChart(sb *strings.Builder, s Series, top, width, height, marker float64) {
	const pad = 30.0
	x0, y0 := pad, top+pad/2
	w, h := width-2*pad, height-pad

	minX, maxX, minY, maxY := bounds(s.Points)
	if minY > 0 {
		minY = 0
	}
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	px := func(x float64) float64 { return x0 + (x-minX)/rangeX*w }
	py := func(y float64) float64 { return y0 + h - (y-minY)/rangeY*h }

	fmt.Fprintf(sb, "<rect x=\"%.1f\" y=\"%.1f\" width=\"%.1f\" height=\"%.1f\" fill=\"none\" stroke=\"%s\"/>\n",
		x0, y0, w, h, gridColor)
	fmt.Fprintf(sb, "<text x=\"%.1f\" y=\"%.1f\" fill=\"%s\">%s (%s) max %.2f</text>\n",
		x0, y0-4, textColor, s.Title, s.Unit, maxY)
	fmt.Fprintf(sb, "<text x=\"%.1f\" y=\"%.1f\" fill=\"%s\" text-anchor=\"end\">%.1fs</text>\n",
		x0+w, y0+h+12, textColor, maxX)

	if !math.IsNaN(marker) {
		fmt.Fprintf(sb, "<line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\" stroke=\"%s\" stroke-dasharray=\"4 3\"/>\n",
			px(marker), y0, px(marker), y0+h, textColor)
	}

	fmt.Fprintf(sb, "<path fill=\"none\" stroke=\"%s\" stroke-width=\"1.5\" d=\"", s.Color)
	for i, p := range s.Points {
		if i == 0 {
			fmt.Fprintf(sb, "M%.1f,%.1f", px(p.X), py(p.Y))
		} else {
			fmt.Fprintf(sb, " L%.1f,%.1f", px(p.X), py(p.Y))
		}
	}
	sb.WriteString("\"/>\n")
}

func bounds(points []Point) (minX, maxX, minY, maxY float64) {
	minX, maxX = points[0].X, points[0].X
	minY, maxY = points[0].Y, points[0].Y
	for _, p := range points[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return minX, maxX, minY, maxY
}
