package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Line renders a responsive SVG line chart of daily totals.
func Line(width, height int, series []float64, labels []string, opts LineOpts) (template.HTML, error) {
	if len(series) == 0 {
		return "", fmt.Errorf("svg: series required")
	}
	if len(series) != len(labels) {
		return "", fmt.Errorf("svg: labels length must match series")
	}
	width, height = viewport(width, height)
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}
	tickCount := opts.TickCount
	if tickCount <= 0 {
		tickCount = DefaultTicks
	}
	maxLabels := opts.MaxLabels
	if maxLabels <= 0 {
		maxLabels = DefaultLabels
	}
	strokeColor := fallback(opts.StrokeColor, "#1f77b4")
	fillColor := fallback(opts.FillColor, "rgba(31,119,180,0.12)")
	axisColor := fallback(opts.AxisColor, "#475569")
	gridColor := fallback(opts.GridColor, "#e2e8f0")

	chartWidth := float64(width) - 2*padding
	chartHeight := float64(height) - 2*padding
	if chartWidth <= 0 || chartHeight <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}

	minVal, maxVal := axisRange(series)
	scale := chartHeight / (maxVal - minVal)

	point := func(i int, value float64) (float64, float64) {
		x := padding + chartWidth/2
		if len(series) > 1 {
			x = padding + float64(i)*chartWidth/float64(len(series)-1)
		}
		return x, padding + chartHeight - (value-minVal)*scale
	}

	var path strings.Builder
	for i, value := range series {
		x, y := point(i, value)
		if i == 0 {
			fmt.Fprintf(&path, "M%.2f %.2f", x, y)
			continue
		}
		fmt.Fprintf(&path, " L%.2f %.2f", x, y)
	}
	firstX, _ := point(0, 0)
	lastX, _ := point(len(series)-1, 0)

	titleID := makeID(opts.Title, "line-title")
	descID := makeID(opts.Title, "line-desc")

	var b strings.Builder
	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID)
	fmt.Fprintf(&b, "<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Vendas por data")))
	fmt.Fprintf(&b, "<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Total vendido por dia")))

	writeGrid(&b, tickCount, padding, chartWidth, chartHeight, minVal, maxVal, axisColor, gridColor)
	writeAxes(&b, axisColor, padding, chartWidth, chartHeight, padding+chartHeight)

	if fillColor != "none" {
		base := padding + chartHeight
		area := fmt.Sprintf("%s L%.2f %.2f L%.2f %.2f Z", path.String(), lastX, base, firstX, base)
		fmt.Fprintf(&b, "<path d=\"%s\" fill=\"%s\" stroke=\"none\" aria-hidden=\"true\"></path>", area, fillColor)
	}
	fmt.Fprintf(&b, "<path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"2\" stroke-linejoin=\"round\" stroke-linecap=\"round\"></path>", path.String(), strokeColor)

	if opts.ShowDots {
		for i, value := range series {
			x, y := point(i, value)
			fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"3\" fill=\"%s\"><title>%s</title></circle>", x, y, strokeColor, template.HTMLEscapeString(labels[i]))
		}
	}

	every := int(math.Ceil(float64(len(labels)) / float64(maxLabels)))
	for i, label := range labels {
		if i%every != 0 {
			continue
		}
		x, _ := point(i, 0)
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", x, padding+chartHeight+14, axisColor, template.HTMLEscapeString(label))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

// Empty renders the placeholder shown when a chart has no data.
func Empty(width, height int, title string) template.HTML {
	width, height = viewport(width, height)
	titleID := makeID(title, "empty-title")
	var b strings.Builder
	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s\">", width, height, titleID)
	fmt.Fprintf(&b, "<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(title, "Gráfico")))
	fmt.Fprintf(&b, "<text x=\"%d\" y=\"%d\" fill=\"#94a3b8\" font-size=\"14\" text-anchor=\"middle\">%s</text>", width/2, height/2, EmptyMessage)
	b.WriteString("</svg>")
	return template.HTML(b.String())
}

func viewport(width, height int) (int, int) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return width, height
}

// axisRange widens the data range to include zero and never collapses.
func axisRange(series []float64) (float64, float64) {
	minVal, maxVal := bounds(series)
	if minVal > 0 {
		minVal = 0
	}
	if maxVal < 0 {
		maxVal = 0
	}
	if almostEqual(maxVal, minVal) {
		maxVal = minVal + 1
	}
	return minVal, maxVal
}

func writeGrid(b *strings.Builder, ticks int, padding, chartWidth, chartHeight, minVal, maxVal float64, axisColor, gridColor string) {
	for i := 0; i <= ticks; i++ {
		ratio := float64(i) / float64(ticks)
		y := padding + chartHeight - ratio*chartHeight
		value := minVal + (maxVal-minVal)*ratio
		fmt.Fprintf(b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"0.5\" stroke-dasharray=\"2,4\" aria-hidden=\"true\"></line>", padding, y, padding+chartWidth, y, gridColor)
		fmt.Fprintf(b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"end\">%s</text>", padding-6, y+4, axisColor, template.HTMLEscapeString(formatTick(value)))
	}
}

func writeAxes(b *strings.Builder, axisColor string, padding, chartWidth, chartHeight, baseY float64) {
	fmt.Fprintf(b, "<g stroke=\"%s\" aria-label=\"Eixos\">", axisColor)
	fmt.Fprintf(b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", padding, padding, padding, padding+chartHeight)
	fmt.Fprintf(b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", padding, baseY, padding+chartWidth, baseY)
	b.WriteString("</g>")
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func bounds(series []float64) (float64, float64) {
	minVal := series[0]
	maxVal := series[0]
	for _, v := range series[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	return minVal, maxVal
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func makeID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return cleaned + "-" + suffix
}

// formatTick abbreviates axis values in pt-BR style (mil, mi, bi).
func formatTick(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000_000:
		return strings.Replace(fmt.Sprintf("%.1fbi", v/1_000_000_000), ".", ",", 1)
	case abs >= 1_000_000:
		return strings.Replace(fmt.Sprintf("%.1fmi", v/1_000_000), ".", ",", 1)
	case abs >= 1_000:
		return strings.Replace(fmt.Sprintf("%.1fmil", v/1_000), ".", ",", 1)
	default:
		if almostEqual(v, math.Round(v)) {
			return fmt.Sprintf("%.0f", v)
		}
		return strings.Replace(fmt.Sprintf("%.2f", v), ".", ",", 1)
	}
}
