package export

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/bitshop/salesdash/internal/sales"
)

// DashboardPayload aggregates the view data destined for PDF rendering.
type DashboardPayload struct {
	Title   string
	Scope   string
	Summary sales.Summary
	Rows    [][]string
	Columns []string
	MaxRows int
}

// HTMLRenderer converts an HTML document into PDF bytes.
type HTMLRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// PDFExporter renders dashboard snapshots through Gotenberg.
type PDFExporter struct {
	Renderer HTMLRenderer
}

// RenderDashboard builds the report HTML and returns the PDF bytes.
func (p *PDFExporter) RenderDashboard(ctx context.Context, payload DashboardPayload) ([]byte, error) {
	if p == nil || p.Renderer == nil {
		return nil, fmt.Errorf("pdf exporter not initialised")
	}
	return p.Renderer.RenderHTML(ctx, BuildHTML(payload))
}

// BuildHTML renders the printable dashboard document.
func BuildHTML(payload DashboardPayload) string {
	esc := template.HTMLEscapeString
	var b strings.Builder
	b.WriteString("<html><head><meta charset=\"utf-8\"><style>")
	b.WriteString("body{font-family:sans-serif;margin:24px;}h1{font-size:20px;}table{width:100%;border-collapse:collapse;margin-bottom:16px;}th,td{border:1px solid #ddd;padding:6px;text-align:right;}th{text-align:left;background:#f5f5f5;}section{margin-bottom:24px;} .label{text-align:left;}")
	b.WriteString("</style></head><body>")
	fmt.Fprintf(&b, "<h1>%s</h1>", esc(payload.Title))
	if payload.Scope != "" {
		fmt.Fprintf(&b, "<p>%s</p>", esc(payload.Scope))
	}

	ind := payload.Summary.Indicators
	b.WriteString("<section><h2>Indicadores</h2><table><tbody>")
	writeMetricRow(&b, "Total de Vendas", sales.FormatCurrency(ind.Total))
	writeMetricRow(&b, "Qtd. de Registros", sales.FormatCount(ind.Count))
	writeMetricRow(&b, "Média por Venda", sales.FormatMean(ind.Mean))
	b.WriteString("</tbody></table></section>")

	if len(payload.Summary.ByDate) > 0 {
		b.WriteString("<section><h2>Vendas por data</h2><table><thead><tr><th>Data</th><th>Total</th></tr></thead><tbody>")
		for _, g := range payload.Summary.ByDate {
			writeMetricRow(&b, g.Key.Format("02/01/2006"), sales.FormatCurrency(g.Sum))
		}
		b.WriteString("</tbody></table></section>")
	}

	if len(payload.Summary.ByRegion) > 0 {
		b.WriteString("<section><h2>Vendas por região</h2><table><thead><tr><th>Região</th><th>Total</th></tr></thead><tbody>")
		for _, g := range payload.Summary.ByRegion {
			writeMetricRow(&b, g.Key, sales.FormatCurrency(g.Sum))
		}
		b.WriteString("</tbody></table></section>")
	}

	if len(payload.Rows) > 0 {
		rows := payload.Rows
		if payload.MaxRows > 0 && len(rows) > payload.MaxRows {
			rows = rows[:payload.MaxRows]
		}
		b.WriteString("<section><h2>Registros</h2><table><thead><tr>")
		for _, col := range payload.Columns {
			fmt.Fprintf(&b, "<th>%s</th>", esc(col))
		}
		b.WriteString("</tr></thead><tbody>")
		for _, row := range rows {
			b.WriteString("<tr>")
			for _, cell := range row {
				fmt.Fprintf(&b, "<td class=\"label\">%s</td>", esc(cell))
			}
			b.WriteString("</tr>")
		}
		b.WriteString("</tbody></table></section>")
	}

	b.WriteString("</body></html>")
	return b.String()
}

func writeMetricRow(b *strings.Builder, label, value string) {
	b.WriteString("<tr><td class=\"label\">")
	b.WriteString(template.HTMLEscapeString(label))
	b.WriteString("</td><td>")
	b.WriteString(template.HTMLEscapeString(value))
	b.WriteString("</td></tr>")
}
