package ui

import (
	"html/template"
	"slices"
	"time"

	"github.com/bitshop/salesdash/internal/sales"
	"github.com/bitshop/salesdash/internal/sales/svg"
	"github.com/bitshop/salesdash/internal/shared"
)

// DisplayDateLayout is the day-first layout shown to users.
const DisplayDateLayout = "02/01/2006"

// Option is one entry of a filter dropdown.
type Option struct {
	Value    string
	Selected bool
}

// FilterForm carries the filter controls and their current state.
type FilterForm struct {
	ShowProducts bool
	ShowSellers  bool
	MultiSelect  bool
	Products     []Option
	Sellers      []Option
	Start        string
	End          string
	MinDate      string
	MaxDate      string
}

// Card is a headline indicator.
type Card struct {
	Label string
	Value string
}

// Table is one page of the filtered records.
type Table struct {
	Columns    []string
	Rows       [][]string
	Pagination shared.Pagination
	PrevURL    string
	NextURL    string
}

// ExportLinks point at the download endpoints for the current filter state.
// PDF is empty when PDF rendering is disabled.
type ExportLinks struct {
	XLSX string
	CSV  string
	PDF  string
}

// DashboardViewModel combines all dashboard data for rendering.
type DashboardViewModel struct {
	Title          string
	Filters        FilterForm
	Cards          []Card
	DateChartSVG   template.HTML
	RegionChartSVG template.HTML
	Table          Table
	Exports        ExportLinks
}

// LineRenderer abstracts SVG line chart rendering for the dashboard.
type LineRenderer interface {
	Line(width, height int, series []float64, labels []string, opts svg.LineOpts) (template.HTML, error)
}

// BarRenderer abstracts SVG bar chart rendering for the dashboard.
type BarRenderer interface {
	Bars(width, height int, series []float64, labels []string, opts svg.BarOpts) (template.HTML, error)
}

// ToOptions marks the selected values among the available ones.
func ToOptions(values, selected []string) []Option {
	options := make([]Option, 0, len(values))
	for _, v := range values {
		options = append(options, Option{Value: v, Selected: slices.Contains(selected, v)})
	}
	return options
}

// ToCards renders the three indicator cards.
func ToCards(ind sales.Indicators) []Card {
	return []Card{
		{Label: "Total de Vendas", Value: sales.FormatCurrency(ind.Total)},
		{Label: "Qtd. de Registros", Value: sales.FormatCount(ind.Count)},
		{Label: "Média por Venda", Value: sales.FormatMean(ind.Mean)},
	}
}

// ToRows formats records for the table, one cell per column role. Dates are
// shown day-first and amounts as currency; extra columns pass through.
func ToRows(roles []sales.Role, records []sales.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		row := make([]string, len(roles))
		for i, role := range roles {
			switch role {
			case sales.RoleDate:
				row[i] = FormatDate(record.Date)
			case sales.RoleAmount:
				row[i] = sales.FormatCurrency(record.Amount)
			case sales.RoleProduct:
				row[i] = record.Product
			case sales.RoleSeller:
				row[i] = record.Seller
			case sales.RoleRegion:
				row[i] = record.Region
			default:
				if i < len(record.Fields) {
					row[i] = record.Fields[i]
				}
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// DateSeries flattens the date aggregate into chart inputs.
func DateSeries(groups []sales.Group[time.Time]) ([]float64, []string) {
	series := make([]float64, 0, len(groups))
	labels := make([]string, 0, len(groups))
	for _, g := range groups {
		series = append(series, g.Sum.InexactFloat64())
		labels = append(labels, g.Key.Format("02/01"))
	}
	return series, labels
}

// RegionSeries flattens the region aggregate into chart inputs.
func RegionSeries(groups []sales.Group[string]) ([]float64, []string) {
	series := make([]float64, 0, len(groups))
	labels := make([]string, 0, len(groups))
	for _, g := range groups {
		series = append(series, g.Sum.InexactFloat64())
		labels = append(labels, g.Key)
	}
	return series, labels
}

// FormatDate renders a civil date day-first, empty for the zero date.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DisplayDateLayout)
}
