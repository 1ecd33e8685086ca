package export

import (
	"encoding/csv"
	"io"

	"github.com/bitshop/salesdash/internal/sales"
)

// WriteRecordsCSV emits the records as CSV in the dataset's column order with
// day-first dates and plain decimal amounts.
func WriteRecordsCSV(w io.Writer, columns []string, roles []sales.Role, records []sales.Record) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(columns); err != nil {
		return err
	}
	row := make([]string, len(roles))
	for _, record := range records {
		for i, role := range roles {
			switch role {
			case sales.RoleDate:
				row[i] = record.Date.Format("02/01/2006")
			case sales.RoleAmount:
				row[i] = record.Amount.String()
			case sales.RoleProduct:
				row[i] = record.Product
			case sales.RoleSeller:
				row[i] = record.Seller
			case sales.RoleRegion:
				row[i] = record.Region
			default:
				row[i] = ""
				if i < len(record.Fields) {
					row[i] = record.Fields[i]
				}
			}
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteSummaryCSV prints the indicators followed by both aggregates.
func WriteSummaryCSV(w io.Writer, summary sales.Summary) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	records := [][]string{
		{"Indicador", "Valor"},
		{"Total de Vendas", summary.Indicators.Total.StringFixed(2)},
		{"Qtd. de Registros", sales.FormatCount(summary.Indicators.Count)},
		{"Média por Venda", meanCell(summary.Indicators)},
		{},
		{"Data", "Total"},
	}
	for _, g := range summary.ByDate {
		records = append(records, []string{g.Key.Format("02/01/2006"), g.Sum.StringFixed(2)})
	}
	records = append(records, []string{}, []string{"Região", "Total"})
	for _, g := range summary.ByRegion {
		records = append(records, []string{g.Key, g.Sum.StringFixed(2)})
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func meanCell(ind sales.Indicators) string {
	if !ind.HasData() {
		return sales.NoDataPlaceholder
	}
	return ind.Mean.Decimal.StringFixed(2)
}
